package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidColor = errors.New("invalid color format (must be #RRGGBB)")
)

var colorRegex = regexp.MustCompile(`^#?[A-Fa-f0-9]{6}$`)

type Color struct {
	R uint8
	G uint8
	B uint8
}

func ParseColorHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !colorRegex.MatchString(s) {
		return Color{}, ErrInvalidColor
	}

	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}

	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

type PaletteColor struct {
	Name  string `json:"name"`
	Color Color  `json:"-"`
}

// Palette holds the seven swatches offered by the habit editor.
var Palette = []PaletteColor{
	{Name: "red", Color: Color{R: 0xFF, G: 0x3B, B: 0x30}},
	{Name: "orange", Color: Color{R: 0xFF, G: 0x95, B: 0x00}},
	{Name: "yellow", Color: Color{R: 0xFF, G: 0xCC, B: 0x00}},
	{Name: "green", Color: Color{R: 0x34, G: 0xC7, B: 0x59}},
	{Name: "blue", Color: Color{R: 0x00, G: 0x7A, B: 0xFF}},
	{Name: "purple", Color: Color{R: 0xAF, G: 0x52, B: 0xDE}},
	{Name: "pink", Color: Color{R: 0xFF, G: 0x2D, B: 0x55}},
}

func PaletteColorByName(name string) (Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Palette {
		if p.Name == name {
			return p.Color, true
		}
	}
	return Color{}, false
}

// NormalizeColor accepts a palette name or a hex string and returns the
// canonical #RRGGBB form.
func NormalizeColor(raw string) (string, error) {
	if c, ok := PaletteColorByName(raw); ok {
		return c.Hex(), nil
	}

	c, err := ParseColorHex(raw)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}
