package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDateKey = errors.New("invalid date key (must be YYYY-MM-DD)")
)

const DateKeyLayout = "2006-01-02"

// DateKey identifies a calendar day in canonical YYYY-MM-DD form.
type DateKey string

// EncodeDateKey formats the calendar day of t as seen in t's own location.
func EncodeDateKey(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

// DecodeDateKey returns midnight of the day named by s in loc.
// A nil loc means time.Local.
func DecodeDateKey(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(DateKeyLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}

	if t.Format(DateKeyLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}

	return t, nil
}

func ParseDateKey(s string) (DateKey, error) {
	if _, err := DecodeDateKey(s, time.UTC); err != nil {
		return "", err
	}
	return DateKey(s), nil
}

func (k DateKey) Time(loc *time.Location) (time.Time, error) {
	return DecodeDateKey(string(k), loc)
}

func (k DateKey) Valid() bool {
	_, err := DecodeDateKey(string(k), time.UTC)
	return err == nil
}

func (k DateKey) String() string {
	return string(k)
}
