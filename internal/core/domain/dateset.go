package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const dateSetSeparator = ","

// DateSet is the set of calendar days a habit was completed on.
// Toggle never mutates the receiver.
type DateSet map[DateKey]struct{}

func NewDateSet(keys ...DateKey) DateSet {
	set := make(DateSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (s DateSet) Contains(k DateKey) bool {
	_, ok := s[k]
	return ok
}

func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Toggle returns a copy of s with k removed if present, inserted otherwise.
func (s DateSet) Toggle(k DateKey) DateSet {
	out := s.Clone()
	if _, ok := out[k]; ok {
		delete(out, k)
	} else {
		out[k] = struct{}{}
	}
	return out
}

func (s DateSet) Len() int {
	return len(s)
}

func (s DateSet) Keys() []DateKey {
	keys := make([]DateKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

func (s DateSet) Equal(other DateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Contains(k) {
			return false
		}
	}
	return true
}

func (s DateSet) Validate() error {
	for k := range s {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDateKey, string(k))
		}
	}
	return nil
}

// String is the persisted form: sorted keys joined by commas.
func (s DateSet) String() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, dateSetSeparator)
}

func ParseDateSet(raw string) (DateSet, error) {
	set := make(DateSet)
	for _, part := range strings.Split(raw, dateSetSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := ParseDateKey(part)
		if err != nil {
			return nil, err
		}
		set[k] = struct{}{}
	}
	return set, nil
}

func (s DateSet) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *DateSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		raw = ""
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into DateSet", src)
	}

	set, err := ParseDateSet(raw)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (s DateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *DateSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	set := make(DateSet, len(keys))
	for _, raw := range keys {
		k, err := ParseDateKey(raw)
		if err != nil {
			return err
		}
		set[k] = struct{}{}
	}
	*s = set
	return nil
}
