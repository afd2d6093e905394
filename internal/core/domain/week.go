package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIndexOutOfRange = errors.New("weekday index out of range (must be 0-6)")
	ErrInvalidWeek     = errors.New("invalid weekly record (must be 7 chars of 0/1)")
)

const DaysPerWeek = 7

// Week is the Sunday..Saturday completion record of one calendar week.
type Week [DaysPerWeek]bool

func ValidDayIndex(index int) bool {
	return index >= 0 && index < DaysPerWeek
}

// WeekdayIndex maps t to 0 (Sunday) .. 6 (Saturday).
func WeekdayIndex(t time.Time) int {
	return int(t.Weekday())
}

// StartOfWeek returns the Sunday midnight of t's week in t's location.
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -WeekdayIndex(t))
}

// WeekFromDates projects set onto the seven days starting at weekStart.
func WeekFromDates(set DateSet, weekStart time.Time) Week {
	var w Week
	for i := 0; i < DaysPerWeek; i++ {
		w[i] = set.Contains(EncodeDateKey(weekStart.AddDate(0, 0, i)))
	}
	return w
}

func (w Week) CompletedDays() int {
	n := 0
	for _, done := range w {
		if done {
			n++
		}
	}
	return n
}

// String renders the week as seven '0'/'1' characters.
func (w Week) String() string {
	var b strings.Builder
	b.Grow(DaysPerWeek)
	for _, done := range w {
		if done {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func ParseWeek(s string) (Week, error) {
	var w Week
	if len(s) != DaysPerWeek {
		return w, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	for i := 0; i < DaysPerWeek; i++ {
		switch s[i] {
		case '1':
			w[i] = true
		case '0':
		default:
			return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
		}
	}
	return w, nil
}
