package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidMonth = errors.New("invalid month (must be 1-12)")
)

type CalendarDay struct {
	Date    DateKey `json:"date"`
	Day     int     `json:"day"`
	Weekday int     `json:"weekday"`
	Tracked bool    `json:"tracked"`
}

type MonthView struct {
	Year         int           `json:"year"`
	Month        int           `json:"month"`
	TrackedCount int           `json:"tracked_count"`
	Days         []CalendarDay `json:"days"`
}

// MonthCalendar lays out every day of month with its tracked flag.
func MonthCalendar(set DateSet, year int, month time.Month, loc *time.Location) (*MonthView, error) {
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	view := &MonthView{
		Year:  year,
		Month: int(month),
	}

	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := EncodeDateKey(d)
		tracked := set.Contains(key)
		if tracked {
			view.TrackedCount++
		}
		view.Days = append(view.Days, CalendarDay{
			Date:    key,
			Day:     d.Day(),
			Weekday: WeekdayIndex(d),
			Tracked: tracked,
		})
	}

	return view, nil
}
