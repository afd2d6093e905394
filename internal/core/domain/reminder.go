package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidReminder      = errors.New("invalid reminder format (must be HH:MM 24h)")
	ErrReminderTimeRequired = errors.New("reminder time is required when reminders are enabled")
)

var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):([0-5][0-9])$`)

const (
	ReminderTitle         = "Habit Reminder"
	reminderBodyTemplate  = "Time to work on your habit: %s"
	reminderFallbackLabel = "New Habit"
)

// TimeOfDay is a wall-clock hour and minute, independent of any date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := reminderRegex.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, ErrInvalidReminder
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Notification is the message delivered when a habit reminder fires.
type Notification struct {
	HabitID string    `json:"habit_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FireAt  time.Time `json:"fire_at"`
}
