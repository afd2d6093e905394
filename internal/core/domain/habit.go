package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidStreak      = errors.New("current streak cannot be negative")
	ErrReminderDisabled   = errors.New("reminder time set while reminders are disabled")
)

const (
	MaxNameLen = 100
)

type Habit struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Name     string  `json:"name" db:"name"`
	ColorHex *string `json:"color_hex,omitempty" db:"color_hex"`

	WeekStart        DateKey `json:"week_start" db:"week_start"`
	WeeklyCompletion Week    `json:"weekly_completion" db:"-"`
	CurrentStreak    int     `json:"current_streak" db:"current_streak"`
	TrackedDates     DateSet `json:"tracked_dates" db:"tracked_dates"`

	ReminderEnabled bool       `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderTime    *TimeOfDay `json:"reminder_time,omitempty" db:"-"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewHabit(userID string, now time.Time) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	utc := now.UTC()

	return &Habit{
		ID:           uuid.New().String(),
		UserID:       userID,
		WeekStart:    EncodeDateKey(StartOfWeek(now)),
		TrackedDates: NewDateSet(),
		Version:      1,
		CreatedAt:    utc,
		UpdatedAt:    utc,
	}, nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) > MaxNameLen {
		return "", ErrHabitNameTooLong
	}
	return trimmed, nil
}

func (h *Habit) touch(now time.Time) {
	h.UpdatedAt = now.UTC()
}

func (h *Habit) Rename(name string, now time.Time) error {
	clean, err := validateName(name)
	if err != nil {
		return err
	}

	h.Name = clean
	h.touch(now)
	return nil
}

// SetColor accepts a palette name or hex string; an empty value clears the tag.
func (h *Habit) SetColor(raw string, now time.Time) error {
	if strings.TrimSpace(raw) == "" {
		h.ColorHex = nil
		h.touch(now)
		return nil
	}

	hex, err := NormalizeColor(raw)
	if err != nil {
		return err
	}

	h.ColorHex = &hex
	h.touch(now)
	return nil
}

// RefreshWeek re-projects TrackedDates onto the week containing now. When the
// week rolled over, the streak cache is recomputed around today.
func (h *Habit) RefreshWeek(now time.Time) bool {
	start := StartOfWeek(now)
	key := EncodeDateKey(start)
	rolled := key != h.WeekStart

	h.WeekStart = key
	h.WeeklyCompletion = WeekFromDates(h.TrackedDates, start)

	if rolled {
		h.CurrentStreak, _ = CalculateStreak(h.WeeklyCompletion, WeekdayIndex(now))
	}
	return rolled
}

// ToggleDay flips completion of weekday index in the week containing now and
// returns the new streak around that day.
func (h *Habit) ToggleDay(index int, now time.Time) (int, error) {
	if !ValidDayIndex(index) {
		return 0, ErrIndexOutOfRange
	}

	start := StartOfWeek(now)
	day := EncodeDateKey(start.AddDate(0, 0, index))

	h.TrackedDates = h.TrackedDates.Toggle(day)
	h.WeekStart = EncodeDateKey(start)
	h.WeeklyCompletion = WeekFromDates(h.TrackedDates, start)

	streak, err := CalculateStreak(h.WeeklyCompletion, index)
	if err != nil {
		return 0, err
	}

	h.CurrentStreak = streak
	h.touch(now)
	return streak, nil
}

// ToggleDate flips completion of an arbitrary calendar day. The record is
// first rolled onto the current week; if the day falls in that week the
// streak is recomputed around it.
func (h *Habit) ToggleDate(key DateKey, now time.Time) (bool, error) {
	day, err := key.Time(now.Location())
	if err != nil {
		return false, err
	}

	h.RefreshWeek(now)
	h.TrackedDates = h.TrackedDates.Toggle(key)

	start := StartOfWeek(now)
	h.WeeklyCompletion = WeekFromDates(h.TrackedDates, start)

	if StartOfWeek(day).Equal(start) {
		h.CurrentStreak, _ = CalculateStreak(h.WeeklyCompletion, WeekdayIndex(day))
	}

	h.touch(now)
	return h.TrackedDates.Contains(key), nil
}

func (h *Habit) IsTracked(key DateKey) bool {
	return h.TrackedDates.Contains(key)
}

// SetReminder enables the reminder at t, or disables it and clears the time.
func (h *Habit) SetReminder(enabled bool, t *TimeOfDay, now time.Time) error {
	if !enabled {
		h.ReminderEnabled = false
		h.ReminderTime = nil
		h.touch(now)
		return nil
	}

	if t == nil {
		return ErrReminderTimeRequired
	}

	tod := *t
	h.ReminderEnabled = true
	h.ReminderTime = &tod
	h.touch(now)
	return nil
}

func (h *Habit) ReminderDueAt(t TimeOfDay) bool {
	return h.ReminderEnabled && h.ReminderTime != nil && *h.ReminderTime == t
}

func (h *Habit) ReminderMessage() string {
	name := h.Name
	if name == "" {
		name = reminderFallbackLabel
	}
	return fmt.Sprintf(reminderBodyTemplate, name)
}

func (h *Habit) Notification(fireAt time.Time) Notification {
	return Notification{
		HabitID: h.ID,
		UserID:  h.UserID,
		Title:   ReminderTitle,
		Body:    h.ReminderMessage(),
		FireAt:  fireAt.UTC(),
	}
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.UserID) == "" {
		return ErrHabitInvalidUserID
	}
	if _, err := validateName(h.Name); err != nil {
		return err
	}
	if h.ColorHex != nil {
		if _, err := ParseColorHex(*h.ColorHex); err != nil {
			return err
		}
	}
	if h.CurrentStreak < 0 {
		return ErrInvalidStreak
	}
	if err := h.TrackedDates.Validate(); err != nil {
		return err
	}
	if !h.ReminderEnabled && h.ReminderTime != nil {
		return ErrReminderDisabled
	}
	if h.ReminderEnabled && h.ReminderTime == nil {
		return ErrReminderTimeRequired
	}
	return nil
}
