package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/metrics"
)

// ReminderScheduler is told about every habit whose reminder may have changed.
type ReminderScheduler interface {
	Enqueue(habitID, userID string)
}

type HabitService struct {
	repo      domain.HabitRepository
	reminders ReminderScheduler
	loc       *time.Location
	clock     func() time.Time
}

func NewHabitService(repo domain.HabitRepository, reminders ReminderScheduler, loc *time.Location) *HabitService {
	if loc == nil {
		loc = time.UTC
	}
	return &HabitService{
		repo:      repo,
		reminders: reminders,
		loc:       loc,
		clock:     time.Now,
	}
}

// SetClock replaces the time source; tests pin it to a fixed day.
func (s *HabitService) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *HabitService) now() time.Time {
	return s.clock().In(s.loc)
}

type CreateHabitInput struct {
	UserID          string
	Name            string
	Color           string
	ReminderEnabled bool
	ReminderTime    string
}

type UpdateHabitInput struct {
	ID      string
	UserID  string
	Name    *string
	Color   *string
	Version int
}

type ToggleDayInput struct {
	HabitID string
	UserID  string
	Index   int
}

type ToggleDateInput struct {
	HabitID string
	UserID  string
	Date    string
}

type SetReminderInput struct {
	HabitID string
	UserID  string
	Enabled bool
	Time    string
}

func parseReminder(enabled bool, raw string) (*domain.TimeOfDay, error) {
	if !enabled || raw == "" {
		return nil, nil
	}
	tod, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return nil, err
	}
	return &tod, nil
}

func (s *HabitService) notifyReminder(h *domain.Habit) {
	if s.reminders != nil {
		s.reminders.Enqueue(h.ID, h.UserID)
	}
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	now := s.now()

	habit, err := domain.NewHabit(input.UserID, now)
	if err != nil {
		return nil, err
	}

	if err := habit.Rename(input.Name, now); err != nil {
		return nil, err
	}

	if err := habit.SetColor(input.Color, now); err != nil {
		return nil, err
	}

	tod, err := parseReminder(input.ReminderEnabled, input.ReminderTime)
	if err != nil {
		return nil, err
	}
	if err := habit.SetReminder(input.ReminderEnabled, tod, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	if habit.ReminderEnabled {
		s.notifyReminder(habit)
	}

	return habit, nil
}

func (s *HabitService) getOwned(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	habit.RefreshWeek(s.now())
	return habit, nil
}

// ListByUserID returns the user's habits projected onto the current week.
func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, h := range habits {
		h.RefreshWeek(now)
	}
	return habits, nil
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.getOwned(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	now := s.now()

	if input.Name != nil {
		if err := habit.Rename(*input.Name, now); err != nil {
			return nil, err
		}
	}

	if input.Color != nil {
		if err := habit.SetColor(*input.Color, now); err != nil {
			return nil, err
		}
	}

	habit.RefreshWeek(now)

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	if habit.ReminderEnabled {
		// The notification body carries the name.
		s.notifyReminder(habit)
	}

	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	habit, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if habit.ReminderEnabled {
		s.notifyReminder(habit)
	}

	return nil
}

func (s *HabitService) ToggleDay(ctx context.Context, input ToggleDayInput) (*domain.Habit, error) {
	if !domain.ValidDayIndex(input.Index) {
		return nil, domain.ErrIndexOutOfRange
	}

	habit, err := s.getOwned(ctx, input.HabitID, input.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := habit.ToggleDay(input.Index, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	metrics.IncrementHabitToggle("weekday")
	return habit, nil
}

// ToggleDate flips a calendar day and reports whether it is now tracked.
func (s *HabitService) ToggleDate(ctx context.Context, input ToggleDateInput) (*domain.Habit, bool, error) {
	key, err := domain.ParseDateKey(input.Date)
	if err != nil {
		return nil, false, err
	}

	habit, err := s.getOwned(ctx, input.HabitID, input.UserID)
	if err != nil {
		return nil, false, err
	}

	tracked, err := habit.ToggleDate(key, s.now())
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, false, err
	}

	metrics.IncrementHabitToggle("calendar")
	return habit, tracked, nil
}

func (s *HabitService) SetReminder(ctx context.Context, input SetReminderInput) (*domain.Habit, error) {
	tod, err := parseReminder(input.Enabled, input.Time)
	if err != nil {
		return nil, err
	}

	habit, err := s.getOwned(ctx, input.HabitID, input.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := habit.SetReminder(input.Enabled, tod, now); err != nil {
		return nil, err
	}
	habit.RefreshWeek(now)

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.notifyReminder(habit)
	return habit, nil
}

// Calendar returns the month view of tracked dates. A zero year or month
// selects the current one.
func (s *HabitService) Calendar(ctx context.Context, habitID, userID string, year, month int) (*domain.MonthView, error) {
	habit, err := s.getOwned(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	return domain.MonthCalendar(habit.TrackedDates, year, time.Month(month), s.loc)
}
