package services

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
)

var ErrInvalidStatsRange = errors.New("start date must not be after end date")

// Longest reported range, in days. Longer ranges are truncated.
const maxStatsDays = 366

type StatsService struct {
	habits domain.HabitRepository
	clock  func() time.Time
}

func NewStatsService(habits domain.HabitRepository) *StatsService {
	return &StatsService{habits: habits, clock: time.Now}
}

func (s *StatsService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// statsDays lists the calendar days from start to end inclusive, as keys in loc.
func statsDays(start, end time.Time, loc *time.Location) ([]domain.DateKey, error) {
	first := midnight(start, loc)
	last := midnight(end, loc)
	if first.After(last) {
		return nil, ErrInvalidStatsRange
	}
	if limit := first.AddDate(0, 0, maxStatsDays-1); last.After(limit) {
		last = limit
	}

	var days []domain.DateKey
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, domain.EncodeDateKey(d))
	}
	return days, nil
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// habitStat reads the streak from a copy rolled onto the week of now, so a
// record last written in an earlier week reports the same streak as the list.
func habitStat(stored *domain.Habit, days []domain.DateKey, now time.Time) domain.HabitStat {
	h := *stored
	h.RefreshWeek(now)

	stat := domain.HabitStat{
		HabitID:       h.ID,
		HabitName:     h.Name,
		CurrentStreak: h.CurrentStreak,
		DailyProgress: make([]int, len(days)),
	}
	if h.ColorHex != nil {
		stat.ColorHex = *h.ColorHex
	}
	for i, day := range days {
		if h.TrackedDates.Contains(day) {
			stat.DailyProgress[i] = 1
			stat.DaysCompleted++
		}
	}
	stat.CompletionRate = domain.CompletionPercent(stat.DaysCompleted, len(days))
	return stat
}

// GetWeeklyStats reports completion per habit over the inclusive date range.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	loc := input.Location
	if loc == nil {
		loc = time.UTC
	}

	days, err := statsDays(input.StartDate, input.EndDate, loc)
	if err != nil {
		return nil, err
	}

	habits, err := s.habits.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	report := &domain.WeeklyStats{
		StartDate:   days[0],
		EndDate:     days[len(days)-1],
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	now := s.clock().In(loc)
	completed := 0
	for _, h := range habits {
		stat := habitStat(h, days, now)
		completed += stat.DaysCompleted
		report.HabitStats = append(report.HabitStats, stat)
	}
	report.OverallRate = domain.CompletionPercent(completed, len(days)*len(habits))

	return report, nil
}
