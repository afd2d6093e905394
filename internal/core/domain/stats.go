package domain

import "time"

// StatsInput selects the owner and the inclusive day range to report on.
// A nil Location means UTC.
type StatsInput struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Location  *time.Location
}

// WeeklyStats aggregates per-habit completion over a range of days.
type WeeklyStats struct {
	StartDate   DateKey     `json:"start_date"`
	EndDate     DateKey     `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

// HabitStat has one DailyProgress entry per day of the range, 1 when tracked.
type HabitStat struct {
	HabitID        string  `json:"habit_id"`
	HabitName      string  `json:"habit_name"`
	ColorHex       string  `json:"color_hex,omitempty"`
	CurrentStreak  int     `json:"current_streak"`
	DaysCompleted  int     `json:"days_completed"`
	CompletionRate float64 `json:"completion_rate"`
	DailyProgress  []int   `json:"daily_progress"`
}

// CompletionPercent returns done/total as a percentage, 0 for an empty total.
func CompletionPercent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
