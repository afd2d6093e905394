package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrUnauthorized  = errors.New("unauthorized access to resource")
)

type HabitRepository interface {
	// Create persists a new habit.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits owned by a user, oldest first.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update stores the habit if its Version still matches the stored one
	// and bumps Version. A stale Version yields ErrHabitConflict.
	Update(ctx context.Context, habit *Habit) error

	// Delete permanently removes a habit.
	Delete(ctx context.Context, id string) error

	// ListDueReminders returns every habit with an enabled reminder at t.
	ListDueReminders(ctx context.Context, t TimeOfDay) ([]*Habit, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// ReminderPublisher delivers reminder lifecycle events to whatever schedules
// or displays the notifications.
type ReminderPublisher interface {
	Publish(ctx context.Context, event ReminderEvent) error
}

type ReminderEventType string

const (
	ReminderScheduled ReminderEventType = "reminder.scheduled"
	ReminderCancelled ReminderEventType = "reminder.cancelled"
	ReminderDue       ReminderEventType = "reminder.due"
)

type ReminderEvent struct {
	Type         ReminderEventType `json:"type"`
	HabitID      string            `json:"habit_id"`
	UserID       string            `json:"user_id"`
	ReminderTime string            `json:"reminder_time,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
}
