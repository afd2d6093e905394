package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/jmoiron/sqlx"
)

var _ domain.HabitRepository = (*PostgresHabitRepository)(nil)

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

const habitColumns = `
    id, user_id, name, color_hex,
    to_char(week_start, 'YYYY-MM-DD') AS week_start,
    weekly_completion, current_streak, tracked_dates,
    reminder_enabled, reminder_time,
    version, created_at, updated_at`

// habitRow mirrors the habits table; reminder_time and weekly_completion
// are stored as text and decoded into their domain types.
type habitRow struct {
	ID               string         `db:"id"`
	UserID           string         `db:"user_id"`
	Name             string         `db:"name"`
	ColorHex         *string        `db:"color_hex"`
	WeekStart        string         `db:"week_start"`
	WeeklyCompletion string         `db:"weekly_completion"`
	CurrentStreak    int            `db:"current_streak"`
	TrackedDates     domain.DateSet `db:"tracked_dates"`
	ReminderEnabled  bool           `db:"reminder_enabled"`
	ReminderTime     sql.NullString `db:"reminder_time"`
	Version          int            `db:"version"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r habitRow) toDomain() (*domain.Habit, error) {
	week, err := domain.ParseWeek(r.WeeklyCompletion)
	if err != nil {
		return nil, fmt.Errorf("habit %s: %w", r.ID, err)
	}

	h := &domain.Habit{
		ID:               r.ID,
		UserID:           r.UserID,
		Name:             r.Name,
		ColorHex:         r.ColorHex,
		WeekStart:        domain.DateKey(r.WeekStart),
		WeeklyCompletion: week,
		CurrentStreak:    r.CurrentStreak,
		TrackedDates:     r.TrackedDates,
		ReminderEnabled:  r.ReminderEnabled,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if h.TrackedDates == nil {
		h.TrackedDates = domain.NewDateSet()
	}

	if r.ReminderTime.Valid {
		tod, err := domain.ParseTimeOfDay(r.ReminderTime.String)
		if err != nil {
			return nil, fmt.Errorf("habit %s: %w", r.ID, err)
		}
		h.ReminderTime = &tod
	}

	return h, nil
}

func reminderValue(h *domain.Habit) any {
	if h.ReminderTime == nil {
		return nil
	}
	return h.ReminderTime.String()
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	query := `
        INSERT INTO habits (
            id, user_id, name, color_hex,
            week_start, weekly_completion, current_streak, tracked_dates,
            reminder_enabled, reminder_time,
            version, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4,
            $5, $6, $7, $8,
            $9, $10,
            1, $11, $12
        )`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Name, h.ColorHex,
		string(h.WeekStart), h.WeeklyCompletion.String(), h.CurrentStreak, h.TrackedDates.String(),
		h.ReminderEnabled, reminderValue(h),
		h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	h.Version = 1
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	var row habitRow
	err := r.db.GetContext(ctx, &row, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return row.toDomain()
}

func (r *PostgresHabitRepository) selectMany(ctx context.Context, query string, args ...any) ([]*domain.Habit, error) {
	var rows []habitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for _, row := range rows {
		h, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at ASC, id ASC`

	return r.selectMany(ctx, query, userID)
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	query := `
        UPDATE habits SET
            name=$1, color_hex=$2,
            week_start=$3, weekly_completion=$4, current_streak=$5, tracked_dates=$6,
            reminder_enabled=$7, reminder_time=$8,
            updated_at=NOW(), version = version + 1
        WHERE id=$9 AND version=$10
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		h.Name, h.ColorHex,
		string(h.WeekStart), h.WeeklyCompletion.String(), h.CurrentStreak, h.TrackedDates.String(),
		h.ReminderEnabled, reminderValue(h),
		h.ID, h.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time

	if err := row.Scan(&newVersion, &newUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var count int
			if checkErr := r.db.QueryRowContext(ctx, `SELECT count(*) FROM habits WHERE id = $1`, h.ID).Scan(&count); checkErr != nil {
				return fmt.Errorf("existence check failed: %w", checkErr)
			}

			if count == 0 {
				return domain.ErrHabitNotFound
			}
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	h.Version = newVersion
	h.UpdatedAt = newUpdatedAt

	return nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

func (r *PostgresHabitRepository) ListDueReminders(ctx context.Context, t domain.TimeOfDay) ([]*domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
        FROM habits
        WHERE reminder_enabled AND reminder_time = $1
        ORDER BY id ASC`

	return r.selectMany(ctx, query, t.String())
}
