package repository

import (
	"context"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func newDomainHabit(t *testing.T, userID, name string, created time.Time) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(userID, created)
	require.NoError(t, err)
	require.NoError(t, h.Rename(name, created))
	return h
}

func TestInMemoryHabitRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryHabitRepository()

	first := newDomainHabit(t, "u1", "First", base)
	second := newDomainHabit(t, "u1", "Second", base.Add(time.Minute))
	other := newDomainHabit(t, "u2", "Other", base)

	for _, h := range []*domain.Habit{second, first, other} {
		require.NoError(t, repo.Create(ctx, h))
	}

	t.Run("List is scoped and ordered by creation", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "First", list[0].Name)
		assert.Equal(t, "Second", list[1].Name)
	})

	t.Run("Reads are isolated copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)

		_, err = got.ToggleDay(0, base)
		require.NoError(t, err)

		again, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, again.TrackedDates.Len())
	})

	t.Run("Update bumps version and rejects stale copies", func(t *testing.T) {
		a, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		b, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)

		require.NoError(t, a.Rename("A wins", base))
		require.NoError(t, repo.Update(ctx, a))
		assert.Equal(t, 2, a.Version)

		require.NoError(t, b.Rename("B loses", base))
		assert.ErrorIs(t, repo.Update(ctx, b), domain.ErrHabitConflict)

		stored, _ := repo.GetByID(ctx, first.ID)
		assert.Equal(t, "A wins", stored.Name)
	})

	t.Run("Due reminders match the exact minute", func(t *testing.T) {
		h, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.NoError(t, h.SetReminder(true, &domain.TimeOfDay{Hour: 8, Minute: 0}, base))
		require.NoError(t, repo.Update(ctx, h))

		due, err := repo.ListDueReminders(ctx, domain.TimeOfDay{Hour: 8, Minute: 0})
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, second.ID, due[0].ID)

		due, err = repo.ListDueReminders(ctx, domain.TimeOfDay{Hour: 8, Minute: 1})
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("Missing habit", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Update(ctx, &domain.Habit{ID: "ghost"}), domain.ErrHabitNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "ghost"), domain.ErrHabitNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, other.ID))
		list, err := repo.ListByUserID(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	user, err := domain.NewUser("id-1", "Someone@Kanso.app")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, " someone@kanso.app ")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)

	dup, _ := domain.NewUser("id-2", "someone@kanso.app")
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailAlreadyExists)

	_, err = repo.GetByID(ctx, "id-2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@kanso.app")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
