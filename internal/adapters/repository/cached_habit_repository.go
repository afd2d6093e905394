package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const userHabitsKeyPrefix = "habits:"

// CachedHabitRepository keeps each user's habit list in Redis. Writes evict
// the owner's list; single-habit reads and the reminder scan always go to next
// so the version check never sees a stale copy.
type CachedHabitRepository struct {
	next domain.HabitRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedHabitRepository(next domain.HabitRepository, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedHabitRepository {
	return &CachedHabitRepository{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.Named("habit_cache"),
	}
}

func userHabitsKey(userID string) string {
	return userHabitsKeyPrefix + userID
}

// lookup reports whether key held a decodable list. Any Redis problem is a miss.
func (r *CachedHabitRepository) lookup(ctx context.Context, key string) ([]*domain.Habit, bool) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	if err != nil {
		r.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		metrics.IncrementCacheLookup("error")
		return nil, false
	}

	var habits []*domain.Habit
	if err := json.Unmarshal(raw, &habits); err != nil {
		r.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		r.rdb.Del(ctx, key)
		metrics.IncrementCacheLookup("error")
		return nil, false
	}

	metrics.IncrementCacheLookup("hit")
	return habits, true
}

func (r *CachedHabitRepository) store(ctx context.Context, key string, habits []*domain.Habit) {
	payload, err := json.Marshal(habits)
	if err != nil {
		r.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedHabitRepository) evict(ctx context.Context, userID string) {
	if err := r.rdb.Del(ctx, userHabitsKey(userID)).Err(); err != nil {
		r.log.Warn("cache eviction failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := userHabitsKey(userID)
	if habits, ok := r.lookup(ctx, key); ok {
		return habits, nil
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, habits)
	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListDueReminders(ctx context.Context, at domain.TimeOfDay) ([]*domain.Habit, error) {
	return r.next.ListDueReminders(ctx, at)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.evict(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.evict(ctx, habit.UserID)
	return nil
}

// Delete needs the owner to evict, so it reads the habit first.
func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	owner := ""
	if habit, err := r.next.GetByID(ctx, id); err == nil {
		owner = habit.UserID
	}

	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	if owner != "" {
		r.evict(ctx, owner)
	}
	return nil
}
