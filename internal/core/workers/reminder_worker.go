package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 100
	minCatchUp       = 15 * time.Minute
)

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	ListDueReminders(ctx context.Context, t domain.TimeOfDay) ([]*domain.Habit, error)
}

type ReminderJob struct {
	HabitID string
	UserID  string
}

// ReminderWorker keeps the notification side in step with habit reminders.
// Enqueued jobs publish a scheduled or cancelled event for one habit; every
// tick publishes a due event for each habit whose reminder matches the
// current minute.
type ReminderWorker struct {
	habitRepo HabitRepository
	publisher domain.ReminderPublisher
	log       *zap.Logger
	loc       *time.Location
	tick      time.Duration
	catchUp   time.Duration
	clock     func() time.Time

	jobs chan ReminderJob
	wg   sync.WaitGroup

	lastDispatch time.Time
}

func NewReminderWorker(repo HabitRepository, publisher domain.ReminderPublisher, log *zap.Logger, loc *time.Location, tick time.Duration) *ReminderWorker {
	if loc == nil {
		loc = time.UTC
	}
	if tick <= 0 {
		tick = time.Minute
	}
	return &ReminderWorker{
		habitRepo: repo,
		publisher: publisher,
		log:       log.Named("reminder_worker"),
		loc:       loc,
		tick:      tick,
		catchUp:   max(minCatchUp, 2*tick),
		clock:     time.Now,
		jobs:      make(chan ReminderJob, defaultQueueSize),
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.tick)
		defer ticker.Stop()

		w.log.Info("reminder worker started", zap.Duration("tick", w.tick))
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ticker.C:
				w.dispatchOnce(ctx, w.clock())
			case <-ctx.Done():
				w.log.Info("reminder worker shutting down")
				return
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned.
func (w *ReminderWorker) Wait() {
	w.wg.Wait()
}

// Enqueue never blocks; a full queue drops the job.
func (w *ReminderWorker) Enqueue(habitID, userID string) {
	select {
	case w.jobs <- ReminderJob{HabitID: habitID, UserID: userID}:
	default:
		w.log.Warn("reminder queue full, dropping job",
			zap.String("habit_id", habitID),
			zap.String("user_id", userID),
		)
	}
}

func (w *ReminderWorker) processJob(ctx context.Context, job ReminderJob) {
	event := domain.ReminderEvent{
		Type:    domain.ReminderCancelled,
		HabitID: job.HabitID,
		UserID:  job.UserID,
	}

	habit, err := w.habitRepo.GetByID(ctx, job.HabitID)
	switch {
	case errors.Is(err, domain.ErrHabitNotFound):
		// deleted; cancel whatever was scheduled
	case err != nil:
		w.log.Error("failed to load habit for reminder",
			zap.String("habit_id", job.HabitID),
			zap.Error(err),
		)
		return
	case habit.ReminderEnabled && habit.ReminderTime != nil:
		event.Type = domain.ReminderScheduled
		event.ReminderTime = habit.ReminderTime.String()
	}

	w.publish(ctx, event)
}

// dispatchOnce runs DispatchDue for every wall-clock minute after the previous
// run up to the minute of now, each minute once. The first run, or a gap wider
// than the catch-up window, only covers the current minute.
func (w *ReminderWorker) dispatchOnce(ctx context.Context, now time.Time) {
	minute := now.In(w.loc).Truncate(time.Minute)
	if !minute.After(w.lastDispatch) {
		return
	}

	from := w.lastDispatch.Add(time.Minute)
	if w.lastDispatch.IsZero() || minute.Sub(w.lastDispatch) > w.catchUp {
		from = minute
	}
	w.lastDispatch = minute

	for m := from; !m.After(minute); m = m.Add(time.Minute) {
		if _, err := w.DispatchDue(ctx, m); err != nil {
			w.log.Error("failed to dispatch due reminders", zap.Time("minute", m), zap.Error(err))
		}
	}
}

// DispatchDue publishes a due event for every reminder set to the minute of
// now and returns how many were published.
func (w *ReminderWorker) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	local := now.In(w.loc)
	at := domain.TimeOfDayOf(local)

	habits, err := w.habitRepo.ListDueReminders(ctx, at)
	if err != nil {
		return 0, err
	}

	fireAt := at.On(local)
	sent := 0
	for _, h := range habits {
		n := h.Notification(fireAt)
		event := domain.ReminderEvent{
			Type:         domain.ReminderDue,
			HabitID:      h.ID,
			UserID:       h.UserID,
			ReminderTime: at.String(),
			Notification: &n,
		}
		if w.publish(ctx, event) {
			sent++
		}
	}

	if sent > 0 {
		w.log.Info("reminders dispatched", zap.String("at", at.String()), zap.Int("count", sent))
	}
	return sent, nil
}

func (w *ReminderWorker) publish(ctx context.Context, event domain.ReminderEvent) bool {
	err := w.publisher.Publish(ctx, event)
	metrics.IncrementReminderPublished(string(event.Type), err)
	if err != nil {
		w.log.Error("failed to publish reminder event",
			zap.String("type", string(event.Type)),
			zap.String("habit_id", event.HabitID),
			zap.Error(err),
		)
		return false
	}

	w.log.Debug("reminder event published",
		zap.String("type", string(event.Type)),
		zap.String("habit_id", event.HabitID),
	)
	return true
}
