package notifier

import (
	"context"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"go.uber.org/zap"
)

var _ domain.ReminderPublisher = (*LogPublisher)(nil)

// LogPublisher writes reminder events to the log. It stands in for the
// broker when none is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("reminders")}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.ReminderEvent) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.String("habit_id", event.HabitID),
		zap.String("user_id", event.UserID),
	}
	if event.ReminderTime != "" {
		fields = append(fields, zap.String("reminder_time", event.ReminderTime))
	}
	if n := event.Notification; n != nil {
		fields = append(fields,
			zap.String("title", n.Title),
			zap.String("body", n.Body),
			zap.Time("fire_at", n.FireAt),
		)
	}

	p.log.Info("reminder event", fields...)
	return nil
}
