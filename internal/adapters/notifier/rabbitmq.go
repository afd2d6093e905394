package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ domain.ReminderPublisher = (*RabbitPublisher)(nil)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends reminder events to a durable topic exchange. The
// routing key is the event type, e.g. "reminder.due".
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *zap.Logger

	mu sync.Mutex
}

func NewRabbitPublisher(url, exchange string, log *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return newRabbitPublisher(conn, ch, exchange, log), nil
}

func newRabbitPublisher(conn *amqp.Connection, ch channel, exchange string, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		log:      log.Named("rabbitmq"),
	}
}

func encodeEvent(event domain.ReminderEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode reminder event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Type:         string(event.Type),
		Body:         body,
	}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event domain.ReminderEvent) error {
	msg, err := encodeEvent(event, time.Now())
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish %s for habit %s: %w", event.Type, event.HabitID, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is still open.
func (p *RabbitPublisher) IsConnected() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			p.log.Warn("failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Warn("failed to close connection", zap.Error(err))
		}
	}
}
