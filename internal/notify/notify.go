// Package notify delivers smart alarm notifications to the user's devices.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
	"go.uber.org/zap"
)

// Event kinds published on the alarm topic.
const (
	EventReminder = "reminder"
	EventTrigger  = "trigger"
)

// Publisher is the part of the broker client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Message is the JSON body published on <prefix>/<user>/alarm.
type Message struct {
	Event        string    `json:"event"`
	SessionID    uuid.UUID `json:"session_id"`
	At           time.Time `json:"at"`
	TargetWakeAt time.Time `json:"target_wake_at"`
}

const (
	// guardTTL outlives any night, so a session cannot ring twice.
	guardTTL  = 24 * time.Hour
	guardSize = 10_000
)

// guard remembers which sessions already rang.
type guard struct {
	once  sync.Once
	clock otter.Clock
	seen  *otter.Cache[uuid.UUID, struct{}]
}

func (g *guard) cache() *otter.Cache[uuid.UUID, struct{}] {
	g.once.Do(func() {
		g.seen = otter.Must(&otter.Options[uuid.UUID, struct{}]{
			MaximumSize:      guardSize,
			ExpiryCalculator: otter.ExpiryWriting[uuid.UUID, struct{}](guardTTL),
			Clock:            g.clock,
		})
	})
	return g.seen
}

// first reports whether id has not been seen before and marks it.
func (g *guard) first(id uuid.UUID) bool {
	_, inserted := g.cache().SetIfAbsent(id, struct{}{})
	return inserted
}

// forget allows id to ring again, used when delivery failed.
func (g *guard) forget(id uuid.UUID) {
	g.cache().Invalidate(id)
}

// MQTTNotifier publishes alarm events to the user's alarm topic. Trigger is
// idempotent per session.
type MQTTNotifier struct {
	pub    Publisher
	prefix string
	logger *zap.Logger
	rang   guard
}

func NewMQTTNotifier(pub Publisher, prefix string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger,
	}
}

// Topic returns the alarm topic of a user.
func (n *MQTTNotifier) Topic(userID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/alarm", n.prefix, userID)
}

func (n *MQTTNotifier) ScheduleReminder(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	return n.publish(session, EventReminder, at)
}

func (n *MQTTNotifier) Trigger(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	if !n.rang.first(session.ID) {
		n.logger.Warn("alarm already delivered", zap.String("session_id", session.ID.String()))
		return nil
	}
	if err := n.publish(session, EventTrigger, at); err != nil {
		n.rang.forget(session.ID)
		return err
	}
	return nil
}

func (n *MQTTNotifier) publish(session *domain.SleepSession, event string, at time.Time) error {
	msg := Message{Event: event, SessionID: session.ID, At: at}
	if session.TargetWakeAt != nil {
		msg.TargetWakeAt = *session.TargetWakeAt
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alarm %s: %w", event, err)
	}
	if err := n.pub.Publish(n.Topic(session.UserID), 1, false, payload); err != nil {
		return fmt.Errorf("deliver alarm %s: %w", event, err)
	}
	n.logger.Info("alarm event published",
		zap.String("event", event),
		zap.String("session_id", session.ID.String()),
		zap.Time("at", at),
	)
	return nil
}

// LogNotifier only logs alarm events. It is used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
	rang   guard
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ScheduleReminder(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	n.logger.Info("alarm reminder scheduled",
		zap.String("session_id", session.ID.String()),
		zap.Time("at", at),
	)
	return nil
}

func (n *LogNotifier) Trigger(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	if !n.rang.first(session.ID) {
		return nil
	}
	n.logger.Info("alarm ringing",
		zap.String("session_id", session.ID.String()),
		zap.Time("at", at),
	)
	return nil
}
