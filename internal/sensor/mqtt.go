// Package sensor contains the sources that feed readings into the trackers: an MQTT
// subscriber for real devices and a simulator for demos and offline runs.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blaisecz/smart-sleep/internal/broker"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives readings for a user.
type Sink interface {
	Record(ctx context.Context, userID uuid.UUID, readings ...domain.Reading) error
}

// Subscriber is the part of the broker client the source needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler broker.MessageHandler) error
}

// Publisher is the part of the broker client a device needs to send readings.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Payload is the JSON body of a reading message.
type Payload struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     float64    `json:"value"`
}

var errBadTopic = errors.New("unexpected topic")

// MQTTSource subscribes to <prefix>/+/movement and <prefix>/+/sound and forwards each
// reading to the sink of the user named in the topic.
type MQTTSource struct {
	sub     Subscriber
	sink    Sink
	prefix  string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewMQTTSource(sub Subscriber, sink Sink, prefix string, logger *zap.Logger) *MQTTSource {
	return &MQTTSource{
		sub:     sub,
		sink:    sink,
		prefix:  strings.TrimSuffix(prefix, "/"),
		timeout: 5 * time.Second,
		now:     time.Now,
		logger:  logger,
	}
}

// Start subscribes to both channels.
func (s *MQTTSource) Start() error {
	for _, kind := range []domain.SampleKind{domain.SampleMovement, domain.SampleSound} {
		topic := fmt.Sprintf("%s/+/%s", s.prefix, kind)
		if err := s.sub.Subscribe(topic, 1, s.handle); err != nil {
			return err
		}
		s.logger.Info("subscribed to sensor topic", zap.String("topic", topic))
	}
	return nil
}

func (s *MQTTSource) handle(topic string, payload []byte) {
	userID, kind, err := ParseTopic(s.prefix, topic)
	if err != nil {
		s.logger.Warn("ignoring sensor message", zap.String("topic", topic), zap.Error(err))
		return
	}

	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("invalid sensor payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	r := domain.Reading{Kind: kind, Timestamp: s.now(), Value: p.Value}
	if p.Timestamp != nil {
		r.Timestamp = *p.Timestamp
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.sink.Record(ctx, userID, r); err != nil {
		s.logger.Warn("failed to record reading",
			zap.String("user_id", userID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// Topic is the channel a device publishes kind readings of userID on.
func Topic(prefix string, userID uuid.UUID, kind domain.SampleKind) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(prefix, "/"), userID, kind)
}

// ParseTopic extracts the user and channel from <prefix>/<user>/<kind>.
func ParseTopic(prefix, topic string) (uuid.UUID, domain.SampleKind, error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return uuid.Nil, "", fmt.Errorf("%w: %s", errBadTopic, topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return uuid.Nil, "", fmt.Errorf("%w: %s", errBadTopic, topic)
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: user id: %v", errBadTopic, err)
	}
	kind := domain.SampleKind(parts[1])
	if kind != domain.SampleMovement && kind != domain.SampleSound {
		return uuid.Nil, "", fmt.Errorf("%w: channel %q", errBadTopic, parts[1])
	}
	return userID, kind, nil
}
