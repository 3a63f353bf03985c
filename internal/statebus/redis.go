// Package statebus mirrors tracker snapshots into Redis so that other processes can
// read the latest state of a user's tracker and follow its updates.
package statebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	go_json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix = "sleep:tracker:"
	updatesSuffix     = ":updates"
	DefaultTTL        = 24 * time.Hour
)

// Connect parses url and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisBus stores the latest snapshot per user and publishes every update.
type RedisBus struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBus(client *redis.Client, ttl time.Duration) *RedisBus {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBus{client: client, ttl: ttl}
}

// SnapshotKey is the key holding the latest snapshot of userID.
func SnapshotKey(userID uuid.UUID) string {
	return snapshotKeyPrefix + userID.String()
}

// UpdatesChannel is the pub/sub channel carrying every snapshot of userID.
func UpdatesChannel(userID uuid.UUID) string {
	return snapshotKeyPrefix + userID.String() + updatesSuffix
}

// Publish implements tracking.Publisher.
func (b *RedisBus) Publish(ctx context.Context, snap domain.TrackerSnapshot) error {
	data, err := go_json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(snap.UserID), data, b.ttl)
	pipe.Publish(ctx, UpdatesChannel(snap.UserID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Latest returns the last published snapshot of userID.
func (b *RedisBus) Latest(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error) {
	data, err := b.client.Get(ctx, SnapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.TrackerSnapshot
	if err := go_json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Follow delivers the snapshots of userID published after the call until ctx is done.
// The returned channel is closed when the subscription ends.
func (b *RedisBus) Follow(ctx context.Context, userID uuid.UUID) (<-chan domain.TrackerSnapshot, error) {
	sub := b.client.Subscribe(ctx, UpdatesChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to snapshots: %w", err)
	}

	out := make(chan domain.TrackerSnapshot, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var snap domain.TrackerSnapshot
				if err := go_json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
