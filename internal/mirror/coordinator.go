package mirror

import (
	"context"
	"errors"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink is one external store.
type Sink interface {
	Name() string
	Push(ctx context.Context, session *domain.SleepSession) error
}

// RetryConfig bounds the in-process retries of one sink.
type RetryConfig struct {
	Attempts  uint
	BaseDelay time.Duration
	// MaxDelay is the longest wait between attempts. A server requested delay above it
	// ends the run and is reported instead.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the production retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 4, BaseDelay: 2 * time.Second, MaxDelay: 2 * time.Minute}
}

// Coordinator mirrors sessions to the health and cloud sinks concurrently.
type Coordinator struct {
	health Sink
	cloud  Sink
	cfg    RetryConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewCoordinator returns a coordinator. A nil sink is reported as disabled.
func NewCoordinator(health, cloud Sink, cfg RetryConfig, logger *zap.Logger) *Coordinator {
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	return &Coordinator{
		health: health,
		cloud:  cloud,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// Sync pushes a finalized session to both sinks and reports the outcome. It never
// returns an error: failures are described in the report.
func (c *Coordinator) Sync(ctx context.Context, session *domain.SleepSession) domain.SyncReport {
	report := domain.SyncReport{SessionID: session.ID}

	var g errgroup.Group
	g.Go(func() error {
		report.Health = c.push(ctx, c.health, session)
		return nil
	})
	g.Go(func() error {
		report.Cloud = c.push(ctx, c.cloud, session)
		return nil
	})
	_ = g.Wait()

	c.logger.Info("session mirrored",
		zap.String("session_id", session.ID.String()),
		zap.String("health", string(report.Health.Status)),
		zap.String("cloud", string(report.Cloud.Status)),
	)
	return report
}

func (c *Coordinator) push(ctx context.Context, sink Sink, session *domain.SleepSession) domain.SinkResult {
	if sink == nil {
		return domain.SinkResult{Status: domain.SyncDisabled}
	}

	var attempts int
	err := retry.Do(
		func() error {
			attempts++
			err := sink.Push(ctx, session)
			if err == nil {
				return nil
			}
			se := Classify(sink.Name(), err)
			if !se.Kind.Transient() || se.RetryAfter > c.cfg.MaxDelay {
				return retry.Unrecoverable(se)
			}
			return se
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(c.cfg.BaseDelay),
		retry.MaxDelay(c.cfg.MaxDelay),
		retry.DelayType(c.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying mirror push",
				zap.String("sink", sink.Name()),
				zap.String("session_id", session.ID.String()),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)

	if err == nil {
		at := c.now()
		return domain.SinkResult{Status: domain.SyncSynced, SyncedAt: &at, Attempts: attempts}
	}

	se := Classify(sink.Name(), err)
	c.logger.Error("mirror push failed",
		zap.String("sink", sink.Name()),
		zap.String("session_id", session.ID.String()),
		zap.String("kind", string(se.Kind)),
		zap.Duration("retry_after", se.RetryAfter),
		zap.Int("attempts", attempts),
		zap.Error(se.Err),
	)

	res := domain.SinkResult{
		Status:            domain.SyncFailed,
		Attempts:          attempts,
		FailureKind:       string(se.Kind),
		RetryAfterSeconds: se.RetryAfter.Seconds(),
		Retryable:         se.Kind.Transient(),
		Error:             se.Error(),
	}
	if se.Kind == KindPartialFailure {
		res.Status = domain.SyncPartial
	}
	return res
}

// delay backs off exponentially but never waits less than the server asked for.
func (c *Coordinator) delay(n uint, err error, config *retry.Config) time.Duration {
	d := retry.BackOffDelay(n, err, config)
	var se *SyncError
	if errors.As(err, &se) && se.RetryAfter > d {
		return se.RetryAfter
	}
	return d
}
