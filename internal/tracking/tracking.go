// Package tracking owns the sessions being recorded. Each user has one Tracker whose
// state is only touched by the tracker's loop goroutine; sensor callbacks, timers and
// API calls are marshaled onto that loop as closures.
package tracking

import (
	"context"
	"time"

	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
)

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, session *domain.SleepSession) error
	AppendSamples(ctx context.Context, sessionID uuid.UUID, movement []domain.MovementSample, sound []domain.SoundSample) error
	// Finalize writes the session summary fields and its stage windows, together with any
	// samples that were not appended yet.
	Finalize(ctx context.Context, session *domain.SleepSession, movement []domain.MovementSample, sound []domain.SoundSample) error
	MarkSynced(ctx context.Context, session *domain.SleepSession) error
}

// Mirror pushes a finalized session to the external health and cloud stores.
type Mirror interface {
	Sync(ctx context.Context, session *domain.SleepSession) domain.SyncReport
}

// Notifier delivers alarm notifications.
type Notifier interface {
	ScheduleReminder(ctx context.Context, session *domain.SleepSession, at time.Time) error
	Trigger(ctx context.Context, session *domain.SleepSession, at time.Time) error
}

// Publisher mirrors snapshots outside the process.
type Publisher interface {
	Publish(ctx context.Context, snap domain.TrackerSnapshot) error
}

// Config holds the tracker cadences.
type Config struct {
	SampleInterval     time.Duration
	SaveInterval       time.Duration
	AlarmCheckInterval time.Duration
	// Timeout for background work started by the tracker (saves, sync, notifications).
	IOTimeout time.Duration
}

// DefaultConfig returns the production cadences.
func DefaultConfig() Config {
	return Config{
		SampleInterval:     30 * time.Second,
		SaveInterval:       5 * time.Minute,
		AlarmCheckInterval: 60 * time.Second,
		IOTimeout:          30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = d.SaveInterval
	}
	if c.AlarmCheckInterval <= 0 {
		c.AlarmCheckInterval = d.AlarmCheckInterval
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = d.IOTimeout
	}
	return c
}

// StartParams are the options of a new session.
type StartParams struct {
	TargetWake    *time.Time
	PreWakeWindow time.Duration
	LocalTimezone string
}

// Result is a finalized session together with its metrics.
type Result struct {
	Session *domain.SleepSession
	Metrics domain.SessionMetrics
}

// Finalize estimates the stages of a session ending at end and fills in its summary fields.
func Finalize(session *domain.SleepSession, end time.Time) domain.SessionMetrics {
	session.EndAt = &end
	session.Stages = analysis.Estimate(session.MovementSamples, session.SoundSamples, session.StartAt, end)
	for i := range session.Stages {
		session.Stages[i].SessionID = session.ID
	}

	m := analysis.ComputeMetrics(session, end)
	session.TotalSleep = m.TotalSleep
	session.Efficiency = m.Efficiency
	session.Awakenings = m.Awakenings
	session.Restlessness = m.Restlessness
	return m
}
