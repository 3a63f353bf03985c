package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the mirroring state of a finalized session.
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncPartial  SyncStatus = "partial"
	SyncFailed   SyncStatus = "failed"
	SyncDisabled SyncStatus = "disabled"
)

const (
	// MinResyncBackoff is the wait before the first automatic resync of a failed session.
	MinResyncBackoff = time.Minute
	MaxResyncBackoff = 6 * time.Hour
)

// SinkResult is the outcome of pushing a session to one mirror.
// @Description Result of mirroring a session to one sink.
type SinkResult struct {
	Status   SyncStatus `json:"status" example:"synced"`
	SyncedAt *time.Time `json:"synced_at,omitempty" example:"2024-01-16T07:05:00Z"`
	Attempts int        `json:"attempts" example:"1"`
	// Failure category: quota_exceeded, network_unavailable, account_unavailable, server_error, partial_failure
	FailureKind string `json:"failure_kind,omitempty" example:"network_unavailable"`
	// Server requested delay before the next attempt, in seconds
	RetryAfterSeconds float64 `json:"retry_after_seconds,omitempty" example:"30"`
	// True when a later attempt can succeed without user action
	Retryable bool   `json:"retryable,omitempty" example:"true"`
	Error     string `json:"error,omitempty"`
}

func (r SinkResult) failed() bool {
	return r.Status == SyncFailed || r.Status == SyncPartial
}

// SyncReport collects the mirror results for one session.
// @Description Outcome of mirroring a session to the health store and the cloud store.
type SyncReport struct {
	SessionID uuid.UUID  `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Health    SinkResult `json:"health"`
	Cloud     SinkResult `json:"cloud"`
}

// Status folds the per-sink results into one session status.
func (r SyncReport) Status() SyncStatus {
	var synced, failed int
	for _, res := range []SinkResult{r.Health, r.Cloud} {
		switch res.Status {
		case SyncSynced:
			synced++
		case SyncFailed, SyncPartial:
			failed++
		}
	}
	switch {
	case synced == 0 && failed == 0:
		return SyncDisabled
	case failed == 0:
		return SyncSynced
	case synced == 0:
		return SyncFailed
	default:
		return SyncPartial
	}
}

// ErrorSummary joins the sink errors, or returns nil when nothing failed.
func (r SyncReport) ErrorSummary() *string {
	var msg string
	if r.Health.Error != "" {
		msg = "health: " + r.Health.Error
	}
	if r.Cloud.Error != "" {
		if msg != "" {
			msg += "; "
		}
		msg += "cloud: " + r.Cloud.Error
	}
	if msg == "" {
		return nil
	}
	return &msg
}

// RetryDelay returns how long to wait before mirroring again after the attempt-th
// failed run. ok is false when nothing failed or no failure can clear on its own.
func (r SyncReport) RetryDelay(attempt int) (d time.Duration, ok bool) {
	for _, res := range []SinkResult{r.Health, r.Cloud} {
		if !res.failed() || !res.Retryable {
			continue
		}
		ok = true
		d = max(d, time.Duration(res.RetryAfterSeconds*float64(time.Second)))
	}
	if !ok {
		return 0, false
	}
	return max(d, ResyncBackoff(attempt)), true
}

// ResyncBackoff doubles from MinResyncBackoff per failed attempt up to MaxResyncBackoff.
func ResyncBackoff(attempt int) time.Duration {
	d := MinResyncBackoff
	for i := 1; i < attempt && d < MaxResyncBackoff; i++ {
		d *= 2
	}
	return min(d, MaxResyncBackoff)
}

// ApplySyncReport records the outcome of a mirror run on the session and schedules the
// next automatic attempt.
func (s *SleepSession) ApplySyncReport(r SyncReport, now time.Time) {
	s.SyncStatus = r.Status()
	s.SyncError = r.ErrorSummary()
	s.NextSyncAt = nil
	switch s.SyncStatus {
	case SyncSynced, SyncDisabled:
		s.SyncAttempts = 0
	default:
		s.SyncAttempts++
		if d, ok := r.RetryDelay(s.SyncAttempts); ok {
			next := now.Add(d)
			s.NextSyncAt = &next
		}
	}
	if r.Health.SyncedAt != nil {
		s.HealthSyncedAt = r.Health.SyncedAt
	}
	if r.Cloud.SyncedAt != nil {
		s.CloudSyncedAt = r.Cloud.SyncedAt
	}
}

// DueForResync reports whether the background sweep should mirror the session at now.
// A pending session is left alone until settledBefore so the run started at
// finalization can finish. Failed runs wait for NextSyncAt; without one they need a
// manual sync.
func (s *SleepSession) DueForResync(now, settledBefore time.Time) bool {
	if s.EndAt == nil {
		return false
	}
	switch s.SyncStatus {
	case SyncPending:
		if s.NextSyncAt == nil {
			return !s.EndAt.After(settledBefore)
		}
	case SyncFailed, SyncPartial:
		if s.NextSyncAt == nil {
			return false
		}
	default:
		return false
	}
	return !s.NextSyncAt.After(now)
}
