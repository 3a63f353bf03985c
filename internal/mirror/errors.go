// Package mirror copies finalized sessions to the health data store and the personal
// cloud store. Mirroring is best effort: failures are categorized and reported, never
// propagated into the tracking pipeline.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// FailureKind categorizes a mirror failure.
type FailureKind string

const (
	KindQuotaExceeded      FailureKind = "quota_exceeded"
	KindNetworkUnavailable FailureKind = "network_unavailable"
	KindAccountUnavailable FailureKind = "account_unavailable"
	KindServerError        FailureKind = "server_error"
	KindPartialFailure     FailureKind = "partial_failure"
	// KindRejected is a request the remote store refused as invalid.
	KindRejected FailureKind = "rejected"
)

// Transient reports whether a later attempt can succeed without user action.
func (k FailureKind) Transient() bool {
	switch k {
	case KindQuotaExceeded, KindNetworkUnavailable, KindServerError, KindPartialFailure:
		return true
	default:
		return false
	}
}

// SyncError is a categorized failure of one sink.
type SyncError struct {
	Sink string
	Kind FailureKind
	// RetryAfter is the delay requested by the remote store, zero when none was given.
	RetryAfter time.Duration
	Err        error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Sink, e.Kind)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Classify returns err as a SyncError, categorizing unknown errors by their cause.
func Classify(sink string, err error) *SyncError {
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}

	kind := KindServerError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		kind = KindNetworkUnavailable
	}
	return &SyncError{Sink: sink, Kind: kind, Err: err}
}
