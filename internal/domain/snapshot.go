package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackerStatus says whether a user's tracker is recording a session.
type TrackerStatus string

const (
	TrackerIdle     TrackerStatus = "idle"
	TrackerTracking TrackerStatus = "tracking"
)

// AlarmStatus is a point-in-time view of a smart alarm.
// @Description Smart alarm state for the active session.
type AlarmStatus struct {
	// idle, armed, monitoring, triggered or cancelled
	State         string     `json:"state" example:"monitoring"`
	TargetWakeAt  time.Time  `json:"target_wake_at" example:"2024-01-16T07:00:00Z"`
	WindowStartAt time.Time  `json:"window_start_at" example:"2024-01-16T06:30:00Z"`
	TriggeredAt   *time.Time `json:"triggered_at,omitempty" example:"2024-01-16T06:45:00Z"`
	// Set when no light sleep was found and the alarm fired at the target time
	Fallback bool `json:"fallback,omitempty" example:"false"`
}

// TrackerSnapshot is an immutable view of a tracker, published after each state change.
// @Description Live tracking state of a user.
type TrackerSnapshot struct {
	UserID    uuid.UUID     `json:"user_id" example:"660e8400-e29b-41d4-a716-446655440001"`
	Status    TrackerStatus `json:"status" example:"tracking"`
	SessionID *uuid.UUID    `json:"session_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartedAt *time.Time    `json:"started_at,omitempty" example:"2024-01-15T23:00:00Z"`
	// Readings appended to the active session
	MovementCount int `json:"movement_count" example:"640"`
	SoundCount    int `json:"sound_count" example:"640"`
	// Readings received while no session was tracked
	DroppedCount int `json:"dropped_count" example:"0"`
	// Most recent readings
	LastIntensity *float64 `json:"last_intensity,omitempty" example:"0.04"`
	LastDecibels  *float64 `json:"last_decibels,omitempty" example:"28.5"`
	// Windows classified so far, before smoothing
	Stages []StageWindow `json:"stages"`
	Alarm  *AlarmStatus  `json:"alarm,omitempty"`
	// Monotonic per tracker
	Version   uint64    `json:"version" example:"42"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-16T03:12:30Z"`
}
