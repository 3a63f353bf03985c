package domain

import (
	"time"

	"github.com/google/uuid"
)

// SampleKind identifies the sensor channel a reading came from.
type SampleKind string

const (
	SampleMovement SampleKind = "movement"
	SampleSound    SampleKind = "sound"
)

const (
	MaxIntensity = 1.0
	MaxDecibels  = 100.0
)

// MovementSample is a single motion intensity reading in [0,1].
type MovementSample struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_movement_samples_session_ts" json:"-"`
	Timestamp time.Time `gorm:"not null;index:idx_movement_samples_session_ts" json:"timestamp"`
	Intensity float64   `gorm:"not null" json:"intensity"`
}

func (MovementSample) TableName() string {
	return "movement_samples"
}

// SoundSample is a single ambient sound level reading in dB, [0,100].
type SoundSample struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_sound_samples_session_ts" json:"-"`
	Timestamp time.Time `gorm:"not null;index:idx_sound_samples_session_ts" json:"timestamp"`
	Decibels  float64   `gorm:"not null" json:"decibels"`
}

func (SoundSample) TableName() string {
	return "sound_samples"
}

// Reading is a raw sensor value as delivered by a sensor source, before it is
// attached to a session.
type Reading struct {
	Kind      SampleKind
	Timestamp time.Time
	Value     float64
}

// Clamped returns the reading with its value forced into the channel's range.
func (r Reading) Clamped() Reading {
	upper := MaxIntensity
	if r.Kind == SampleSound {
		upper = MaxDecibels
	}
	r.Value = min(max(r.Value, 0), upper)
	return r
}

// SampleInput is one reading in a sample upload.
// @Description A single sensor reading.
type SampleInput struct {
	// Sensor channel
	Kind SampleKind `json:"kind" validate:"required,oneof=movement sound" example:"movement" enums:"movement,sound"`
	// Reading time (RFC3339). Defaults to the time the server receives it.
	Timestamp *time.Time `json:"timestamp,omitempty" example:"2024-01-16T02:30:00Z"`
	// Intensity in [0,1] for movement, decibels in [0,100] for sound
	Value float64 `json:"value" validate:"min=0,max=100" example:"0.12"`
}

// RecordSamplesRequest is the request body for uploading readings to the active session.
// @Description Batch of sensor readings for the active session.
type RecordSamplesRequest struct {
	Samples []SampleInput `json:"samples" validate:"required,min=1,max=1000,dive"`
}

// RecordSamplesResponse reports how many readings were accepted.
// @Description Outcome of a sample upload.
type RecordSamplesResponse struct {
	// Readings appended to the active session
	Accepted int `json:"accepted" example:"20"`
	// Readings dropped because no session was being tracked
	Dropped int `json:"dropped" example:"0"`
}
