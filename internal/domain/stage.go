package domain

import (
	"time"

	"github.com/google/uuid"
)

// SleepStage is the classification assigned to a stage window.
// @Description Estimated sleep stage: awake, light, deep or rem.
type SleepStage string

const (
	StageAwake SleepStage = "awake"
	StageLight SleepStage = "light"
	StageDeep  SleepStage = "deep"
	StageREM   SleepStage = "rem"
)

// IsAsleep reports whether the stage counts towards total sleep.
func (s SleepStage) IsAsleep() bool {
	return s == StageLight || s == StageDeep || s == StageREM
}

// StageWindow is one classified slice of a session. Windows reference their session
// by ID only.
type StageWindow struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_stage_windows_session_start" json:"-"`
	StartAt   time.Time  `gorm:"not null;index:idx_stage_windows_session_start" json:"start_at"`
	EndAt     time.Time  `gorm:"not null" json:"end_at"`
	Stage     SleepStage `gorm:"type:varchar(8);not null" json:"stage"`
}

func (StageWindow) TableName() string {
	return "stage_windows"
}

// Duration returns EndAt - StartAt.
func (w StageWindow) Duration() time.Duration {
	return w.EndAt.Sub(w.StartAt)
}
