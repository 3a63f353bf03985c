package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPreWakeWindow is used when a target wake time is given without a window.
	DefaultPreWakeWindow = 30 * time.Minute
	MinPreWakeWindow     = 5 * time.Minute
	MaxPreWakeWindow     = 60 * time.Minute
)

// SleepSession is one night of tracking. It owns its samples and stage windows; the
// children only carry the session ID.
type SleepSession struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index:idx_sleep_sessions_user_start" json:"user_id"`
	StartAt        time.Time     `gorm:"not null;index:idx_sleep_sessions_user_start,sort:desc" json:"start_at"`
	EndAt          *time.Time    `json:"end_at,omitempty"`
	TargetWakeAt   *time.Time    `json:"target_wake_at,omitempty"`
	PreWakeWindow  time.Duration `gorm:"type:bigint;not null;default:0" json:"-"`
	ActualWakeAt   *time.Time    `json:"actual_wake_at,omitempty"`
	AlarmTriggered bool          `gorm:"not null;default:false" json:"alarm_triggered"`
	TotalSleep     time.Duration `gorm:"type:bigint;not null;default:0" json:"-"`
	Efficiency     float64       `gorm:"not null;default:0" json:"efficiency"`
	Awakenings     int           `gorm:"not null;default:0" json:"awakenings"`
	Restlessness   float64       `gorm:"not null;default:0" json:"restlessness"`
	LocalTimezone  string        `gorm:"type:varchar(64);not null;default:'UTC'" json:"local_timezone"`
	SyncStatus     SyncStatus    `gorm:"type:varchar(16);not null;default:'pending'" json:"sync_status"`
	SyncError      *string       `gorm:"type:text" json:"sync_error,omitempty"`
	HealthSyncedAt *time.Time    `json:"health_synced_at,omitempty"`
	CloudSyncedAt  *time.Time    `json:"cloud_synced_at,omitempty"`
	SyncAttempts   int           `gorm:"not null;default:0" json:"sync_attempts"`
	NextSyncAt     *time.Time    `gorm:"index" json:"next_sync_at,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	MovementSamples []MovementSample `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	SoundSamples    []SoundSample    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Stages          []StageWindow    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SleepSession) TableName() string {
	return "sleep_sessions"
}

// IsOpen reports whether the session is still being tracked.
func (s *SleepSession) IsOpen() bool {
	return s.EndAt == nil
}

// PreWakeWindowStart returns the start of the smart alarm window, or nil when no alarm was requested.
func (s *SleepSession) PreWakeWindowStart() *time.Time {
	if s.TargetWakeAt == nil {
		return nil
	}
	start := s.TargetWakeAt.Add(-s.PreWakeWindow)
	return &start
}

// Location returns the session's local timezone, falling back to UTC.
func (s *SleepSession) Location() *time.Location {
	if s.LocalTimezone != "" {
		if l, err := time.LoadLocation(s.LocalTimezone); err == nil {
			return l
		}
	}
	return time.UTC
}

// SessionMetrics are the summary statistics derived from a session's stages and samples.
type SessionMetrics struct {
	TotalSleep       time.Duration
	Deep             time.Duration
	REM              time.Duration
	Light            time.Duration
	Awake            time.Duration
	TimeToFallAsleep time.Duration
	Efficiency       float64
	Awakenings       int
	Restlessness     float64
	QualityScore     float64
}

// SessionMetricsResponse is the JSON form of SessionMetrics.
// @Description Sleep quality metrics for a session. Durations are in minutes.
type SessionMetricsResponse struct {
	TotalSleepMinutes       float64 `json:"total_sleep_minutes" example:"421.5"`
	DeepMinutes             float64 `json:"deep_minutes" example:"95"`
	REMMinutes              float64 `json:"rem_minutes" example:"110"`
	LightMinutes            float64 `json:"light_minutes" example:"216.5"`
	AwakeMinutes            float64 `json:"awake_minutes" example:"35"`
	TimeToFallAsleepMinutes float64 `json:"time_to_fall_asleep_minutes" example:"15"`
	// Percentage of time in bed spent asleep (0-100)
	Efficiency float64 `json:"efficiency" example:"92.3"`
	// Number of transitions from sleep into an awake window
	Awakenings int `json:"awakenings" example:"2"`
	// Movement based disturbance score (0-100)
	Restlessness float64 `json:"restlessness" example:"8.4"`
	// Informational overall score (0-100)
	QualityScore float64 `json:"quality_score" example:"81.2"`
}

func (m SessionMetrics) ToResponse() SessionMetricsResponse {
	return SessionMetricsResponse{
		TotalSleepMinutes:       minutes(m.TotalSleep),
		DeepMinutes:             minutes(m.Deep),
		REMMinutes:              minutes(m.REM),
		LightMinutes:            minutes(m.Light),
		AwakeMinutes:            minutes(m.Awake),
		TimeToFallAsleepMinutes: minutes(m.TimeToFallAsleep),
		Efficiency:              m.Efficiency,
		Awakenings:              m.Awakenings,
		Restlessness:            m.Restlessness,
		QualityScore:            m.QualityScore,
	}
}

func minutes(d time.Duration) float64 {
	return math.Round(d.Minutes()*10) / 10
}

// StartSessionRequest is the request body for starting to track a night.
// @Description Request payload for starting a tracking session with an optional smart alarm.
type StartSessionRequest struct {
	// Latest acceptable wake time (RFC3339). Omit to track without an alarm.
	TargetWakeAt *time.Time `json:"target_wake_at,omitempty" example:"2024-01-16T07:00:00Z"`
	// Length of the smart alarm window before the target, in minutes (5-60, default 30)
	PreWakeMinutes int `json:"pre_wake_minutes,omitempty" validate:"omitempty,min=5,max=60" example:"30" minimum:"5" maximum:"60"`
	// Optional IANA timezone for local time display (defaults to user's timezone)
	LocalTimezone *string `json:"local_timezone,omitempty" validate:"omitempty,timezone" example:"Europe/Prague"`
}

// PreWakeWindow returns the requested window length, defaulting when unset.
func (r *StartSessionRequest) PreWakeWindow() time.Duration {
	if r.PreWakeMinutes == 0 {
		return DefaultPreWakeWindow
	}
	return time.Duration(r.PreWakeMinutes) * time.Minute
}

// SessionResponse is the summary form of a session.
// @Description Sleep session summary with UTC and local times.
type SessionResponse struct {
	ID             uuid.UUID  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID         uuid.UUID  `json:"user_id" example:"660e8400-e29b-41d4-a716-446655440001"`
	StartAt        time.Time  `json:"start_at" example:"2024-01-15T23:00:00Z"`
	EndAt          *time.Time `json:"end_at,omitempty" example:"2024-01-16T07:00:00Z"`
	TargetWakeAt   *time.Time `json:"target_wake_at,omitempty" example:"2024-01-16T07:00:00Z"`
	PreWakeMinutes int        `json:"pre_wake_minutes,omitempty" example:"30"`
	ActualWakeAt   *time.Time `json:"actual_wake_at,omitempty" example:"2024-01-16T06:41:00Z"`
	AlarmTriggered bool       `json:"alarm_triggered" example:"true"`
	// Total sleep in minutes
	TotalSleepMinutes float64    `json:"total_sleep_minutes" example:"421.5"`
	Efficiency        float64    `json:"efficiency" example:"92.3"`
	Awakenings        int        `json:"awakenings" example:"2"`
	Restlessness      float64    `json:"restlessness" example:"8.4"`
	SyncStatus        SyncStatus `json:"sync_status" example:"synced"`
	// When the background sweep will mirror the session again
	NextSyncAt    *time.Time `json:"next_sync_at,omitempty" example:"2024-01-16T08:05:00Z"`
	LocalTimezone string     `json:"local_timezone" example:"Europe/Prague"`
	LocalStartAt  time.Time  `json:"local_start_at" example:"2024-01-16T00:00:00+01:00"`
	LocalEndAt    *time.Time `json:"local_end_at,omitempty" example:"2024-01-16T08:00:00+01:00"`
	CreatedAt     time.Time  `json:"created_at" example:"2024-01-15T23:00:00Z"`
}

func (s *SleepSession) ToResponse() SessionResponse {
	loc := s.Location()

	resp := SessionResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		StartAt:           s.StartAt,
		EndAt:             s.EndAt,
		TargetWakeAt:      s.TargetWakeAt,
		ActualWakeAt:      s.ActualWakeAt,
		AlarmTriggered:    s.AlarmTriggered,
		TotalSleepMinutes: minutes(s.TotalSleep),
		Efficiency:        s.Efficiency,
		Awakenings:        s.Awakenings,
		Restlessness:      s.Restlessness,
		SyncStatus:        s.SyncStatus,
		NextSyncAt:        s.NextSyncAt,
		LocalTimezone:     s.LocalTimezone,
		LocalStartAt:      s.StartAt.In(loc),
		CreatedAt:         s.CreatedAt,
	}
	if s.TargetWakeAt != nil {
		resp.PreWakeMinutes = int(s.PreWakeWindow / time.Minute)
	}
	if s.EndAt != nil {
		localEnd := s.EndAt.In(loc)
		resp.LocalEndAt = &localEnd
	}
	return resp
}

// SessionDetailResponse adds stages and full metrics to the summary.
// @Description Finalized session with stage windows and metrics.
type SessionDetailResponse struct {
	SessionResponse
	Metrics SessionMetricsResponse `json:"metrics"`
	Stages  []StageWindow          `json:"stages"`
	// Movement samples recorded during the session
	MovementSampleCount int `json:"movement_sample_count" example:"960"`
	// Sound samples recorded during the session
	SoundSampleCount int `json:"sound_sample_count" example:"960"`
}

// SessionListResponse is the response body for listing sessions.
// @Description Paginated list of sleep sessions.
type SessionListResponse struct {
	Data       []SessionResponse  `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse contains pagination metadata.
// @Description Cursor-based pagination info.
type PaginationResponse struct {
	// Cursor for fetching the next page (empty if no more pages)
	NextCursor string `json:"next_cursor,omitempty" example:"eyJpZCI6IjU1MGU4NDAwLWUyOWItNDFkNC1hNzE2LTQ0NjY1NTQ0MDAwMCJ9"`
	// True if more results are available
	HasMore bool `json:"has_more" example:"true"`
}

// SessionFilter contains filter parameters for listing sessions
type SessionFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Cursor string
}
