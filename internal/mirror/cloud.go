package mirror

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloudRecord is the document stored in the personal cloud store.
type CloudRecord struct {
	ID                uuid.UUID    `json:"id"`
	UserID            uuid.UUID    `json:"user_id"`
	StartAt           time.Time    `json:"start_at"`
	EndAt             time.Time    `json:"end_at"`
	TargetWakeAt      *time.Time   `json:"target_wake_at,omitempty"`
	ActualWakeAt      *time.Time   `json:"actual_wake_at,omitempty"`
	AlarmTriggered    bool         `json:"alarm_triggered"`
	TotalSleepSeconds int64        `json:"total_sleep_seconds"`
	Efficiency        float64      `json:"efficiency"`
	Awakenings        int          `json:"awakenings"`
	Restlessness      float64      `json:"restlessness"`
	Timezone          string       `json:"timezone"`
	Stages            []CloudStage `json:"stages"`
}

// CloudStage is one stage window inside a CloudRecord.
type CloudStage struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Stage   string    `json:"stage"`
}

// cloudResponse is the body returned by the store on success.
type cloudResponse struct {
	ID             string `json:"id"`
	RejectedStages int    `json:"rejected_stages"`
}

// cloudError is the body returned by the store on failure.
type cloudError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CloudSink stores sessions in the personal cloud store with PUT /records/{id}.
// The call is idempotent, so retries never duplicate a record.
type CloudSink struct {
	client *resty.Client
	logger *zap.Logger
}

func NewCloudSink(baseURL, token string, timeout time.Duration, logger *zap.Logger) *CloudSink {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &CloudSink{client: client, logger: logger}
}

func (s *CloudSink) Name() string {
	return "cloud"
}

func (s *CloudSink) Push(ctx context.Context, session *domain.SleepSession) error {
	var (
		result  cloudResponse
		failure cloudError
	)
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", session.ID.String()).
		SetBody(NewCloudRecord(session)).
		SetResult(&result).
		SetError(&failure).
		Put("/records/{id}")
	if err != nil {
		return &SyncError{Sink: s.Name(), Kind: KindNetworkUnavailable, Err: err}
	}

	if resp.IsSuccess() {
		if result.RejectedStages > 0 || resp.StatusCode() == http.StatusMultiStatus {
			return &SyncError{
				Sink: s.Name(),
				Kind: KindPartialFailure,
				Err:  fmt.Errorf("%d stage windows rejected", result.RejectedStages),
			}
		}
		s.logger.Debug("cloud record stored", zap.String("session_id", session.ID.String()))
		return nil
	}

	se := &SyncError{
		Sink:       s.Name(),
		Kind:       kindForStatus(resp.StatusCode()),
		RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"), time.Now()),
		Err:        fmt.Errorf("status %d: %s", resp.StatusCode(), failureMessage(failure, resp)),
	}
	return se
}

// NewCloudRecord maps a finalized session to its cloud document.
func NewCloudRecord(session *domain.SleepSession) CloudRecord {
	rec := CloudRecord{
		ID:                session.ID,
		UserID:            session.UserID,
		StartAt:           session.StartAt,
		TargetWakeAt:      session.TargetWakeAt,
		ActualWakeAt:      session.ActualWakeAt,
		AlarmTriggered:    session.AlarmTriggered,
		TotalSleepSeconds: int64(session.TotalSleep / time.Second),
		Efficiency:        session.Efficiency,
		Awakenings:        session.Awakenings,
		Restlessness:      session.Restlessness,
		Timezone:          session.LocalTimezone,
		Stages:            make([]CloudStage, len(session.Stages)),
	}
	if session.EndAt != nil {
		rec.EndAt = *session.EndAt
	}
	for i, w := range session.Stages {
		rec.Stages[i] = CloudStage{StartAt: w.StartAt, EndAt: w.EndAt, Stage: string(w.Stage)}
	}
	return rec
}

func kindForStatus(code int) FailureKind {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusInsufficientStorage, code == http.StatusRequestEntityTooLarge:
		return KindQuotaExceeded
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusPaymentRequired:
		return KindAccountUnavailable
	case code == http.StatusBadGateway, code == http.StatusGatewayTimeout:
		return KindNetworkUnavailable
	case code >= 500:
		return KindServerError
	default:
		return KindRejected
	}
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP date form.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func failureMessage(failure cloudError, resp *resty.Response) string {
	if failure.Message != "" {
		return failure.Message
	}
	if body := resp.String(); body != "" {
		return body
	}
	return http.StatusText(resp.StatusCode())
}
