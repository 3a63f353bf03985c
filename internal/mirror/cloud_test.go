package mirror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

func TestCloudSinkPush(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		retryAfter string
		wantKind   FailureKind
		wantAfter  time.Duration
	}{
		{name: "stored", status: http.StatusOK, body: `{"id":"x"}`},
		{name: "created", status: http.StatusCreated, body: `{"id":"x"}`},
		{name: "rejected windows", status: http.StatusOK, body: `{"id":"x","rejected_stages":2}`, wantKind: KindPartialFailure},
		{name: "multi status", status: http.StatusMultiStatus, body: `{}`, wantKind: KindPartialFailure},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"message":"slow down"}`, retryAfter: "30", wantKind: KindQuotaExceeded, wantAfter: 30 * time.Second},
		{name: "storage full", status: http.StatusInsufficientStorage, wantKind: KindQuotaExceeded},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: KindAccountUnavailable},
		{name: "forbidden", status: http.StatusForbidden, wantKind: KindAccountUnavailable},
		{name: "bad request", status: http.StatusBadRequest, body: `{"code":"invalid","message":"bad stage"}`, wantKind: KindRejected},
		{name: "server error", status: http.StatusInternalServerError, retryAfter: "5", wantKind: KindServerError, wantAfter: 5 * time.Second},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantKind: KindNetworkUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := finishedSession()
			var got CloudRecord
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/records/"+session.ID.String() {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer token" {
					t.Errorf("Authorization = %q", auth)
				}
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				body = []byte(tt.body)
				if len(body) == 0 {
					body = []byte("{}")
				}
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			sink := NewCloudSink(srv.URL, "token", time.Second, zap.NewNop())
			err := sink.Push(context.Background(), session)

			if got.ID != session.ID || len(got.Stages) != len(session.Stages) {
				t.Errorf("body = %+v, want record of session %s", got, session.ID)
			}
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Push() error = %v", err)
				}
				return
			}
			var se *SyncError
			if !errors.As(err, &se) {
				t.Fatalf("Push() error = %v, want *SyncError", err)
			}
			if se.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", se.Kind, tt.wantKind)
			}
			if se.RetryAfter != tt.wantAfter {
				t.Errorf("RetryAfter = %v, want %v", se.RetryAfter, tt.wantAfter)
			}
		})
	}
}

func TestCloudSinkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewCloudSink(url, "", time.Second, zap.NewNop()).Push(context.Background(), finishedSession())

	var se *SyncError
	if !errors.As(err, &se) || se.Kind != KindNetworkUnavailable {
		t.Errorf("Push() error = %v, want network_unavailable", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"120", 2 * time.Minute},
		{"-3", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}

	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
