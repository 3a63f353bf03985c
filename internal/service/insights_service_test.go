package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/llm"
	"github.com/google/uuid"
)

func newInsightsFixture(t *testing.T, llmClient *MockInsightsLLM) (*insightsService, *MockSessionRepository, uuid.UUID) {
	t.Helper()
	sessions := NewMockSessionRepository()
	users := NewMockUserRepository()
	user := &domain.User{Timezone: "UTC"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	now := func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return &insightsService{
		chronotypeService: &chronotypeService{sessionRepo: sessions, userRepo: users, now: now},
		trendsService:     &trendsService{sessionRepo: sessions, userRepo: users, now: now},
		llmClient:         llmClient,
		sessionRepo:       sessions,
		userRepo:          users,
		now:               now,
	}, sessions, user.ID
}

func TestInsightsService_Generate(t *testing.T) {
	output := &domain.LLMInsightsOutput{
		Summary:      "Consistent week.",
		Observations: []string{"Bedtime is regular"},
		Guidance:     []string{"Keep it up"},
	}
	mockLLM := &MockInsightsLLM{output: output}
	svc, sessions, userID := newInsightsFixture(t, mockLLM)

	older := eightHourNight(userID, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))
	latest := finishedNight(userID, time.Date(2024, 1, 18, 23, 0, 0, 0, time.UTC),
		stageRun{domain.StageAwake, 4},
		stageRun{domain.StageDeep, 30},
		stageRun{domain.StageLight, 60},
	)
	sessions.Add(older, latest)

	resp, err := svc.Generate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Insights.Summary != output.Summary {
		t.Errorf("Insights.Summary = %v, want %v", resp.Insights.Summary, output.Summary)
	}
	if resp.Trends.History.Nightly.SessionCount != 2 {
		t.Errorf("history SessionCount = %v, want 2", resp.Trends.History.Nightly.SessionCount)
	}
	if resp.Trends.Recent.Nightly.SessionCount != 1 {
		t.Errorf("recent SessionCount = %v, want 1", resp.Trends.Recent.Nightly.SessionCount)
	}
	if resp.LastNight == nil {
		t.Fatal("LastNight = nil, want the most recent session")
	}
	if resp.LastNight.DeepMinutes != 150 {
		t.Errorf("LastNight.DeepMinutes = %v, want 150", resp.LastNight.DeepMinutes)
	}
	if resp.Chronotype.Chronotype != domain.ChronotypeUnknown {
		t.Errorf("Chronotype = %v, want unknown with two nights", resp.Chronotype.Chronotype)
	}
	if resp.TraceID != "" {
		t.Errorf("TraceID = %q, want empty without a span", resp.TraceID)
	}

	if mockLLM.lastCtx == nil || mockLLM.lastCtx.LastNight != resp.LastNight {
		t.Error("LLM did not receive the last night metrics")
	}
}

func TestInsightsService_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		userID  func(uuid.UUID) uuid.UUID
		llmErr  error
		wantErr error
	}{
		{
			name:    "unknown user",
			userID:  func(uuid.UUID) uuid.UUID { return uuid.New() },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "llm unavailable",
			userID:  func(id uuid.UUID) uuid.UUID { return id },
			llmErr:  llm.ErrOpenAIUnavailable,
			wantErr: llm.ErrOpenAIUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, userID := newInsightsFixture(t, &MockInsightsLLM{err: tt.llmErr})
			_, err := svc.Generate(context.Background(), tt.userID(userID))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInsightsService_NoSessions(t *testing.T) {
	mockLLM := &MockInsightsLLM{output: &domain.LLMInsightsOutput{Summary: "Not enough data."}}
	svc, _, userID := newInsightsFixture(t, mockLLM)

	resp, err := svc.Generate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.LastNight != nil {
		t.Errorf("LastNight = %+v, want nil", resp.LastNight)
	}
	if mockLLM.lastCtx.History.Nightly.SessionCount != 0 {
		t.Errorf("history SessionCount = %v, want 0", mockLLM.lastCtx.History.Nightly.SessionCount)
	}
}
