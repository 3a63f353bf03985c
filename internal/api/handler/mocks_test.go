package handler

import (
	"context"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
)

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	startFunc   func(ctx context.Context, userID uuid.UUID, req *domain.StartSessionRequest) (*domain.SleepSession, error)
	activeFunc  func(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error)
	followFunc  func(ctx context.Context, userID uuid.UUID) (<-chan domain.TrackerSnapshot, func(), error)
	recordFunc  func(ctx context.Context, userID uuid.UUID, req *domain.RecordSamplesRequest) (*domain.RecordSamplesResponse, error)
	stopFunc    func(ctx context.Context, userID uuid.UUID) (*domain.SessionDetailResponse, error)
	listFunc    func(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) (*domain.SessionListResponse, error)
	getFunc     func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SessionDetailResponse, error)
	syncFunc    func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SyncReport, error)
	exportFunc  func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]byte, error)
	resyncCalls int
}

func (m *MockSessionService) Start(ctx context.Context, userID uuid.UUID, req *domain.StartSessionRequest) (*domain.SleepSession, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, userID, req)
	}
	return &domain.SleepSession{
		ID:            uuid.New(),
		UserID:        userID,
		StartAt:       time.Now().UTC(),
		TargetWakeAt:  req.TargetWakeAt,
		PreWakeWindow: req.PreWakeWindow(),
		LocalTimezone: "UTC",
		SyncStatus:    domain.SyncPending,
	}, nil
}

func (m *MockSessionService) Active(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error) {
	if m.activeFunc != nil {
		return m.activeFunc(ctx, userID)
	}
	return &domain.TrackerSnapshot{UserID: userID, Status: domain.TrackerIdle, Stages: []domain.StageWindow{}}, nil
}

func (m *MockSessionService) Follow(ctx context.Context, userID uuid.UUID) (<-chan domain.TrackerSnapshot, func(), error) {
	if m.followFunc != nil {
		return m.followFunc(ctx, userID)
	}
	ch := make(chan domain.TrackerSnapshot)
	close(ch)
	return ch, func() {}, nil
}

func (m *MockSessionService) RecordSamples(ctx context.Context, userID uuid.UUID, req *domain.RecordSamplesRequest) (*domain.RecordSamplesResponse, error) {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, userID, req)
	}
	return &domain.RecordSamplesResponse{Accepted: len(req.Samples)}, nil
}

func (m *MockSessionService) Stop(ctx context.Context, userID uuid.UUID) (*domain.SessionDetailResponse, error) {
	if m.stopFunc != nil {
		return m.stopFunc(ctx, userID)
	}
	return nil, domain.ErrNoActiveSession
}

func (m *MockSessionService) List(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) (*domain.SessionListResponse, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, filter)
	}
	return &domain.SessionListResponse{
		Data:       []domain.SessionResponse{},
		Pagination: domain.PaginationResponse{HasMore: false},
	}, nil
}

func (m *MockSessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SessionDetailResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockSessionService) Sync(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SyncReport, error) {
	if m.syncFunc != nil {
		return m.syncFunc(ctx, userID, sessionID)
	}
	return &domain.SyncReport{SessionID: sessionID}, nil
}

func (m *MockSessionService) ResyncPending(ctx context.Context, limit int) (int, error) {
	m.resyncCalls++
	return 0, nil
}

func (m *MockSessionService) Export(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, userID, from, to)
	}
	return []byte("PK"), nil
}

// Mock services for insights handler tests

type mockChronotypeService struct {
	err error
}

func (m *mockChronotypeService) Compute(ctx context.Context, userID uuid.UUID, windowDays, minSessions int) (*domain.ChronotypeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ChronotypeResult{
		Chronotype:                   domain.ChronotypeIntermediate,
		MidSleepLocalTime:            "03:30",
		MidSleepMinutesAfterMidnight: 210,
		WindowDays:                   windowDays,
		SessionsUsed:                 minSessions,
	}, nil
}

type mockTrendsService struct {
	lastWindow int
}

func (m *mockTrendsService) Compute(ctx context.Context, userID uuid.UUID, windowDays int) (*domain.WindowTrends, error) {
	m.lastWindow = windowDays
	return &domain.WindowTrends{Nightly: domain.NightlyTrends{SessionCount: 3}}, nil
}

func (m *mockTrendsService) ComputeWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.WindowTrends, error) {
	return &domain.WindowTrends{From: from, To: to}, nil
}

type mockInsightsService struct {
	err error
}

func (m *mockInsightsService) Generate(ctx context.Context, userID uuid.UUID) (*domain.InsightsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.InsightsResponse{
		Chronotype: domain.ChronotypeResult{
			Chronotype: domain.ChronotypeIntermediate,
		},
		Insights: domain.LLMInsightsOutput{
			Summary:      "Your sleep is good.",
			Observations: []string{"Consistent bedtime"},
			Guidance:     []string{"Keep it up"},
		},
	}, nil
}
