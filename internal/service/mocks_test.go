package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.SleepSession
	synced   int
	err      error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[uuid.UUID]*domain.SleepSession)}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *MockSessionRepository) AppendSamples(ctx context.Context, sessionID uuid.UUID, movement []domain.MovementSample, sound []domain.SoundSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.MovementSamples = append(s.MovementSamples, movement...)
	s.SoundSamples = append(s.SoundSamples, sound...)
	return nil
}

func (m *MockSessionRepository) Finalize(ctx context.Context, session *domain.SleepSession, movement []domain.MovementSample, sound []domain.SoundSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	stored := *session
	stored.Stages = slices.Clone(session.Stages)
	stored.MovementSamples = slices.Clone(session.MovementSamples)
	stored.SoundSamples = slices.Clone(session.SoundSamples)
	m.sessions[session.ID] = &stored
	return nil
}

func (m *MockSessionRepository) MarkSynced(ctx context.Context, session *domain.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if s, ok := m.sessions[session.ID]; ok {
		s.SyncStatus = session.SyncStatus
		s.SyncError = session.SyncError
		s.HealthSyncedAt = session.HealthSyncedAt
		s.CloudSyncedAt = session.CloudSyncedAt
		s.SyncAttempts = session.SyncAttempts
		s.NextSyncAt = session.NextSyncAt
	}
	m.synced++
	return nil
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (m *MockSessionRepository) ListByRange(ctx context.Context, userID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.SleepSession
	for _, s := range m.sessions {
		if s.UserID != userID || s.EndAt == nil {
			continue
		}
		if filter.From != nil && s.StartAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.StartAt.After(*filter.To) {
			continue
		}
		result = append(result, *s)
	}
	slices.SortFunc(result, func(a, b domain.SleepSession) int { return b.StartAt.Compare(a.StartAt) })
	return result, nil
}

func (m *MockSessionRepository) ListByEndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.SleepSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.EndAt != nil && !s.EndAt.Before(from) && s.EndAt.Before(to) {
			result = append(result, *s)
		}
	}
	slices.SortFunc(result, func(a, b domain.SleepSession) int { return a.EndAt.Compare(*b.EndAt) })
	return result, nil
}

func (m *MockSessionRepository) ListUnsynced(ctx context.Context, now, settledBefore time.Time, limit int) ([]domain.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.SleepSession
	for _, s := range m.sessions {
		if s.DueForResync(now, settledBefore) && len(result) < limit {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *MockSessionRepository) Add(sessions ...domain.SleepSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range sessions {
		s := sessions[i]
		m.sessions[s.ID] = &s
	}
}

func (m *MockSessionRepository) Stored(id uuid.UUID) (domain.SleepSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.SleepSession{}, false
	}
	return *s, true
}

func (m *MockSessionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MockSessionRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	users map[uuid.UUID]*domain.User
	err   error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[uuid.UUID]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.err != nil {
		return m.err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.users[id]
	return ok, nil
}

func (m *MockUserRepository) UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) error {
	if m.err != nil {
		return m.err
	}
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.Timezone = timezone
	return nil
}

func (m *MockUserRepository) SetError(err error) {
	m.err = err
}

// MockMirror is a mock implementation of tracking.Mirror
type MockMirror struct {
	mu     sync.Mutex
	report domain.SyncReport
	calls  int
}

func (m *MockMirror) Sync(ctx context.Context, session *domain.SleepSession) domain.SyncReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	r := m.report
	r.SessionID = session.ID
	return r
}

func (m *MockMirror) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSnapshotReader is a mock implementation of SnapshotReader
type MockSnapshotReader struct {
	snaps map[uuid.UUID]domain.TrackerSnapshot
	err   error
}

func (m *MockSnapshotReader) Latest(ctx context.Context, userID uuid.UUID) (*domain.TrackerSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	snap, ok := m.snaps[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

// MockInsightsLLM is a mock implementation of llm.InsightsLLM
type MockInsightsLLM struct {
	output  *domain.LLMInsightsOutput
	err     error
	lastCtx *domain.InsightsContext
}

func (m *MockInsightsLLM) GenerateInsights(ctx context.Context, insightsCtx *domain.InsightsContext) (*domain.LLMInsightsOutput, error) {
	m.lastCtx = insightsCtx
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}

// Helper functions
func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// finishedNight builds a finalized session from consecutive stage runs.
func finishedNight(userID uuid.UUID, start time.Time, runs ...stageRun) domain.SleepSession {
	id := uuid.New()
	s := domain.SleepSession{
		ID:            id,
		UserID:        userID,
		StartAt:       start,
		LocalTimezone: "UTC",
		SyncStatus:    domain.SyncSynced,
	}
	at := start
	for _, r := range runs {
		for i := 0; i < r.windows; i++ {
			s.Stages = append(s.Stages, domain.StageWindow{
				SessionID: id,
				StartAt:   at,
				EndAt:     at.Add(5 * time.Minute),
				Stage:     r.stage,
			})
			at = at.Add(5 * time.Minute)
		}
	}
	s.EndAt = &at
	var asleep time.Duration
	for _, w := range s.Stages {
		if w.Stage.IsAsleep() {
			asleep += w.Duration()
		}
	}
	s.TotalSleep = asleep
	if at.After(start) {
		s.Efficiency = 100 * float64(asleep) / float64(at.Sub(start))
	}
	return s
}

type stageRun struct {
	stage   domain.SleepStage
	windows int
}
