package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mu        sync.Mutex
	created   []*domain.SleepSession
	appended  map[uuid.UUID]int
	finalized []*domain.SleepSession
	synced    []*domain.SleepSession
	createErr error
	err       error
}

func NewMockStore() *MockStore {
	return &MockStore{appended: make(map[uuid.UUID]int)}
}

func (m *MockStore) Create(ctx context.Context, session *domain.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, session)
	return nil
}

func (m *MockStore) AppendSamples(ctx context.Context, sessionID uuid.UUID, movement []domain.MovementSample, sound []domain.SoundSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.appended[sessionID] += len(movement) + len(sound)
	return nil
}

func (m *MockStore) Finalize(ctx context.Context, session *domain.SleepSession, movement []domain.MovementSample, sound []domain.SoundSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.appended[session.ID] += len(movement) + len(sound)
	m.finalized = append(m.finalized, session)
	return nil
}

func (m *MockStore) MarkSynced(ctx context.Context, session *domain.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, session)
	return nil
}

func (m *MockStore) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *MockStore) Appended(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appended[id]
}

func (m *MockStore) Finalized() []*domain.SleepSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SleepSession(nil), m.finalized...)
}

func (m *MockStore) Synced() []*domain.SleepSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SleepSession(nil), m.synced...)
}

// MockMirror is a mock implementation of Mirror
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

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mu        sync.Mutex
	reminders []time.Time
	triggers  []time.Time
}

func (m *MockNotifier) ScheduleReminder(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = append(m.reminders, at)
	return nil
}

func (m *MockNotifier) Trigger(ctx context.Context, session *domain.SleepSession, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, at)
	return nil
}

func (m *MockNotifier) Reminders() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.reminders...)
}

func (m *MockNotifier) Triggers() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.triggers...)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mu    sync.Mutex
	snaps []domain.TrackerSnapshot
}

func (m *MockPublisher) Publish(ctx context.Context, snap domain.TrackerSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *MockPublisher) Last() (domain.TrackerSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return domain.TrackerSnapshot{}, false
	}
	return m.snaps[len(m.snaps)-1], true
}

// fakeClock is a settable clock shared with the tracker goroutines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
