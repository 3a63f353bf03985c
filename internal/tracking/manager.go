package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager keeps one Tracker per user.
type Manager struct {
	cfg    Config
	deps   Deps
	opts   []Option
	logger *zap.Logger

	mu       sync.Mutex
	trackers map[uuid.UUID]*Tracker
	closed   bool
}

func NewManager(cfg Config, deps Deps, opts ...Option) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		opts:     opts,
		logger:   logger,
		trackers: make(map[uuid.UUID]*Tracker),
	}
}

// Tracker returns the tracker of userID, creating it on first use.
func (m *Manager) Tracker(userID uuid.UUID) (*Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, domain.ErrTrackerClosed
	}
	t, ok := m.trackers[userID]
	if !ok {
		t = NewTracker(userID, m.cfg, m.deps, m.opts...)
		m.trackers[userID] = t
	}
	return t, nil
}

// SyncTimeout bounds one background mirror run started at finalization.
func (m *Manager) SyncTimeout() time.Duration {
	return m.cfg.withDefaults().IOTimeout
}

// Lookup returns the tracker of userID if one was created.
func (m *Manager) Lookup(userID uuid.UUID) (*Tracker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trackers[userID]
	return t, ok
}

// Record routes sensor readings to the user's tracker. Readings for users without a
// tracker are dropped.
func (m *Manager) Record(ctx context.Context, userID uuid.UUID, readings ...domain.Reading) error {
	t, ok := m.Lookup(userID)
	if !ok {
		m.logger.Debug("dropping readings for user without tracker",
			zap.String("user_id", userID.String()),
			zap.Int("count", len(readings)),
		)
		return nil
	}
	_, _, err := t.Record(ctx, readings...)
	return err
}

// Shutdown stops every active session and closes all trackers.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	trackers := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		trackers = append(trackers, t)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, t := range trackers {
		g.Go(func() error {
			return t.Close(ctx)
		})
	}
	return g.Wait()
}
