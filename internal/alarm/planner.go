// Package alarm implements the smart alarm: it watches the stage windows of a tracked
// session during the pre-wake window and picks the moment to wake the user.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blaisecz/smart-sleep/internal/analysis"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"go.uber.org/zap"
)

// DefaultCheckInterval is the polling cadence of the monitoring loop.
const DefaultCheckInterval = 60 * time.Second

// State is the lifecycle state of a Planner.
type State string

const (
	StateIdle       State = "idle"
	StateArmed      State = "armed"
	StateMonitoring State = "monitoring"
	StateTriggered  State = "triggered"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateTriggered || s == StateCancelled
}

var errNotArmed = errors.New("planner is not armed")

// Config holds the alarm parameters requested for a session.
type Config struct {
	TargetWake    time.Time
	Window        time.Duration
	CheckInterval time.Duration
}

// Decision is the outcome of a triggered planner.
type Decision struct {
	At time.Time
	// Fallback is set when no light or awake window was found and the target was used.
	Fallback bool
}

// WakeFunc receives the decision of a planner. It is called at most once.
type WakeFunc func(Decision)

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithLogger sets the planner logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// ClampWindow bounds a pre-wake window to [MinPreWakeWindow, MaxPreWakeWindow]. Zero
// selects the default.
func ClampWindow(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return domain.DefaultPreWakeWindow
	case d < domain.MinPreWakeWindow:
		return domain.MinPreWakeWindow
	case d > domain.MaxPreWakeWindow:
		return domain.MaxPreWakeWindow
	default:
		return d
	}
}

// Validate checks the alarm parameters against now and returns the clamped window.
// Errors wrap domain.ErrInvalidAlarmConfig.
func Validate(target time.Time, window time.Duration, now time.Time) (time.Duration, error) {
	if target.IsZero() {
		return 0, fmt.Errorf("%w: target wake time is required", domain.ErrInvalidAlarmConfig)
	}
	if !target.After(now) {
		return 0, fmt.Errorf("%w: target wake time %s is not in the future", domain.ErrInvalidAlarmConfig, target.Format(time.RFC3339))
	}
	window = ClampWindow(window)
	// Offsets only: the window start is computed by the caller once this passes.
	untilTarget := target.Sub(now)
	if window >= untilTarget {
		return 0, fmt.Errorf("%w: pre-wake window of %s starts before now (target is %s away)",
			domain.ErrInvalidAlarmConfig, window, untilTarget.Round(time.Second))
	}
	return window, nil
}

// Planner decides when to fire the smart alarm of one session. It moves through
// idle, armed, monitoring and finally triggered or cancelled, and is never reused.
type Planner struct {
	target        time.Time
	windowStart   time.Time
	checkInterval time.Duration
	onWake        WakeFunc
	now           func() time.Time
	logger        *zap.Logger

	mu       sync.Mutex
	state    State
	stages   []domain.StageWindow
	decision *Decision
	cancel   context.CancelFunc

	notify chan struct{}
	done   chan struct{}
}

// New validates cfg and returns an armed planner. On invalid parameters it returns an
// error wrapping domain.ErrInvalidAlarmConfig and no planner.
func New(cfg Config, onWake WakeFunc, opts ...Option) (*Planner, error) {
	p := &Planner{
		target:        cfg.TargetWake,
		checkInterval: cfg.CheckInterval,
		onWake:        onWake,
		now:           time.Now,
		logger:        zap.NewNop(),
		state:         StateIdle,
		notify:        make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.checkInterval <= 0 {
		p.checkInterval = DefaultCheckInterval
	}

	window, err := Validate(cfg.TargetWake, cfg.Window, p.now())
	if err != nil {
		return nil, err
	}
	p.windowStart = cfg.TargetWake.Add(-window)
	p.state = StateArmed
	return p, nil
}

// Start begins monitoring. The first check runs immediately.
func (p *Planner) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateArmed {
		p.mu.Unlock()
		return fmt.Errorf("start: %w (state %s)", errNotArmed, p.state)
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateMonitoring
	p.mu.Unlock()

	p.logger.Info("smart alarm monitoring",
		zap.Time("window_start", p.windowStart),
		zap.Time("target_wake", p.target),
	)
	go p.run(ctx)
	return nil
}

// Observe hands newly finalized stage windows to the planner and wakes the loop.
func (p *Planner) Observe(windows ...domain.StageWindow) {
	if len(windows) == 0 {
		return
	}
	p.mu.Lock()
	if p.state.Terminal() {
		p.mu.Unlock()
		return
	}
	p.stages = append(p.stages, windows...)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Cancel stops the planner before it triggers. It reports whether the planner was
// cancelled by this call; after a trigger it does nothing.
func (p *Planner) Cancel() bool {
	p.mu.Lock()
	if p.state.Terminal() {
		p.mu.Unlock()
		return false
	}
	started := p.state == StateMonitoring
	p.state = StateCancelled
	cancel := p.cancel
	p.mu.Unlock()

	if started {
		cancel()
	} else {
		close(p.done)
	}
	p.logger.Info("smart alarm cancelled", zap.Time("target_wake", p.target))
	return true
}

// Done is closed once the planner has triggered or was cancelled.
func (p *Planner) Done() <-chan struct{} {
	return p.done
}

// State returns the current state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Window returns the pre-wake window bounds.
func (p *Planner) Window() (start, end time.Time) {
	return p.windowStart, p.target
}

// Status returns a snapshot of the planner.
func (p *Planner) Status() domain.AlarmStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := domain.AlarmStatus{
		State:         string(p.state),
		TargetWakeAt:  p.target,
		WindowStartAt: p.windowStart,
	}
	if p.decision != nil {
		at := p.decision.At
		st.TriggeredAt = &at
		st.Fallback = p.decision.Fallback
	}
	return st
}

func (p *Planner) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	if p.check() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.state == StateMonitoring {
				p.state = StateCancelled
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
		case <-p.notify:
		}
		if p.check() {
			return
		}
	}
}

// check evaluates the window once and reports whether the loop should stop.
func (p *Planner) check() bool {
	p.mu.Lock()
	if p.state != StateMonitoring {
		p.mu.Unlock()
		return true
	}

	now := p.now()
	if now.Before(p.windowStart) {
		p.mu.Unlock()
		return false
	}

	limit := now
	if limit.After(p.target) {
		limit = p.target
	}
	at, found := analysis.FindWakeTime(p.stages, p.windowStart, limit)
	var d Decision
	switch {
	case found:
		d = Decision{At: at}
	case now.After(p.target):
		d = Decision{At: p.target, Fallback: true}
	default:
		p.mu.Unlock()
		return false
	}

	p.state = StateTriggered
	p.decision = &d
	p.cancel()
	p.mu.Unlock()

	p.logger.Info("smart alarm triggered",
		zap.Time("trigger_at", d.At),
		zap.Bool("fallback", d.Fallback),
		zap.Time("target_wake", p.target),
	)
	if p.onWake != nil {
		p.onWake(d)
	}
	return true
}
