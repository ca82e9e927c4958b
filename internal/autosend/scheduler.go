// Package autosend walks eligible alerts and dispatches them one at a time
// with a pause between sends.
package autosend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/model"
)

// State is the scheduler's current state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Status describes the scheduler after its most recent pass.
type Status struct {
	State   State
	LastRun time.Time
	Last    PassResult
	Error   error
}

// PassResult counts what one pass did.
type PassResult struct {
	Eligible int
	Sent     int
	Failed   int

	// Cleared is the number of stale ledger records dropped first.
	Cleared int

	// Skipped explains why the pass did nothing, if it did nothing.
	Skipped string
}

// PassResultMsg is a tea.Msg delivered when a triggered pass completes.
type PassResultMsg struct {
	Result PassResult
	Err    error
}

// Dispatcher sends one alert. It is satisfied by *dispatch.Sender.
type Dispatcher interface {
	Enabled() bool
	Send(ctx context.Context, a model.Alert, auto bool) (bool, error)
}

// Config tunes the scheduler.
type Config struct {
	// Throttle is the pause between two dispatches.
	Throttle time.Duration

	// ClearSentAfterDays drops ledger records older than this before each
	// pass. Zero disables clearing.
	ClearSentAfterDays int
}

// Scheduler runs auto-send passes. At most one pass runs at a time.
type Scheduler struct {
	alerts     *alerts.Service
	ledger     *ledger.Ledger
	dispatcher Dispatcher
	limiter    *rate.Limiter
	cfg        Config
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	status  Status
}

// New creates a Scheduler.
func New(log *slog.Logger, svc *alerts.Service, l *ledger.Ledger, d Dispatcher, cfg Config) *Scheduler {
	limit := rate.Inf
	if cfg.Throttle > 0 {
		limit = rate.Every(cfg.Throttle)
	}
	return &Scheduler{
		alerts:     svc,
		ledger:     l,
		dispatcher: d,
		limiter:    rate.NewLimiter(limit, 1),
		cfg:        cfg,
		logger:     log.With(slog.String("service", "autosend")),
	}
}

// Status returns a snapshot of the scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Trigger returns a tea.Cmd that runs one pass and reports a PassResultMsg.
func (s *Scheduler) Trigger(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Run(ctx)
		return PassResultMsg{Result: res, Err: err}
	}
}

// Run performs one pass: clear stale ledger entries, derive the current
// alerts and dispatch every eligible one in order. A failed dispatch is
// counted and the pass continues. If a pass is already running Run returns
// immediately.
func (s *Scheduler) Run(ctx context.Context) (PassResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return PassResult{Skipped: "a pass is already running"}, nil
	}
	s.running = true
	s.status.State = StateRunning
	s.mu.Unlock()

	res, err := s.run(ctx)

	s.mu.Lock()
	s.running = false
	s.status.LastRun = s.alerts.Now()
	s.status.Last = res
	s.status.Error = err
	s.status.State = StateIdle
	if err != nil {
		s.status.State = StateError
	}
	s.mu.Unlock()

	return res, err
}

func (s *Scheduler) run(ctx context.Context) (PassResult, error) {
	var res PassResult

	enabled, err := s.alerts.AutoSendEnabled(ctx)
	if err != nil {
		return res, err
	}
	if !enabled {
		res.Skipped = "auto-send is disabled"
		return res, nil
	}
	if !s.dispatcher.Enabled() {
		res.Skipped = "notification service is not configured"
		s.logger.Debug("auto-send pass skipped", slog.String("reason", res.Skipped))
		return res, nil
	}

	now := s.alerts.Now()
	if s.cfg.ClearSentAfterDays > 0 {
		cleared, err := s.ledger.ClearOld(ctx, s.cfg.ClearSentAfterDays, now)
		if err != nil {
			return res, fmt.Errorf("clearing sent alerts: %w", err)
		}
		res.Cleared = cleared
	}

	settings, err := s.alerts.Settings(ctx)
	if err != nil {
		return res, err
	}
	list, err := s.alerts.Refresh(ctx)
	if err != nil {
		return res, fmt.Errorf("refreshing alerts: %w", err)
	}

	for _, a := range list {
		if !a.IsPending() || !a.Type.IsDispatchable() {
			continue
		}
		last, err := s.ledger.LastSent(ctx, a.ID)
		if err != nil {
			return res, err
		}
		if !ledger.ShouldSendReminder(last, settings.ReminderFrequency, now) {
			continue
		}
		res.Eligible++

		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Info("auto-send pass interrupted", slog.Any("error", err))
			return res, nil
		}

		ok, _ := s.dispatcher.Send(ctx, a, true)
		if ok {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	s.logger.Info("auto-send pass finished",
		slog.Int("eligible", res.Eligible),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.Int("cleared", res.Cleared),
	)
	return res, nil
}
