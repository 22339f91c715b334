// Package trigger couples drift detection to retraining: each check runs
// the monitor and fires the retrainer at most once per positive verdict.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fedwatch/fedwatch/drift"
	"github.com/fedwatch/fedwatch/pkg/dataset"
	pkgerrors "github.com/fedwatch/fedwatch/pkg/errors"
)

var ErrCheckInProgress = errors.New("drift check already in progress")

type State int

const (
	StateIdle State = iota
	StateChecking
	StateTriggering
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateTriggering:
		return "triggering"
	default:
		return "idle"
	}
}

type Outcome string

const (
	OutcomeNoDrift          Outcome = "no-drift"
	OutcomeRetrained        Outcome = "retrained"
	OutcomeSuppressed       Outcome = "suppressed"
	OutcomeRetrainingFailed Outcome = "retraining-failed"
)

// Decision is the durable record of one completed drift check.
type Decision struct {
	ID        string        `json:"id"`
	CheckedAt time.Time     `json:"checked_at"`
	Score     float64       `json:"score"`
	Threshold float64       `json:"threshold"`
	Drift     bool          `json:"drift"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	Verdict   drift.Verdict `json:"verdict"`
}

type Retrainer interface {
	Retrain(ctx context.Context) error
}

type RetrainerFunc func(ctx context.Context) error

func (f RetrainerFunc) Retrain(ctx context.Context) error { return f(ctx) }

// Recorder persists decisions. Recording is fire and forget: failures are
// logged, never propagated.
type Recorder interface {
	Record(ctx context.Context, decision Decision) error
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, Decision) error { return nil }

type Option func(*Trigger)

func WithRecorder(r Recorder) Option {
	return func(t *Trigger) {
		t.recorder = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Trigger) {
		t.logger = l
	}
}

// Trigger serializes drift checks through a three-state machine. Checks
// from other goroutines while one is running fail with ErrCheckInProgress
// rather than queueing, so a burst of checks cannot fire retraining twice.
type Trigger struct {
	mu        sync.Mutex
	state     State
	monitor   *drift.Monitor
	retrainer Retrainer
	recorder  Recorder
	logger    *slog.Logger
}

func New(monitor *drift.Monitor, retrainer Retrainer, opts ...Option) (*Trigger, error) {
	if monitor == nil {
		return nil, errors.New("monitor is required")
	}
	if retrainer == nil {
		return nil, errors.New("retrainer is required")
	}

	t := &Trigger{
		state:     StateIdle,
		monitor:   monitor,
		retrainer: retrainer,
		recorder:  noopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Check scores the current dataset and, on a positive verdict with
// retraining enabled, invokes the retrainer exactly once. Every completed
// check records exactly one decision; checks that fail before a verdict
// (insufficient data, missing features) record nothing.
func (t *Trigger) Check(ctx context.Context, current dataset.Dataset, threshold float64, retrain bool) (Decision, error) {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()

		return Decision{}, ErrCheckInProgress
	}
	t.state = StateChecking
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.state = StateIdle
		t.mu.Unlock()
	}()

	verdict, err := t.monitor.Check(current, threshold)
	if err != nil {
		return Decision{}, fmt.Errorf("drift check: %w", err)
	}

	decision := Decision{
		ID:        uuid.NewString(),
		CheckedAt: verdict.CheckedAt,
		Score:     verdict.Score,
		Threshold: verdict.Threshold,
		Drift:     verdict.Drift,
		Verdict:   verdict,
	}

	var checkErr error
	switch {
	case !verdict.Drift:
		decision.Outcome = OutcomeNoDrift
	case !retrain:
		decision.Outcome = OutcomeSuppressed
	default:
		t.mu.Lock()
		t.state = StateTriggering
		t.mu.Unlock()

		if err := t.retrainer.Retrain(ctx); err != nil {
			decision.Outcome = OutcomeRetrainingFailed
			decision.Error = err.Error()
			checkErr = fmt.Errorf("%w: %w", pkgerrors.ErrRetrainingFailed, err)
		} else {
			decision.Outcome = OutcomeRetrained
		}
	}

	if err := t.recorder.Record(ctx, decision); err != nil {
		t.logger.Warn("failed to record drift decision",
			slog.String("decision_id", decision.ID),
			slog.Any("error", err),
		)
	}

	t.logger.Info("drift check completed",
		slog.String("decision_id", decision.ID),
		slog.Float64("score", decision.Score),
		slog.Float64("threshold", decision.Threshold),
		slog.Bool("drift", decision.Drift),
		slog.String("outcome", string(decision.Outcome)),
	)

	return decision, checkErr
}
