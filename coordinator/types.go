package coordinator

import (
	"context"
	"time"

	"github.com/fedwatch/fedwatch/pkg/fl"
)

// Participant is one training site reachable for the duration of a session.
// Fit and Evaluate must honor context cancellation.
type Participant interface {
	ID() string
	Fit(ctx context.Context, params fl.ParameterSet) (fl.FitResult, error)
	Evaluate(ctx context.Context, params fl.ParameterSet) (fl.EvalResult, error)
}

type RoundOutcome string

const (
	RoundCompleted RoundOutcome = "completed"
	RoundAborted   RoundOutcome = "aborted_insufficient_participants"
)

type ExclusionReason string

const (
	ExcludedError        ExclusionReason = "error"
	ExcludedTimeout      ExclusionReason = "timeout"
	ExcludedIncompatible ExclusionReason = "incompatible_shape"
	ExcludedInvalid      ExclusionReason = "invalid_result"
)

// Exclusion records one participant result rejected before aggregation.
type Exclusion struct {
	ParticipantID string          `json:"participant_id"`
	Reason        ExclusionReason `json:"reason"`
	Detail        string          `json:"detail,omitempty"`
}

// RoundLog is the per-round record of a session. Round numbers start at 1.
type RoundLog struct {
	Round       int                `json:"round"`
	Invited     int                `json:"invited"`
	Used        []string           `json:"used"`
	Excluded    []Exclusion        `json:"excluded,omitempty"`
	Outcome     RoundOutcome       `json:"outcome"`
	EvalLoss    float64            `json:"eval_loss,omitempty"`
	EvalMetrics map[string]float64 `json:"eval_metrics,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Session is the full record of one training session.
type Session struct {
	ID              string          `json:"id"`
	Global          fl.ParameterSet `json:"global"`
	Rounds          []RoundLog      `json:"rounds"`
	CompletedRounds int             `json:"completed_rounds"`
	AbortedRounds   int             `json:"aborted_rounds"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at"`
}

// Emitter publishes session lifecycle events. Emission is fire and forget:
// the coordinator logs emitter errors and moves on.
type Emitter interface {
	EmitRoundCompleted(ctx context.Context, sessionID string, round RoundLog) error
	EmitRoundAborted(ctx context.Context, sessionID string, round RoundLog) error
	EmitSessionCompleted(ctx context.Context, session Session) error
}

type noopEmitter struct{}

func (noopEmitter) EmitRoundCompleted(context.Context, string, RoundLog) error { return nil }
func (noopEmitter) EmitRoundAborted(context.Context, string, RoundLog) error   { return nil }
func (noopEmitter) EmitSessionCompleted(context.Context, Session) error        { return nil }
