package fl

import "time"

// FitResult is one participant's contribution to a training round.
type FitResult struct {
	ParticipantID string             `json:"participant_id"`
	Parameters    ParameterSet       `json:"parameters"`
	NumExamples   int                `json:"num_examples"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	ReceivedAt    time.Time          `json:"received_at,omitempty"`
}

// EvalResult reports a participant's evaluation of the current global model.
type EvalResult struct {
	ParticipantID string             `json:"participant_id"`
	Loss          float64            `json:"loss"`
	NumExamples   int                `json:"num_examples"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

type Aggregator interface {
	Aggregate(results []FitResult) (ParameterSet, error)
}
