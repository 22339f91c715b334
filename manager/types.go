package manager

import (
	"time"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/pkg/fl"
	"github.com/fedwatch/fedwatch/trigger"
)

// ModelVersion is one entry in the global model registry. Version 0 is the
// zero-initialized model; each completed training session appends one.
type ModelVersion struct {
	Version    int             `json:"version"`
	Parameters fl.ParameterSet `json:"parameters"`
	SessionID  string          `json:"session_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ModelPage struct {
	Offset uint64         `json:"offset"`
	Limit  uint64         `json:"limit"`
	Total  uint64         `json:"total"`
	Models []ModelVersion `json:"models"`
}

// SessionSpec configures one training session. Zero values fall back to
// the service defaults.
type SessionSpec struct {
	Rounds          int    `json:"rounds,omitempty"`
	MinParticipants int    `json:"min_participants,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	Evaluate        bool   `json:"evaluate,omitempty"`
	Date            string `json:"date,omitempty"`
}

type SessionPage struct {
	Offset   uint64                `json:"offset"`
	Limit    uint64                `json:"limit"`
	Total    uint64                `json:"total"`
	Sessions []coordinator.Session `json:"sessions"`
}

// DriftCheckSpec configures one drift check. Reference and current data
// are generated for the named node and dates.
type DriftCheckSpec struct {
	ReferenceDate     string  `json:"reference_date,omitempty"`
	CurrentDate       string  `json:"current_date,omitempty"`
	NodeID            string  `json:"node_id,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	TriggerRetraining bool    `json:"trigger_retraining"`
}

type DecisionPage struct {
	Offset    uint64             `json:"offset"`
	Limit     uint64             `json:"limit"`
	Total     uint64             `json:"total"`
	Decisions []trigger.Decision `json:"decisions"`
}
