package sdk

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	driftCheckEndpoint = "/drift/check"
	decisionsEndpoint  = "/decisions"
)

type DriftCheckSpec struct {
	ReferenceDate     string  `json:"reference_date,omitempty"`
	CurrentDate       string  `json:"current_date,omitempty"`
	NodeID            string  `json:"node_id,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	TriggerRetraining bool    `json:"trigger_retraining"`
}

type FeatureScore struct {
	Name          string  `json:"name"`
	ReferenceMean float64 `json:"reference_mean"`
	CurrentMean   float64 `json:"current_mean"`
	Score         float64 `json:"score"`
}

type Verdict struct {
	Score      float64        `json:"score"`
	Threshold  float64        `json:"threshold"`
	Drift      bool           `json:"drift"`
	PerFeature []FeatureScore `json:"per_feature"`
	CheckedAt  time.Time      `json:"checked_at"`
}

type Decision struct {
	ID        string    `json:"id"`
	CheckedAt time.Time `json:"checked_at"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Drift     bool      `json:"drift"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Verdict   Verdict   `json:"verdict"`
}

type DecisionPage struct {
	Offset    uint64     `json:"offset"`
	Limit     uint64     `json:"limit"`
	Total     uint64     `json:"total"`
	Decisions []Decision `json:"decisions"`
}

func (sdk *fedSDK) CheckDrift(spec DriftCheckSpec) (Decision, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return Decision{}, err
	}

	url := sdk.managerURL + driftCheckEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return Decision{}, err
	}

	var d Decision
	if err := json.Unmarshal(body, &d); err != nil {
		return Decision{}, err
	}

	return d, nil
}

func (sdk *fedSDK) ListDecisions(offset, limit uint64) (DecisionPage, error) {
	url := sdk.managerURL + decisionsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return DecisionPage{}, err
	}

	var d DecisionPage
	if err := json.Unmarshal(body, &d); err != nil {
		return DecisionPage{}, err
	}

	return d, nil
}
