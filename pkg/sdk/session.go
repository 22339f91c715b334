package sdk

import (
	"encoding/json"
	"net/http"
	"time"
)

const sessionsEndpoint = "/sessions"

type SessionSpec struct {
	Rounds          int    `json:"rounds,omitempty"`
	MinParticipants int    `json:"min_participants,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	Evaluate        bool   `json:"evaluate,omitempty"`
	Date            string `json:"date,omitempty"`
}

type Exclusion struct {
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
	Detail        string `json:"detail,omitempty"`
}

type RoundLog struct {
	Round       int                `json:"round"`
	Invited     int                `json:"invited"`
	Used        []string           `json:"used"`
	Excluded    []Exclusion        `json:"excluded,omitempty"`
	Outcome     string             `json:"outcome"`
	EvalLoss    float64            `json:"eval_loss,omitempty"`
	EvalMetrics map[string]float64 `json:"eval_metrics,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

type Session struct {
	ID              string     `json:"id"`
	Global          []Tensor   `json:"global"`
	Rounds          []RoundLog `json:"rounds"`
	CompletedRounds int        `json:"completed_rounds"`
	AbortedRounds   int        `json:"aborted_rounds"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     time.Time  `json:"completed_at"`
}

type SessionPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

func (sdk *fedSDK) RunSession(spec SessionSpec) (Session, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return Session{}, err
	}

	url := sdk.managerURL + sessionsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *fedSDK) GetSession(id string) (Session, error) {
	url := sdk.managerURL + sessionsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *fedSDK) ListSessions(offset, limit uint64) (SessionPage, error) {
	url := sdk.managerURL + sessionsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return SessionPage{}, err
	}

	var s SessionPage
	if err := json.Unmarshal(body, &s); err != nil {
		return SessionPage{}, err
	}

	return s, nil
}
