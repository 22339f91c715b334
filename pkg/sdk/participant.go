package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const participantsEndpoint = "/participants"

type Participant struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	NodeID       string      `json:"node_id,omitempty"`
	Endpoint     string      `json:"endpoint,omitempty"`
	Sessions     int         `json:"sessions,omitempty"`
	Alive        bool        `json:"alive"`
	AliveHistory []time.Time `json:"alive_history,omitempty"`
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}

func (sdk *fedSDK) GetParticipant(id string) (Participant, error) {
	url := sdk.managerURL + participantsEndpoint + "/" + id

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Participant{}, err
	}

	var p Participant
	if err := json.Unmarshal(body, &p); err != nil {
		return Participant{}, err
	}

	return p, nil
}

func (sdk *fedSDK) ListParticipants(offset, limit uint64) (ParticipantPage, error) {
	url := sdk.managerURL + participantsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ParticipantPage{}, err
	}

	var p ParticipantPage
	if err := json.Unmarshal(body, &p); err != nil {
		return ParticipantPage{}, err
	}

	return p, nil
}

func (sdk *fedSDK) DeleteParticipant(id string) error {
	url := sdk.managerURL + participantsEndpoint + "/" + id

	if _, err := sdk.processRequest(http.MethodDelete, url, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
