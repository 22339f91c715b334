package sdk

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const modelsEndpoint = "/models"

type Tensor struct {
	Name   string    `json:"name"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

type Model struct {
	Version    int       `json:"version"`
	Parameters []Tensor  `json:"parameters"`
	SessionID  string    `json:"session_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ModelPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Models []Model `json:"models"`
}

func (sdk *fedSDK) GetModel(version int) (Model, error) {
	url := sdk.managerURL + modelsEndpoint + "/" + strconv.Itoa(version)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *fedSDK) LatestModel() (Model, error) {
	url := sdk.managerURL + modelsEndpoint + "/latest"

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}

func (sdk *fedSDK) ListModels(offset, limit uint64) (ModelPage, error) {
	url := sdk.managerURL + modelsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return ModelPage{}, err
	}

	var m ModelPage
	if err := json.Unmarshal(body, &m); err != nil {
		return ModelPage{}, err
	}

	return m, nil
}
