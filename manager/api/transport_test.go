package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/manager/api"
	"github.com/fedwatch/fedwatch/manager/mocks"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/trigger"
)

func setupServer(t *testing.T) (*httptest.Server, *mocks.MockService) {
	t.Helper()

	svc := new(mocks.MockService)
	handler := api.MakeHandler(svc, slog.New(slog.DiscardHandler), "test-instance")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv, svc
}

func TestListParticipantsEndpoint(t *testing.T) {
	srv, svc := setupServer(t)

	page := participant.ParticipantPage{
		Limit: 10,
		Total: 1,
		Participants: []participant.Participant{
			{ID: "site-1", Name: "ward-a", Alive: true},
		},
	}
	svc.On("ListParticipants", mock.Anything, uint64(0), uint64(10)).Return(page, nil)

	resp, err := http.Get(srv.URL + "/participants?offset=0&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got participant.ParticipantPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(1), got.Total)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "site-1", got.Participants[0].ID)

	svc.AssertExpectations(t)
}

func TestGetModelNotFound(t *testing.T) {
	srv, svc := setupServer(t)

	svc.On("GetModel", mock.Anything, 7).Return(manager.ModelVersion{}, errors.ErrNotFound)

	resp, err := http.Get(srv.URL + "/models/7")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetModelRejectsBadVersion(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/models/not-a-number")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunSessionEndpoint(t *testing.T) {
	srv, svc := setupServer(t)

	session := coordinator.Session{ID: "sess-1", CompletedRounds: 3}
	svc.On("RunTrainingSession", mock.Anything, mock.Anything).Return(session, nil)

	body, err := json.Marshal(manager.SessionSpec{Rounds: 3, MinParticipants: 2})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/sessions/sess-1", resp.Header.Get("Location"))

	var got coordinator.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "sess-1", got.ID)
}

func TestRunSessionRejectsNegativeRounds(t *testing.T) {
	srv, _ := setupServer(t)

	body, err := json.Marshal(manager.SessionSpec{Rounds: -1})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunSessionInsufficientParticipants(t *testing.T) {
	srv, svc := setupServer(t)

	svc.On("RunTrainingSession", mock.Anything, mock.Anything).
		Return(coordinator.Session{}, errors.ErrInsufficientParticipants)

	body, err := json.Marshal(manager.SessionSpec{Rounds: 1})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestCheckDriftEndpoint(t *testing.T) {
	srv, svc := setupServer(t)

	decision := trigger.Decision{ID: "dec-1", Drift: true, Outcome: trigger.OutcomeRetrained}
	svc.On("CheckDrift", mock.Anything, mock.Anything).Return(decision, nil)

	body, err := json.Marshal(manager.DriftCheckSpec{Threshold: 0.5, TriggerRetraining: true})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/drift/check", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got trigger.Decision
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, trigger.OutcomeRetrained, got.Outcome)
}

func TestDeleteParticipantEndpoint(t *testing.T) {
	srv, svc := setupServer(t)

	svc.On("DeleteParticipant", mock.Anything, "site-1").Return(nil)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/participants/site-1", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
