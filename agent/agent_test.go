package agent_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/agent"
	"github.com/fedwatch/fedwatch/client"
	"github.com/fedwatch/fedwatch/pkg/mqtt/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewRequiresIdentity(t *testing.T) {
	_, err := agent.New(agent.Config{NodeID: "hospital_01"}, nil, testLogger())
	require.Error(t, err)

	_, err = agent.New(agent.Config{ID: "site-1"}, nil, testLogger())
	require.Error(t, err)
}

func TestAnnouncePublishesDiscovery(t *testing.T) {
	pubsub := new(mocks.MockPubSub)
	pubsub.On("Publish", mock.Anything, "channels/chan-1/messages/control/participant/create", mock.Anything).Return(nil)

	a, err := agent.New(agent.Config{
		ID:        "site-1",
		Name:      "general-hospital",
		NodeID:    "hospital_01",
		Endpoint:  "http://localhost:9090",
		ChannelID: "chan-1",
	}, pubsub, testLogger())
	require.NoError(t, err)

	require.NoError(t, a.Announce(context.Background()))
	pubsub.AssertExpectations(t)
}

func TestLivenessUpdates(t *testing.T) {
	pubsub := new(mocks.MockPubSub)
	pubsub.On("Publish", mock.Anything, "channels/chan-1/messages/control/participant/alive", mock.Anything).Return(nil)

	a, err := agent.New(agent.Config{
		ID:               "site-1",
		NodeID:           "hospital_01",
		ChannelID:        "chan-1",
		LivenessInterval: 10 * time.Millisecond,
	}, pubsub, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	a.StartLivenessUpdates(ctx)

	pubsub.AssertCalled(t, "Publish", mock.Anything, "channels/chan-1/messages/control/participant/alive", mock.Anything)
}

func TestServesTrainingOverHTTP(t *testing.T) {
	a, err := agent.New(agent.Config{
		ID:          "site-1",
		NodeID:      "hospital_01",
		DataDate:    "2024-01-14",
		NumPatients: 60,
		NumSensors:  5,
		Epochs:      2,
	}, nil, testLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	remote := client.NewHTTP("site-1", srv.URL, 30*time.Second)

	fit, err := remote.Fit(context.Background(), client.InitialModel())
	require.NoError(t, err)
	assert.Equal(t, "site-1", fit.ParticipantID)
	assert.Positive(t, fit.NumExamples)
	require.Len(t, fit.Parameters, 2)

	eval, err := remote.Evaluate(context.Background(), fit.Parameters)
	require.NoError(t, err)
	assert.Equal(t, "site-1", eval.ParticipantID)
	assert.Positive(t, eval.NumExamples)
	assert.Greater(t, eval.Loss, 0.0)
}
