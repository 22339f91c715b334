package manager_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/pkg/fl"
	"github.com/fedwatch/fedwatch/pkg/storage"
	"github.com/fedwatch/fedwatch/trigger"
)

const (
	testBaseTopic = "channels/test-channel/messages"

	winterDate = "2024-01-14"
	summerDate = "2024-07-15"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Small cohorts keep local training fast while leaving enough samples
// for the logistic model to fit.
func testConfig() manager.Config {
	return manager.Config{
		DefaultRounds:          1,
		DefaultMinParticipants: 2,
		ReferenceDate:          winterDate,
		NumPatients:            40,
		NumSensors:             8,
	}
}

func setupTestService(t *testing.T) (manager.Service, storage.Storage) {
	t.Helper()

	participantsDB := storage.NewInMemoryStorage()
	checkpoints, err := fl.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)

	svc, err := manager.NewService(
		testConfig(),
		participantsDB,
		storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(),
		checkpoints,
		nil,
		"test-channel",
		testLogger(),
	)
	require.NoError(t, err)

	return svc, participantsDB
}

// registerAlive drives registration the same way the broker does: a
// create message followed by a heartbeat, so the site joins the pool.
func registerAlive(t *testing.T, participantsDB storage.Storage, ids ...string) {
	t.Helper()

	handle := manager.Handle(context.Background(), testBaseTopic, participantsDB, testLogger())
	for _, id := range ids {
		err := handle(testBaseTopic+"/control/participant/create", map[string]any{
			"participant_id": id,
			"node_id":        "hospital_01",
		})
		require.NoError(t, err)
		err = handle(testBaseTopic+"/control/participant/alive", map[string]any{
			"participant_id": id,
		})
		require.NoError(t, err)
	}
}

func TestRegisterParticipant(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1")

	p, err := svc.GetParticipant(context.Background(), "site-1")
	require.NoError(t, err)
	assert.Equal(t, "site-1", p.ID)
	assert.NotEmpty(t, p.Name)
	assert.Equal(t, "hospital_01", p.NodeID)
	assert.True(t, p.Alive)

	page, err := svc.ListParticipants(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	assert.Len(t, page.Participants, 1)
}

func TestRegisterParticipantRejectsDuplicate(t *testing.T) {
	t.Parallel()
	_, participantsDB := setupTestService(t)

	handle := manager.Handle(context.Background(), testBaseTopic, participantsDB, testLogger())
	msg := map[string]any{"participant_id": "site-1"}
	require.NoError(t, handle(testBaseTopic+"/control/participant/create", msg))

	err := handle(testBaseTopic+"/control/participant/create", msg)
	assert.ErrorIs(t, err, errors.ErrEntityExists)
}

func TestParticipantNotAliveWithoutHeartbeat(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	handle := manager.Handle(context.Background(), testBaseTopic, participantsDB, testLogger())
	err := handle(testBaseTopic+"/control/participant/create", map[string]any{
		"participant_id": "site-1",
	})
	require.NoError(t, err)

	p, err := svc.GetParticipant(context.Background(), "site-1")
	require.NoError(t, err)
	assert.False(t, p.Alive)
}

func TestParticipantMarkedOffline(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1")

	handle := manager.Handle(context.Background(), testBaseTopic, participantsDB, testLogger())
	err := handle(testBaseTopic+"/control/participant/alive", map[string]any{
		"participant_id": "site-1",
		"status":         "offline",
	})
	require.NoError(t, err)

	p, err := svc.GetParticipant(context.Background(), "site-1")
	require.NoError(t, err)
	assert.False(t, p.Alive)
}

func TestDeleteParticipant(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1")
	require.NoError(t, svc.DeleteParticipant(context.Background(), "site-1"))

	_, err := svc.GetParticipant(context.Background(), "site-1")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestInitialModelSeeded(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	latest, err := svc.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Version)
	assert.NotEmpty(t, latest.Parameters)

	m, err := svc.GetModel(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Version)

	_, err = svc.GetModel(context.Background(), 5)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRunTrainingSession(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1", "site-2")

	session, err := svc.RunTrainingSession(context.Background(), manager.SessionSpec{
		Rounds:          2,
		MinParticipants: 2,
		Evaluate:        true,
		Date:            winterDate,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 2, session.CompletedRounds)
	assert.Len(t, session.Rounds, 2)
	assert.NotEmpty(t, session.Global)
	for _, round := range session.Rounds {
		assert.Len(t, round.Used, 2)
	}

	latest, err := svc.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
	assert.Equal(t, session.ID, latest.SessionID)

	got, err := svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	page, err := svc.ListSessions(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)

	models, err := svc.ListModels(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), models.Total)
}

func TestRunTrainingSessionInsufficientParticipants(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1")

	_, err := svc.RunTrainingSession(context.Background(), manager.SessionSpec{
		Rounds:          1,
		MinParticipants: 2,
		Date:            winterDate,
	})
	assert.ErrorIs(t, err, errors.ErrInsufficientParticipants)

	latest, err := svc.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Version)
}

func TestGetSessionBeyondFirstPage(t *testing.T) {
	t.Parallel()

	sessionsDB := storage.NewInMemoryStorage()
	checkpoints, err := fl.NewCheckpointStore(t.TempDir())
	require.NoError(t, err)

	svc, err := manager.NewService(
		testConfig(),
		storage.NewInMemoryStorage(),
		sessionsDB,
		storage.NewInMemoryStorage(),
		checkpoints,
		nil,
		"test-channel",
		testLogger(),
	)
	require.NoError(t, err)

	// Enough records to push the newest session past one listing page,
	// keyed by start time the way the service stores them.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 120 {
		s := coordinator.Session{
			ID:        fmt.Sprintf("sess-%03d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		key := s.StartedAt.Format(time.RFC3339Nano) + "-" + s.ID
		require.NoError(t, sessionsDB.Create(context.Background(), key, s))
	}

	got, err := svc.GetSession(context.Background(), "sess-119")
	require.NoError(t, err)
	assert.Equal(t, "sess-119", got.ID)

	_, err = svc.GetSession(context.Background(), "sess-999")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestModelsSurviveRestart(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	participantsDB := storage.NewInMemoryStorage()
	checkpoints, err := fl.NewCheckpointStore(dataDir)
	require.NoError(t, err)
	svc, err := manager.NewService(testConfig(), participantsDB,
		storage.NewInMemoryStorage(), storage.NewInMemoryStorage(),
		checkpoints, nil, "test-channel", testLogger())
	require.NoError(t, err)

	registerAlive(t, participantsDB, "site-1", "site-2")
	session, err := svc.RunTrainingSession(context.Background(), manager.SessionSpec{
		Rounds: 1,
		Date:   winterDate,
	})
	require.NoError(t, err)
	require.Equal(t, 1, session.CompletedRounds)

	restored, err := fl.NewCheckpointStore(dataDir)
	require.NoError(t, err)
	svc2, err := manager.NewService(testConfig(), storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(), storage.NewInMemoryStorage(),
		restored, nil, "test-channel", testLogger())
	require.NoError(t, err)

	latest, err := svc2.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
	assert.NotEmpty(t, latest.Parameters)
}

func TestCheckDriftNoDrift(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	// A threshold no seasonal shift can cross.
	decision, err := svc.CheckDrift(context.Background(), manager.DriftCheckSpec{
		ReferenceDate:     winterDate,
		CurrentDate:       summerDate,
		Threshold:         1000,
		TriggerRetraining: true,
	})
	require.NoError(t, err)
	assert.Equal(t, trigger.OutcomeNoDrift, decision.Outcome)
	assert.False(t, decision.Drift)
	assert.NotEmpty(t, decision.ID)

	page, err := svc.ListDecisions(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestCheckDriftSuppressed(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	// A threshold any seasonal shift crosses.
	decision, err := svc.CheckDrift(context.Background(), manager.DriftCheckSpec{
		ReferenceDate:     winterDate,
		CurrentDate:       summerDate,
		Threshold:         1e-12,
		TriggerRetraining: false,
	})
	require.NoError(t, err)
	assert.Equal(t, trigger.OutcomeSuppressed, decision.Outcome)
	assert.True(t, decision.Drift)
	assert.Greater(t, decision.Score, 0.0)

	latest, err := svc.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Version)
}

func TestCheckDriftRetrained(t *testing.T) {
	t.Parallel()
	svc, participantsDB := setupTestService(t)

	registerAlive(t, participantsDB, "site-1", "site-2")

	decision, err := svc.CheckDrift(context.Background(), manager.DriftCheckSpec{
		ReferenceDate:     winterDate,
		CurrentDate:       summerDate,
		Threshold:         1e-12,
		TriggerRetraining: true,
	})
	require.NoError(t, err)
	assert.Equal(t, trigger.OutcomeRetrained, decision.Outcome)
	assert.True(t, decision.Drift)

	latest, err := svc.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	page, err := svc.ListSessions(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestCheckDriftRetrainingFailed(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	// No alive sites, so the triggered session cannot assemble a pool.
	decision, err := svc.CheckDrift(context.Background(), manager.DriftCheckSpec{
		ReferenceDate:     winterDate,
		CurrentDate:       summerDate,
		Threshold:         1e-12,
		TriggerRetraining: true,
	})
	assert.ErrorIs(t, err, errors.ErrRetrainingFailed)
	assert.Equal(t, trigger.OutcomeRetrainingFailed, decision.Outcome)
	assert.NotEmpty(t, decision.Error)

	page, err := svc.ListDecisions(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}
