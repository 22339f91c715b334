package trigger_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/drift"
	"github.com/fedwatch/fedwatch/pkg/dataset"
	pkgerrors "github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/trigger"
)

func column(t *testing.T, name string, mean, std float64, n int, seed int64) dataset.Column {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = mean + std*rng.NormFloat64()
	}

	return dataset.Column{Name: name, Values: values}
}

func newMonitor(t *testing.T) *drift.Monitor {
	t.Helper()

	ref, err := dataset.New(column(t, "heart_rate", 72, 8, 200, 1))
	require.NoError(t, err)

	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	return m
}

func shiftedDataset(t *testing.T) dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(column(t, "heart_rate", 95, 8, 200, 2))
	require.NoError(t, err)

	return ds
}

func steadyDataset(t *testing.T) dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(column(t, "heart_rate", 72, 8, 200, 3))
	require.NoError(t, err)

	return ds
}

type countingRecorder struct {
	mu        sync.Mutex
	decisions []trigger.Decision
}

func (r *countingRecorder) Record(_ context.Context, d trigger.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)

	return nil
}

func TestCheckDriftTriggersRetrainingExactlyOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	rec := &countingRecorder{}
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		calls.Add(1)

		return nil
	}), trigger.WithRecorder(rec))
	require.NoError(t, err)

	decision, err := tr.Check(context.Background(), shiftedDataset(t), 0.5, true)
	require.NoError(t, err)
	assert.True(t, decision.Drift)
	assert.Equal(t, trigger.OutcomeRetrained, decision.Outcome)
	assert.Equal(t, int64(1), calls.Load())
	assert.Len(t, rec.decisions, 1)
	assert.Equal(t, trigger.StateIdle, tr.State())
}

func TestCheckNoDriftDoesNotRetrain(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		calls.Add(1)

		return nil
	}))
	require.NoError(t, err)

	decision, err := tr.Check(context.Background(), steadyDataset(t), 0.5, true)
	require.NoError(t, err)
	assert.False(t, decision.Drift)
	assert.Equal(t, trigger.OutcomeNoDrift, decision.Outcome)
	assert.Zero(t, calls.Load())
}

func TestCheckRetrainingDisabledSuppressed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		calls.Add(1)

		return nil
	}))
	require.NoError(t, err)

	decision, err := tr.Check(context.Background(), shiftedDataset(t), 0.5, false)
	require.NoError(t, err)
	assert.True(t, decision.Drift)
	assert.Equal(t, trigger.OutcomeSuppressed, decision.Outcome)
	assert.Zero(t, calls.Load())
}

func TestCheckRetrainingFailureSurfaced(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{}
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		return errors.New("no alive participants")
	}), trigger.WithRecorder(rec))
	require.NoError(t, err)

	decision, err := tr.Check(context.Background(), shiftedDataset(t), 0.5, true)
	require.ErrorIs(t, err, pkgerrors.ErrRetrainingFailed)
	assert.Equal(t, trigger.OutcomeRetrainingFailed, decision.Outcome)
	assert.NotEmpty(t, decision.Error)

	// The failed check is still recorded, exactly once.
	assert.Len(t, rec.decisions, 1)
	assert.Equal(t, trigger.StateIdle, tr.State())
}

func TestCheckInsufficientDataRecordsNothing(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{}
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		return nil
	}), trigger.WithRecorder(rec))
	require.NoError(t, err)

	_, err = tr.Check(context.Background(), dataset.Dataset{}, 0.5, true)
	require.ErrorIs(t, err, pkgerrors.ErrInsufficientData)
	assert.Empty(t, rec.decisions)
	assert.Equal(t, trigger.StateIdle, tr.State())
}

func TestConcurrentCheckRejected(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	tr, err := trigger.New(newMonitor(t), trigger.RetrainerFunc(func(context.Context) error {
		close(started)
		<-release

		return nil
	}))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := tr.Check(context.Background(), shiftedDataset(t), 0.5, true)
		assert.NoError(t, err)
	}()

	<-started
	assert.Equal(t, trigger.StateTriggering, tr.State())

	_, err = tr.Check(context.Background(), shiftedDataset(t), 0.5, true)
	require.ErrorIs(t, err, trigger.ErrCheckInProgress)

	close(release)
	<-done
	assert.Equal(t, trigger.StateIdle, tr.State())
}
