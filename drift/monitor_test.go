package drift_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/drift"
	"github.com/fedwatch/fedwatch/pkg/dataset"
	"github.com/fedwatch/fedwatch/pkg/errors"
)

func gaussianColumn(t *testing.T, name string, mean, std float64, n int, seed int64) dataset.Column {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = mean + std*rng.NormFloat64()
	}

	return dataset.Column{Name: name, Values: values}
}

func mustDataset(t *testing.T, columns ...dataset.Column) dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(columns...)
	require.NoError(t, err)

	return ds
}

func TestCheckIdenticalDatasetNoDrift(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t,
		gaussianColumn(t, "heart_rate", 72, 8, 200, 1),
		gaussianColumn(t, "pm25", 15, 4, 200, 2),
	)

	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	verdict, err := m.Check(ref, 0.5)
	require.NoError(t, err)
	assert.Zero(t, verdict.Score)
	assert.False(t, verdict.Drift)
	assert.Len(t, verdict.PerFeature, 2)
}

func TestCheckShiftedMeansDetected(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t,
		gaussianColumn(t, "heart_rate", 72, 8, 500, 3),
		gaussianColumn(t, "pm25", 15, 4, 500, 4),
	)
	// Both means shifted by two reference standard deviations.
	current := mustDataset(t,
		gaussianColumn(t, "heart_rate", 88, 8, 500, 5),
		gaussianColumn(t, "pm25", 23, 4, 500, 6),
	)

	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	verdict, err := m.Check(current, 0.5)
	require.NoError(t, err)
	assert.True(t, verdict.Drift, "two-sigma shift should exceed a 0.5 threshold, score=%f", verdict.Score)

	verdict, err = m.Check(current, 1000)
	require.NoError(t, err)
	assert.False(t, verdict.Drift, "no shift exceeds a 1000 threshold")
	assert.Positive(t, verdict.Score)
}

func TestCheckEmptyCurrentDataset(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t, gaussianColumn(t, "heart_rate", 72, 8, 100, 7))
	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	_, err = m.Check(dataset.Dataset{}, 0.5)
	require.ErrorIs(t, err, errors.ErrInsufficientData)
}

func TestCheckTooSmallCurrentDataset(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t, gaussianColumn(t, "heart_rate", 72, 8, 100, 20))
	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	// One row produces a mean, not a distribution; it must never turn
	// into a confident verdict.
	tiny := mustDataset(t, dataset.Column{Name: "heart_rate", Values: []float64{140}})
	_, err = m.Check(tiny, 0.5)
	require.ErrorIs(t, err, errors.ErrInsufficientData)

	lenient, err := drift.NewMonitor(ref, drift.WithMinCurrentSamples(1))
	require.NoError(t, err)
	verdict, err := lenient.Check(tiny, 0.5)
	require.NoError(t, err)
	assert.True(t, verdict.Drift)
}

func TestNewMonitorRejectsSmallReference(t *testing.T) {
	t.Parallel()

	small := mustDataset(t, gaussianColumn(t, "heart_rate", 72, 8, 10, 8))
	_, err := drift.NewMonitor(small)
	require.ErrorIs(t, err, errors.ErrInsufficientData)

	m, err := drift.NewMonitor(small, drift.WithMinReferenceSamples(5))
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestCheckMissingFeature(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t,
		gaussianColumn(t, "heart_rate", 72, 8, 100, 9),
		gaussianColumn(t, "pm25", 15, 4, 100, 10),
	)
	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	current := mustDataset(t, gaussianColumn(t, "heart_rate", 72, 8, 100, 11))
	_, err = m.Check(current, 0.5)
	require.Error(t, err)
}

func TestMaxReduction(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t,
		gaussianColumn(t, "stable", 10, 2, 300, 12),
		gaussianColumn(t, "shifted", 10, 2, 300, 13),
	)
	current := mustDataset(t,
		gaussianColumn(t, "stable", 10, 2, 300, 14),
		gaussianColumn(t, "shifted", 20, 2, 300, 15),
	)

	meanMon, err := drift.NewMonitor(ref)
	require.NoError(t, err)
	maxMon, err := drift.NewMonitor(ref, drift.WithReduction(drift.ReduceMax))
	require.NoError(t, err)

	meanVerdict, err := meanMon.Check(current, 0.5)
	require.NoError(t, err)
	maxVerdict, err := maxMon.Check(current, 0.5)
	require.NoError(t, err)

	assert.Greater(t, maxVerdict.Score, meanVerdict.Score)
}

func TestSummaryRoundTrip(t *testing.T) {
	t.Parallel()

	ref := mustDataset(t, gaussianColumn(t, "heart_rate", 72, 8, 100, 16))
	m, err := drift.NewMonitor(ref)
	require.NoError(t, err)

	restored, err := drift.NewMonitorFromSummary(m.Summary())
	require.NoError(t, err)

	a, err := m.Check(ref, 0.5)
	require.NoError(t, err)
	b, err := restored.Check(ref, 0.5)
	require.NoError(t, err)
	assert.Equal(t, a.Score, b.Score)
}
