package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/pkg/dataset"
	"github.com/fedwatch/fedwatch/pkg/errors"
)

func TestNewRejectsRaggedColumns(t *testing.T) {
	t.Parallel()

	_, err := dataset.New(
		dataset.Column{Name: "a", Values: []float64{1, 2, 3}},
		dataset.Column{Name: "b", Values: []float64{1, 2}},
	)
	require.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	t.Parallel()

	_, err := dataset.New(
		dataset.Column{Name: "a", Values: []float64{1}},
		dataset.Column{Name: "a", Values: []float64{2}},
	)
	require.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestMeanAndStd(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(dataset.Column{Name: "hr", Values: []float64{70, 80, 90}})
	require.NoError(t, err)

	mean, err := ds.Mean("hr")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, mean, 1e-12)

	std, err := ds.Std("hr")
	require.NoError(t, err)
	assert.InDelta(t, 8.1649658, std, 1e-6)

	_, err = ds.Mean("missing")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMergeBroadcastsConstants(t *testing.T) {
	t.Parallel()

	health, err := dataset.New(
		dataset.Column{Name: "heart_rate", Values: []float64{72, 75, 71}},
	)
	require.NoError(t, err)

	merged, err := dataset.Merge(health, map[string]float64{"pm25": 12.5}, []string{"pm25"})
	require.NoError(t, err)

	assert.Equal(t, 3, merged.NumRows())
	assert.Equal(t, []string{"heart_rate", "pm25"}, merged.Columns())

	pm, ok := merged.Column("pm25")
	require.True(t, ok)
	assert.Equal(t, []float64{12.5, 12.5, 12.5}, pm.Values)
}

func TestTileRepeatsCyclically(t *testing.T) {
	t.Parallel()

	base, err := dataset.New(
		dataset.Column{Name: "heart_rate", Values: []float64{72, 75, 71, 80, 68}},
	)
	require.NoError(t, err)

	sensors, err := dataset.New(
		dataset.Column{Name: "pm25", Values: []float64{10, 20}},
	)
	require.NoError(t, err)

	tiled, err := dataset.Tile(base, sensors, []string{"pm25"})
	require.NoError(t, err)

	pm, ok := tiled.Column("pm25")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 10, 20, 10}, pm.Values)

	_, err = dataset.Tile(base, sensors, []string{"missing"})
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDrop(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(
		dataset.Column{Name: "heart_rate", Values: []float64{72}},
		dataset.Column{Name: "high_risk", Values: []float64{1}},
	)
	require.NoError(t, err)

	features := ds.Drop("high_risk")
	assert.Equal(t, []string{"heart_rate"}, features.Columns())
	_, ok := features.Column("high_risk")
	assert.False(t, ok)
}
