package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/drift"
	"github.com/fedwatch/fedwatch/simulator"
)

func TestGenerateDailyDeterministic(t *testing.T) {
	t.Parallel()

	sim := simulator.NewWearableSimulator(100)

	a, err := sim.GenerateDaily("2024-01-15", "hospital_01")
	require.NoError(t, err)
	b, err := sim.GenerateDaily("2024-01-15", "hospital_01")
	require.NoError(t, err)

	hrA, _ := a.Column("heart_rate")
	hrB, _ := b.Column("heart_rate")
	assert.Equal(t, hrA.Values, hrB.Values)
}

func TestGenerateDailyVariesByNode(t *testing.T) {
	t.Parallel()

	sim := simulator.NewWearableSimulator(100)

	a, err := sim.GenerateDaily("2024-01-15", "hospital_01")
	require.NoError(t, err)
	b, err := sim.GenerateDaily("2024-01-15", "hospital_02")
	require.NoError(t, err)

	hrA, _ := a.Column("heart_rate")
	hrB, _ := b.Column("heart_rate")
	assert.NotEqual(t, hrA.Values, hrB.Values)
}

func TestGenerateDailyRejectsBadDate(t *testing.T) {
	t.Parallel()

	sim := simulator.NewWearableSimulator(10)
	_, err := sim.GenerateDaily("15/01/2024", "hospital_01")
	require.Error(t, err)
}

func TestMergedDailyShape(t *testing.T) {
	t.Parallel()

	wear := simulator.NewWearableSimulator(50)
	env := simulator.NewEnvironmentalSimulator(5)

	merged, err := simulator.MergedDaily(wear, env, "2024-01-15", "hospital_01")
	require.NoError(t, err)

	assert.Equal(t, 50, merged.NumRows())
	want := len(simulator.HealthFeatures) + 1 + len(simulator.EnvFeatures)
	assert.Equal(t, want, merged.NumColumns())

	// Sensor readings repeat cyclically across patient rows.
	pm, ok := merged.Column("pm25")
	require.True(t, ok)
	for i, v := range pm.Values {
		assert.Equal(t, pm.Values[i%5], v)
	}
}

func TestSeasonalShiftIsDetectableDrift(t *testing.T) {
	t.Parallel()

	wear := simulator.NewWearableSimulator(500)
	env := simulator.NewEnvironmentalSimulator(20)

	winter, err := simulator.MergedDaily(wear, env, "2024-01-14", "hospital_01")
	require.NoError(t, err)
	summer, err := simulator.MergedDaily(wear, env, "2024-07-14", "hospital_01")
	require.NoError(t, err)

	m, err := drift.NewMonitor(winter.Drop(simulator.LabelColumn))
	require.NoError(t, err)

	verdict, err := m.Check(summer.Drop(simulator.LabelColumn), 0.5)
	require.NoError(t, err)
	assert.True(t, verdict.Drift, "winter to summer shift should drift, score=%f", verdict.Score)

	near, err := simulator.MergedDaily(wear, env, "2024-01-15", "hospital_01")
	require.NoError(t, err)
	verdict, err = m.Check(near.Drop(simulator.LabelColumn), 1000)
	require.NoError(t, err)
	assert.False(t, verdict.Drift)
}
