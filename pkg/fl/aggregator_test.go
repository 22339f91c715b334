package fl_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fedwatch/fedwatch/pkg/fl"
)

func TestFedAvgWeightedMean(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	results := []fl.FitResult{
		{
			ParticipantID: "node-a",
			NumExamples:   10,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 2.0)},
		},
		{
			ParticipantID: "node-b",
			NumExamples:   30,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 4.0)},
		},
	}

	got, err := agg.Aggregate(results)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 3.5, got[0].Values[0], 1e-12)
}

func TestFedAvgSingleResult(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	results := []fl.FitResult{
		{
			ParticipantID: "node-a",
			NumExamples:   5,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1.0, -2.0, 3.0)},
		},
	}

	got, err := agg.Aggregate(results)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, -2.0, 3.0}, got[0].Values)
}

func TestFedAvgEmptyInput(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	_, err := agg.Aggregate(nil)
	require.ErrorIs(t, err, fl.ErrNoResults)

	_, err = agg.Aggregate([]fl.FitResult{})
	require.ErrorIs(t, err, fl.ErrNoResults)
}

func TestFedAvgShapeMismatch(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	results := []fl.FitResult{
		{
			ParticipantID: "node-a",
			NumExamples:   10,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1.0, 2.0)},
		},
		{
			ParticipantID: "node-b",
			NumExamples:   10,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1.0, 2.0, 3.0)},
		},
	}

	_, err := agg.Aggregate(results)
	require.ErrorIs(t, err, fl.ErrShapeMismatch)
}

func TestFedAvgZeroExamples(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	results := []fl.FitResult{
		{
			ParticipantID: "node-a",
			NumExamples:   0,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1.0)},
		},
		{
			ParticipantID: "node-b",
			NumExamples:   0,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 2.0)},
		},
	}

	_, err := agg.Aggregate(results)
	require.ErrorIs(t, err, fl.ErrNoExamples)
}

func TestFedAvgZeroExampleResultContributesNothing(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()
	results := []fl.FitResult{
		{
			ParticipantID: "node-a",
			NumExamples:   20,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1.0)},
		},
		{
			ParticipantID: "node-b",
			NumExamples:   0,
			Parameters:    fl.ParameterSet{fl.Vector("coef", 1000.0)},
		},
	}

	got, err := agg.Aggregate(results)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0].Values[0], 1e-12)
}

func TestFedAvgOrderInvariance(t *testing.T) {
	t.Parallel()

	agg := fl.NewFedAvgAggregator()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		dim := rapid.IntRange(1, 6).Draw(rt, "dim")

		results := make([]fl.FitResult, n)
		ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		for i := range results {
			values := make([]float64, dim)
			for j := range values {
				values[j] = rapid.Float64Range(-100, 100).Draw(rt, "v")
			}
			results[i] = fl.FitResult{
				ParticipantID: ids[i],
				NumExamples:   rapid.IntRange(1, 1000).Draw(rt, "examples"),
				Parameters:    fl.ParameterSet{fl.Vector("coef", values...)},
			}
		}

		want, err := agg.Aggregate(results)
		require.NoError(rt, err)

		shuffled := make([]fl.FitResult, n)
		copy(shuffled, results)
		seed := rapid.Int64().Draw(rt, "seed")
		rand.New(rand.NewSource(seed)).Shuffle(n, func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got, err := agg.Aggregate(shuffled)
		require.NoError(rt, err)
		require.Equal(rt, want, got)
	})
}
