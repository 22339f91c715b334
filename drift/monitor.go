// Package drift detects distribution shift between a reference dataset and
// current observations using per-feature summary statistics.
package drift

import (
	"fmt"
	"math"
	"time"

	"github.com/fedwatch/fedwatch/pkg/dataset"
	"github.com/fedwatch/fedwatch/pkg/errors"
)

const (
	DefaultMinReferenceSamples = 30
	DefaultMinCurrentSamples   = 10

	// stdFloor guards the standardized shift against near-constant
	// reference features.
	stdFloor = 1e-9
)

// FeatureSummary holds the reference statistics for one feature.
type FeatureSummary struct {
	Name    string  `json:"name"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Samples int     `json:"samples"`
}

// Summary is an immutable snapshot of the reference distribution.
type Summary struct {
	Features  []FeatureSummary `json:"features"`
	CreatedAt time.Time        `json:"created_at"`
}

// Scorer converts a reference summary and the current mean of the same
// feature into a non-negative drift score.
type Scorer func(ref FeatureSummary, currentMean float64) float64

// StandardizedMeanShift is the default scorer: the absolute difference of
// means in units of the reference standard deviation.
func StandardizedMeanShift(ref FeatureSummary, currentMean float64) float64 {
	std := ref.Std
	if std < stdFloor {
		std = stdFloor
	}

	return math.Abs(currentMean-ref.Mean) / std
}

type Reduction int

const (
	ReduceMean Reduction = iota
	ReduceMax
)

// FeatureScore reports the drift contribution of a single feature.
type FeatureScore struct {
	Name          string  `json:"name"`
	ReferenceMean float64 `json:"reference_mean"`
	CurrentMean   float64 `json:"current_mean"`
	Score         float64 `json:"score"`
}

// Verdict is the outcome of one drift check.
type Verdict struct {
	Score      float64        `json:"score"`
	Threshold  float64        `json:"threshold"`
	Drift      bool           `json:"drift"`
	PerFeature []FeatureScore `json:"per_feature"`
	CheckedAt  time.Time      `json:"checked_at"`
}

type Option func(*Monitor)

func WithScorer(s Scorer) Option {
	return func(m *Monitor) {
		m.scorer = s
	}
}

func WithReduction(r Reduction) Option {
	return func(m *Monitor) {
		m.reduce = r
	}
}

func WithMinReferenceSamples(n int) Option {
	return func(m *Monitor) {
		m.minSamples = n
	}
}

func WithMinCurrentSamples(n int) Option {
	return func(m *Monitor) {
		m.minCurrent = n
	}
}

// Monitor scores current datasets against a fixed reference summary. A
// Monitor is safe for concurrent use once built; the summary never changes.
type Monitor struct {
	summary    Summary
	scorer     Scorer
	reduce     Reduction
	minSamples int
	minCurrent int
}

func NewMonitor(reference dataset.Dataset, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		scorer:     StandardizedMeanShift,
		reduce:     ReduceMean,
		minSamples: DefaultMinReferenceSamples,
		minCurrent: DefaultMinCurrentSamples,
	}
	for _, opt := range opts {
		opt(m)
	}

	rows := reference.NumRows()
	if rows < m.minSamples {
		return nil, fmt.Errorf("%w: reference has %d samples, need %d",
			errors.ErrInsufficientData, rows, m.minSamples)
	}
	if reference.NumColumns() == 0 {
		return nil, fmt.Errorf("%w: reference has no features", errors.ErrInsufficientData)
	}

	summary := Summary{CreatedAt: time.Now().UTC()}
	for _, name := range reference.Columns() {
		mean, err := reference.Mean(name)
		if err != nil {
			return nil, err
		}
		std, err := reference.Std(name)
		if err != nil {
			return nil, err
		}
		summary.Features = append(summary.Features, FeatureSummary{
			Name:    name,
			Mean:    mean,
			Std:     std,
			Samples: rows,
		})
	}
	m.summary = summary

	return m, nil
}

// NewMonitorFromSummary rebuilds a monitor from a previously persisted
// reference summary.
func NewMonitorFromSummary(summary Summary, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		scorer:     StandardizedMeanShift,
		reduce:     ReduceMean,
		minSamples: DefaultMinReferenceSamples,
		minCurrent: DefaultMinCurrentSamples,
	}
	for _, opt := range opts {
		opt(m)
	}

	if len(summary.Features) == 0 {
		return nil, fmt.Errorf("%w: summary has no features", errors.ErrInsufficientData)
	}
	for _, f := range summary.Features {
		if f.Samples < m.minSamples {
			return nil, fmt.Errorf("%w: feature %q summarized from %d samples, need %d",
				errors.ErrInsufficientData, f.Name, f.Samples, m.minSamples)
		}
	}
	m.summary = summary

	return m, nil
}

func (m *Monitor) Summary() Summary {
	return m.summary
}

// Check scores the current dataset against the reference. Drift is declared
// when the reduced score reaches the threshold. An empty or too-small
// current dataset is an error, never a zero verdict: a handful of rows
// yields a mean too noisy to compare against the reference.
func (m *Monitor) Check(current dataset.Dataset, threshold float64) (Verdict, error) {
	if rows := current.NumRows(); rows < m.minCurrent {
		return Verdict{}, fmt.Errorf("%w: current dataset has %d samples, need %d",
			errors.ErrInsufficientData, rows, m.minCurrent)
	}

	verdict := Verdict{
		Threshold: threshold,
		CheckedAt: time.Now().UTC(),
	}

	var sum, max float64
	for _, ref := range m.summary.Features {
		curMean, err := current.Mean(ref.Name)
		if err != nil {
			return Verdict{}, fmt.Errorf("feature %q missing from current dataset: %w", ref.Name, err)
		}

		score := m.scorer(ref, curMean)
		verdict.PerFeature = append(verdict.PerFeature, FeatureScore{
			Name:          ref.Name,
			ReferenceMean: ref.Mean,
			CurrentMean:   curMean,
			Score:         score,
		})
		sum += score
		if score > max {
			max = score
		}
	}

	switch m.reduce {
	case ReduceMax:
		verdict.Score = max
	default:
		verdict.Score = sum / float64(len(m.summary.Features))
	}
	verdict.Drift = verdict.Score >= threshold

	return verdict, nil
}
