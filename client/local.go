// Package client provides coordinator participants: an in-process one
// training on simulated node data, and an adapter for participants
// reachable over HTTP.
package client

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fedwatch/fedwatch/pkg/fl"
	"github.com/fedwatch/fedwatch/simulator"
)

const (
	defaultEpochs       = 5
	defaultLearningRate = 0.1
)

// FeatureOrder is the fixed column order the model consumes: wearable
// features first, then air quality. Coefficient index i always refers to
// the same feature on every node.
var FeatureOrder = append(append([]string{}, simulator.HealthFeatures...), simulator.EnvFeatures...)

// InitialModel returns the version-zero global model: one coefficient per
// feature plus an intercept, all zero.
func InitialModel() fl.ParameterSet {
	return fl.ParameterSet{
		fl.Vector("coef", make([]float64, len(FeatureOrder))...),
		fl.Vector("intercept", 0),
	}
}

type LocalOption func(*Local)

func WithEpochs(n int) LocalOption {
	return func(l *Local) {
		l.epochs = n
	}
}

func WithLearningRate(lr float64) LocalOption {
	return func(l *Local) {
		l.lr = lr
	}
}

// Local is a participant that trains a logistic risk model on its own
// node's simulated data. It never ships rows, only parameters.
type Local struct {
	id     string
	nodeID string
	date   string
	wear   *simulator.WearableSimulator
	env    *simulator.EnvironmentalSimulator
	epochs int
	lr     float64
}

func NewLocal(id, nodeID, date string, wear *simulator.WearableSimulator, env *simulator.EnvironmentalSimulator, opts ...LocalOption) *Local {
	l := &Local{
		id:     id,
		nodeID: nodeID,
		date:   date,
		wear:   wear,
		env:    env,
		epochs: defaultEpochs,
		lr:     defaultLearningRate,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Local) ID() string { return l.id }

func (l *Local) Fit(ctx context.Context, params fl.ParameterSet) (fl.FitResult, error) {
	features, labels, err := l.loadData()
	if err != nil {
		return fl.FitResult{}, err
	}

	coef, intercept, err := unpack(params)
	if err != nil {
		return fl.FitResult{}, err
	}

	n := len(labels)
	var loss float64
	for epoch := 0; epoch < l.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return fl.FitResult{}, err
		}

		loss = 0
		for i := 0; i < n; i++ {
			p := sigmoid(dot(coef, features[i]) + intercept)
			loss += logLoss(labels[i], p)

			grad := p - labels[i]
			for j := range coef {
				coef[j] -= l.lr * grad * features[i][j] / float64(n)
			}
			intercept -= l.lr * grad / float64(n)
		}
		loss /= float64(n)
	}

	return fl.FitResult{
		ParticipantID: l.id,
		NumExamples:   n,
		Parameters: fl.ParameterSet{
			fl.Vector("coef", coef...),
			fl.Vector("intercept", intercept),
		},
		Metrics: map[string]float64{"loss": loss},
	}, nil
}

func (l *Local) Evaluate(ctx context.Context, params fl.ParameterSet) (fl.EvalResult, error) {
	if err := ctx.Err(); err != nil {
		return fl.EvalResult{}, err
	}

	features, labels, err := l.loadData()
	if err != nil {
		return fl.EvalResult{}, err
	}

	coef, intercept, err := unpack(params)
	if err != nil {
		return fl.EvalResult{}, err
	}

	n := len(labels)
	scores := make([]float64, n)
	var loss float64
	for i := 0; i < n; i++ {
		scores[i] = sigmoid(dot(coef, features[i]) + intercept)
		loss += logLoss(labels[i], scores[i])
	}
	loss /= float64(n)

	return fl.EvalResult{
		ParticipantID: l.id,
		Loss:          loss,
		NumExamples:   n,
		Metrics:       map[string]float64{"auc": auc(labels, scores)},
	}, nil
}

// loadData returns per-row standardized feature vectors and labels for
// this node's day. Standardization keeps the step counts from drowning
// out everything else during SGD.
func (l *Local) loadData() ([][]float64, []float64, error) {
	merged, err := simulator.MergedDaily(l.wear, l.env, l.date, l.nodeID)
	if err != nil {
		return nil, nil, err
	}

	n := merged.NumRows()
	features := make([][]float64, n)
	for i := range features {
		features[i] = make([]float64, len(FeatureOrder))
	}

	for j, name := range FeatureOrder {
		col, ok := merged.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("missing feature column %q", name)
		}
		mean, err := merged.Mean(name)
		if err != nil {
			return nil, nil, err
		}
		std, err := merged.Std(name)
		if err != nil {
			return nil, nil, err
		}
		if std < 1e-9 {
			std = 1
		}
		for i := 0; i < n; i++ {
			features[i][j] = (col.Values[i] - mean) / std
		}
	}

	labelCol, ok := merged.Column(simulator.LabelColumn)
	if !ok {
		return nil, nil, fmt.Errorf("missing label column %q", simulator.LabelColumn)
	}
	labels := make([]float64, n)
	copy(labels, labelCol.Values)

	return features, labels, nil
}

func unpack(params fl.ParameterSet) ([]float64, float64, error) {
	if len(params) != 2 {
		return nil, 0, fmt.Errorf("expected coef and intercept tensors, got %d", len(params))
	}
	if len(params[0].Values) != len(FeatureOrder) {
		return nil, 0, fmt.Errorf("expected %d coefficients, got %d", len(FeatureOrder), len(params[0].Values))
	}
	if len(params[1].Values) != 1 {
		return nil, 0, fmt.Errorf("expected scalar intercept, got %d values", len(params[1].Values))
	}

	coef := make([]float64, len(params[0].Values))
	copy(coef, params[0].Values)

	return coef, params[1].Values[0], nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}

	return s
}

func logLoss(y, p float64) float64 {
	const eps = 1e-12
	p = math.Min(1-eps, math.Max(eps, p))

	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// auc is the probability a random positive scores above a random negative,
// computed from ranks. Ties get midranks. Degenerate single-class labels
// report 0.5.
func auc(labels, scores []float64) float64 {
	type pair struct {
		score float64
		label float64
	}

	pairs := make([]pair, len(labels))
	for i := range labels {
		pairs[i] = pair{score: scores[i], label: labels[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	var posRankSum float64
	var numPos, numNeg float64
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		midrank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if pairs[k].label > 0 {
				posRankSum += midrank
				numPos++
			} else {
				numNeg++
			}
		}
		i = j
	}

	if numPos == 0 || numNeg == 0 {
		return 0.5
	}

	return (posRankSum - numPos*(numPos+1)/2) / (numPos * numNeg)
}
