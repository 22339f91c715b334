package fl

import (
	"fmt"
	"sort"
)

// FedAvgAggregator computes the example-count-weighted mean of participant
// parameters. Results are accumulated in participant-ID order so the output
// is bitwise identical regardless of arrival order.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(results []FitResult) (ParameterSet, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	sorted := make([]FitResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ParticipantID < sorted[j].ParticipantID
	})

	ref := sorted[0].Parameters
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("result from %s: %w", sorted[0].ParticipantID, err)
	}

	for _, r := range sorted[1:] {
		if err := r.Parameters.Validate(); err != nil {
			return nil, fmt.Errorf("result from %s: %w", r.ParticipantID, err)
		}
		if !ref.Compatible(r.Parameters) {
			return nil, fmt.Errorf("result from %s: %w", r.ParticipantID, ErrShapeMismatch)
		}
	}

	sum := make(ParameterSet, len(ref))
	for i, t := range ref {
		sum[i] = Tensor{
			Name:   t.Name,
			Shape:  append([]int(nil), t.Shape...),
			Values: make([]float64, len(t.Values)),
		}
	}

	var total int64
	for _, r := range sorted {
		if r.NumExamples <= 0 {
			continue
		}

		weight := float64(r.NumExamples)
		total += int64(r.NumExamples)

		for i, t := range r.Parameters {
			for j, v := range t.Values {
				sum[i].Values[j] += v * weight
			}
		}
	}

	if total == 0 {
		return nil, ErrNoExamples
	}

	norm := float64(total)
	for i := range sum {
		for j := range sum[i].Values {
			sum[i].Values[j] /= norm
		}
	}

	return sum, nil
}
