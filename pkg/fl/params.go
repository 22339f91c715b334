package fl

import (
	"fmt"
)

// Tensor is a named, shaped block of model parameters. Values are stored
// flattened in row-major order.
type Tensor struct {
	Name   string    `json:"name"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

func (t Tensor) NumElements() int {
	if len(t.Shape) == 0 {
		return 0
	}

	n := 1
	for _, d := range t.Shape {
		n *= d
	}

	return n
}

func (t Tensor) Clone() Tensor {
	c := Tensor{
		Name:   t.Name,
		Shape:  make([]int, len(t.Shape)),
		Values: make([]float64, len(t.Values)),
	}
	copy(c.Shape, t.Shape)
	copy(c.Values, t.Values)

	return c
}

func (t Tensor) Validate() error {
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("tensor %q: invalid dimension %d", t.Name, d)
		}
	}
	if got, want := len(t.Values), t.NumElements(); got != want {
		return fmt.Errorf("tensor %q: %d values for shape %v (want %d)", t.Name, got, t.Shape, want)
	}

	return nil
}

// Vector builds a rank-1 tensor from the given values.
func Vector(name string, values ...float64) Tensor {
	v := make([]float64, len(values))
	copy(v, values)

	return Tensor{Name: name, Shape: []int{len(values)}, Values: v}
}

// ParameterSet is an ordered sequence of tensors making up one model's
// parameters. Order is significant: two sets are compatible only if they
// have the same length and identical shapes at every index.
type ParameterSet []Tensor

func (p ParameterSet) Compatible(other ParameterSet) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if len(p[i].Shape) != len(other[i].Shape) {
			return false
		}
		for j := range p[i].Shape {
			if p[i].Shape[j] != other[i].Shape[j] {
				return false
			}
		}
	}

	return true
}

func (p ParameterSet) Clone() ParameterSet {
	if p == nil {
		return nil
	}

	c := make(ParameterSet, len(p))
	for i := range p {
		c[i] = p[i].Clone()
	}

	return c
}

func (p ParameterSet) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("empty parameter set")
	}
	for _, t := range p {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// NumParameters is the total scalar count across all tensors.
func (p ParameterSet) NumParameters() int {
	n := 0
	for _, t := range p {
		n += len(t.Values)
	}

	return n
}
