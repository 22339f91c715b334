package dataset

import (
	"fmt"
	"math"

	"github.com/fedwatch/fedwatch/pkg/errors"
)

// Column is a named numeric feature vector.
type Column struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Dataset is an ordered collection of equal-length columns.
type Dataset struct {
	columns []Column
	index   map[string]int
}

func New(columns ...Column) (Dataset, error) {
	ds := Dataset{index: make(map[string]int, len(columns))}
	rows := -1
	for _, c := range columns {
		if c.Name == "" {
			return Dataset{}, errors.ErrEmptyKey
		}
		if _, ok := ds.index[c.Name]; ok {
			return Dataset{}, fmt.Errorf("%w: duplicate column %q", errors.ErrInvalidData, c.Name)
		}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return Dataset{}, fmt.Errorf("%w: column %q has %d rows, want %d",
				errors.ErrInvalidData, c.Name, len(c.Values), rows)
		}
		ds.index[c.Name] = len(ds.columns)
		ds.columns = append(ds.columns, c)
	}

	return ds, nil
}

func (d Dataset) NumRows() int {
	if len(d.columns) == 0 {
		return 0
	}

	return len(d.columns[0].Values)
}

func (d Dataset) NumColumns() int {
	return len(d.columns)
}

// Columns returns the column names in insertion order.
func (d Dataset) Columns() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}

	return names
}

func (d Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}

	return d.columns[i], true
}

func (d Dataset) Mean(name string) (float64, error) {
	c, ok := d.Column(name)
	if !ok {
		return 0, fmt.Errorf("%w: column %q", errors.ErrNotFound, name)
	}
	if len(c.Values) == 0 {
		return 0, errors.ErrInsufficientData
	}

	sum := 0.0
	for _, v := range c.Values {
		sum += v
	}

	return sum / float64(len(c.Values)), nil
}

func (d Dataset) Std(name string) (float64, error) {
	c, ok := d.Column(name)
	if !ok {
		return 0, fmt.Errorf("%w: column %q", errors.ErrNotFound, name)
	}
	if len(c.Values) == 0 {
		return 0, errors.ErrInsufficientData
	}

	mean, err := d.Mean(name)
	if err != nil {
		return 0, err
	}

	sq := 0.0
	for _, v := range c.Values {
		diff := v - mean
		sq += diff * diff
	}

	return math.Sqrt(sq / float64(len(c.Values))), nil
}

// Drop returns a dataset without the named columns.
func (d Dataset) Drop(names ...string) Dataset {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}

	out := Dataset{index: make(map[string]int)}
	for _, c := range d.columns {
		if _, ok := skip[c.Name]; ok {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}

	return out
}

// Tile joins columns from other onto base, repeating their values
// cyclically up to base's row count. This is how per-sensor readings are
// joined onto per-patient rows: each patient row carries the reading of
// one of the site's sensors, preserving the sensors' spread.
func Tile(base, other Dataset, names []string) (Dataset, error) {
	rows := base.NumRows()
	if rows == 0 {
		return Dataset{}, errors.ErrInsufficientData
	}

	columns := make([]Column, 0, len(base.columns)+len(names))
	columns = append(columns, base.columns...)
	for _, name := range names {
		src, ok := other.Column(name)
		if !ok {
			return Dataset{}, fmt.Errorf("%w: tile column %q", errors.ErrNotFound, name)
		}
		if len(src.Values) == 0 {
			return Dataset{}, fmt.Errorf("%w: tile column %q is empty", errors.ErrInsufficientData, name)
		}
		values := make([]float64, rows)
		for i := range values {
			values[i] = src.Values[i%len(src.Values)]
		}
		columns = append(columns, Column{Name: name, Values: values})
	}

	return New(columns...)
}

// Merge broadcasts per-name scalar values as constant columns onto base.
// This is how site-level environmental means are joined onto per-patient
// health rows: every row of the site gets the site's sensor averages.
func Merge(base Dataset, broadcast map[string]float64, order []string) (Dataset, error) {
	rows := base.NumRows()
	if rows == 0 {
		return Dataset{}, errors.ErrInsufficientData
	}

	columns := make([]Column, 0, len(base.columns)+len(broadcast))
	columns = append(columns, base.columns...)
	for _, name := range order {
		v, ok := broadcast[name]
		if !ok {
			return Dataset{}, fmt.Errorf("%w: broadcast column %q", errors.ErrNotFound, name)
		}
		values := make([]float64, rows)
		for i := range values {
			values[i] = v
		}
		columns = append(columns, Column{Name: name, Values: values})
	}

	return New(columns...)
}
