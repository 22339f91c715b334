// Package simulator produces deterministic synthetic wearable and air
// quality data. The same (date, node) pair always yields the same rows,
// and pollution baselines carry seasonal and year-over-year components so
// dates far apart exhibit genuine distribution shift.
package simulator

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/fedwatch/fedwatch/pkg/dataset"
)

const (
	DefaultNumPatients = 500
	DefaultNumSensors  = 20

	dateLayout = "2006-01-02"
)

// HealthFeatures are the per-patient wearable columns, in dataset order.
var HealthFeatures = []string{
	"heart_rate",
	"steps",
	"sleep_hours",
	"respiratory_rate",
	"body_temp",
}

// EnvFeatures are the per-sensor air quality columns, in dataset order.
var EnvFeatures = []string{
	"pm25",
	"pm10",
	"o3",
	"no2",
	"temperature",
	"humidity",
}

// LabelColumn marks rows where the simulated patient is at elevated risk.
const LabelColumn = "high_risk"

func seedFor(kind, date, nodeID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(date))
	h.Write([]byte{0})
	h.Write([]byte(nodeID))

	return int64(h.Sum64())
}

// seasonal is in [0,1], peaking in mid-winter when heating smog is worst.
func seasonal(day time.Time) float64 {
	doy := float64(day.YearDay())

	return (1 + math.Cos(2*math.Pi*(doy-15)/365)) / 2
}

// trend grows slowly with time so the same calendar day drifts year over year.
func trend(day time.Time) float64 {
	epoch := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	return day.Sub(epoch).Hours() / 24 / 365
}

type WearableSimulator struct {
	NumPatients int
}

func NewWearableSimulator(numPatients int) *WearableSimulator {
	if numPatients <= 0 {
		numPatients = DefaultNumPatients
	}

	return &WearableSimulator{NumPatients: numPatients}
}

// GenerateDaily returns one day of wearable readings for every patient at
// the given node, including the high_risk label column.
func (s *WearableSimulator) GenerateDaily(date, nodeID string) (dataset.Dataset, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	rng := rand.New(rand.NewSource(seedFor("wearable", date, nodeID)))
	season := seasonal(day)

	n := s.NumPatients
	heartRate := make([]float64, n)
	steps := make([]float64, n)
	sleep := make([]float64, n)
	respRate := make([]float64, n)
	bodyTemp := make([]float64, n)
	highRisk := make([]float64, n)

	for i := 0; i < n; i++ {
		// Winter pushes resting heart and respiratory rates up a little
		// and activity down.
		heartRate[i] = 72 + 3*season + 8*rng.NormFloat64()
		steps[i] = math.Max(0, 7500-1500*season+2500*rng.NormFloat64())
		sleep[i] = math.Max(2, 7+1.2*rng.NormFloat64())
		respRate[i] = 16 + season + 2*rng.NormFloat64()
		bodyTemp[i] = 36.8 + 0.4*rng.NormFloat64()

		risk := 0.04*(heartRate[i]-72) +
			0.15*(respRate[i]-16) +
			0.2*(7-sleep[i]) +
			0.0002*(7500-steps[i]) +
			0.6*rng.NormFloat64()
		if risk > 1.2 {
			highRisk[i] = 1
		}
	}

	return dataset.New(
		dataset.Column{Name: "heart_rate", Values: heartRate},
		dataset.Column{Name: "steps", Values: steps},
		dataset.Column{Name: "sleep_hours", Values: sleep},
		dataset.Column{Name: "respiratory_rate", Values: respRate},
		dataset.Column{Name: "body_temp", Values: bodyTemp},
		dataset.Column{Name: LabelColumn, Values: highRisk},
	)
}

type EnvironmentalSimulator struct {
	NumSensors int
}

func NewEnvironmentalSimulator(numSensors int) *EnvironmentalSimulator {
	if numSensors <= 0 {
		numSensors = DefaultNumSensors
	}

	return &EnvironmentalSimulator{NumSensors: numSensors}
}

// GenerateSensorData returns one reading per sensor around the given node
// for the given day.
func (s *EnvironmentalSimulator) GenerateSensorData(date, nodeID string) (dataset.Dataset, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	rng := rand.New(rand.NewSource(seedFor("environment", date, nodeID)))
	season := seasonal(day)
	growth := trend(day)

	n := s.NumSensors
	pm25 := make([]float64, n)
	pm10 := make([]float64, n)
	o3 := make([]float64, n)
	no2 := make([]float64, n)
	temperature := make([]float64, n)
	humidity := make([]float64, n)

	doy := float64(day.YearDay())
	for i := 0; i < n; i++ {
		pm25[i] = math.Max(0, 12+18*season+6*growth+4*rng.NormFloat64())
		pm10[i] = math.Max(0, 22+24*season+8*growth+6*rng.NormFloat64())
		// Ozone peaks in summer, opposite to particulates.
		o3[i] = math.Max(0, 30+14*(1-season)+8*rng.NormFloat64())
		no2[i] = math.Max(0, 18+9*season+4*growth+5*rng.NormFloat64())
		temperature[i] = 12 + 11*math.Sin(2*math.Pi*(doy-80)/365) + 3*rng.NormFloat64()
		humidity[i] = math.Min(100, math.Max(10, 60+12*season+8*rng.NormFloat64()))
	}

	return dataset.New(
		dataset.Column{Name: "pm25", Values: pm25},
		dataset.Column{Name: "pm10", Values: pm10},
		dataset.Column{Name: "o3", Values: o3},
		dataset.Column{Name: "no2", Values: no2},
		dataset.Column{Name: "temperature", Values: temperature},
		dataset.Column{Name: "humidity", Values: humidity},
	)
}

// MergedDaily joins one day of wearable rows with the node's sensor
// readings, each patient row carrying the reading of one nearby sensor.
// This is the training and drift-check view of a node's data.
func MergedDaily(wear *WearableSimulator, env *EnvironmentalSimulator, date, nodeID string) (dataset.Dataset, error) {
	health, err := wear.GenerateDaily(date, nodeID)
	if err != nil {
		return dataset.Dataset{}, err
	}

	sensors, err := env.GenerateSensorData(date, nodeID)
	if err != nil {
		return dataset.Dataset{}, err
	}

	return dataset.Tile(health, sensors, EnvFeatures)
}
