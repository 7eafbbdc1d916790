package calibration

import (
	"errors"
	"math"
)

// Production constants of the recording app.
const (
	// StandardGravity is the accel-Z reading expected from a level,
	// stationary device, in m/s².
	StandardGravity = 9.81

	// MaxGravityDeviation bounds the Z-offset adjustment. A larger
	// deviation means the device was not level during collection, so no
	// correction is trusted and the adjustment is dropped.
	MaxGravityDeviation = 0.5 // m/s²

	// BumpThresholdMultiplier scales the magnitude std-dev when deriving
	// the road-anomaly threshold.
	BumpThresholdMultiplier = 2.5
)

// ErrInsufficientData is reported when a derivation runs over an empty
// sample buffer. It is the accumulator's only failure mode.
var ErrInsufficientData = errors.New("calibration: insufficient data")

// Accumulator collects the three derived per-sample scalars of one
// calibration attempt. It is owned by a single session controller and is
// never shared or pooled across attempts.
type Accumulator struct {
	accelZ    []float64
	gyroZ     []float64
	magnitude []float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Add(accelZ, gyroZ, magnitude float64) {
	a.accelZ = append(a.accelZ, accelZ)
	a.gyroZ = append(a.gyroZ, gyroZ)
	a.magnitude = append(a.magnitude, magnitude)
}

func (a *Accumulator) Count() int {
	return len(a.accelZ)
}

// Derived holds the accumulator outputs a successful session result is
// assembled from.
type Derived struct {
	ZOffsetAdjustment float64
	GyroZDrift        float64
	BumpThreshold     float64
	MagnitudeStdDev   float64
}

func (a *Accumulator) Derive() (Derived, error) {
	adj, err := ZOffsetAdjustment(a.accelZ)
	if err != nil {
		return Derived{}, err
	}
	drift, err := GyroZDrift(a.gyroZ)
	if err != nil {
		return Derived{}, err
	}
	threshold, stdDev, err := BumpThreshold(a.magnitude)
	if err != nil {
		return Derived{}, err
	}
	return Derived{
		ZOffsetAdjustment: adj,
		GyroZDrift:        drift,
		BumpThreshold:     threshold,
		MagnitudeStdDev:   stdDev,
	}, nil
}

// ZOffsetAdjustment returns the additive correction that brings the mean
// corrected accel-Z back to standard gravity. Adjustments beyond
// MaxGravityDeviation are reported as zero.
func ZOffsetAdjustment(accelZ []float64) (float64, error) {
	if len(accelZ) == 0 {
		return 0, ErrInsufficientData
	}
	adj := StandardGravity - mean(accelZ)
	if math.Abs(adj) > MaxGravityDeviation {
		return 0, nil
	}
	return adj, nil
}

// GyroZDrift returns the steady-state gyro-Z bias: the signed mean over
// the collection window, the device presumed stationary.
func GyroZDrift(gyroZ []float64) (float64, error) {
	if len(gyroZ) == 0 {
		return 0, ErrInsufficientData
	}
	return mean(gyroZ), nil
}

// BumpThreshold returns the acceleration-magnitude level above which a
// recording session flags a road anomaly, plus the population std-dev it
// was derived from.
func BumpThreshold(magnitude []float64) (threshold, stdDev float64, err error) {
	if len(magnitude) == 0 {
		return 0, 0, ErrInsufficientData
	}
	m := mean(magnitude)
	stdDev = popStdDev(magnitude, m)
	return m + BumpThresholdMultiplier*stdDev, stdDev, nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func popStdDev(xs []float64, m float64) float64 {
	variance := 0.0
	for _, x := range xs {
		d := x - m
		variance += d * d
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}
