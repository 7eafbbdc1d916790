package calibration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"roadsense/internal/motion"
)

// BaselineParams bound the initial leveling-calibration window.
type BaselineParams struct {
	CollectDuration time.Duration
	WatchdogGrace   time.Duration
}

const defaultBaselineDuration = 5 * time.Second

func (p BaselineParams) withDefaults() BaselineParams {
	if p.CollectDuration <= 0 {
		p.CollectDuration = defaultBaselineDuration
	}
	if p.WatchdogGrace <= 0 {
		p.WatchdogGrace = defaultWatchdogGrace
	}
	return p
}

// PerformBaselineCalibration runs the one-time leveling calibration the
// session flow consumes: collect a short stationary window, detect the
// device orientation from the dominant accelerometer axis, and store the
// mean residual after removing the expected gravity component as the
// per-axis offsets. The caller persists the returned record.
//
// Unlike the session flow this returns real errors; it is driven
// interactively and the user can retry.
func PerformBaselineCalibration(ctx context.Context, src motion.Source, params BaselineParams) (BaselineRecord, error) {
	params = params.withDefaults()

	if !src.Active() {
		if err := src.Start(ctx); err != nil {
			return BaselineRecord{}, fmt.Errorf("calibration: sensor start: %w", err)
		}
	}
	sub, err := src.Subscribe(ctx)
	if err != nil {
		return BaselineRecord{}, fmt.Errorf("calibration: sensor subscribe: %w", err)
	}
	defer sub.Cancel()

	var sumAx, sumAy, sumAz, sumGx, sumGy, sumGz float64
	n := 0

	start := time.Now()
	deadline := start.Add(params.CollectDuration)
	watchdog := time.NewTimer(params.CollectDuration + params.WatchdogGrace)
	defer watchdog.Stop()

collect:
	for {
		select {
		case <-ctx.Done():
			return BaselineRecord{}, ctx.Err()
		case <-watchdog.C:
			return BaselineRecord{}, errors.New("calibration: baseline collection timed out without samples")
		case s, ok := <-sub.C:
			if !ok {
				if streamErr := sub.Err(); streamErr != nil {
					return BaselineRecord{}, fmt.Errorf("calibration: stream: %w", streamErr)
				}
				break collect
			}
			sumAx += s.AccelX
			sumAy += s.AccelY
			sumAz += s.AccelZ
			sumGx += s.GyroX
			sumGy += s.GyroY
			sumGz += s.GyroZ
			n++
			if !time.Now().Before(deadline) {
				break collect
			}
		}
	}

	if n == 0 {
		return BaselineRecord{}, ErrInsufficientData
	}

	fn := float64(n)
	meanAx, meanAy, meanAz := sumAx/fn, sumAy/fn, sumAz/fn

	o := detectOrientation(meanAx, meanAy, meanAz)
	cx, cy, cz := CanonicalAccel(meanAx, meanAy, meanAz, o)
	ex, ey, ez := expectedGravity(o, cx, cy, cz)

	rec, err := NewBaselineRecord(o, cx-ex, cy-ey, cz-ez, sumGx/fn, sumGy/fn, sumGz/fn, time.Now())
	if err != nil {
		return BaselineRecord{}, err
	}
	log.Printf("calibration: baseline complete, orientation=%s samples=%d offsets=(%.4f %.4f %.4f)",
		o, n, rec.AccelX, rec.AccelY, rec.AccelZ)
	return rec, nil
}

// detectOrientation picks the orientation whose expected gravity axis is
// the dominant component of the mean accelerometer reading. Ties prefer
// flat, then portrait.
func detectOrientation(ax, ay, az float64) DeviceOrientation {
	absX, absY, absZ := math.Abs(ax), math.Abs(ay), math.Abs(az)
	switch {
	case absZ >= absX && absZ >= absY:
		return OrientationFlat
	case absY >= absX:
		return OrientationPortrait
	case ax >= 0:
		return OrientationLandscapeRight
	default:
		return OrientationLandscapeLeft
	}
}

// expectedGravity returns the gravity vector a perfectly calibrated
// device would report in the canonical frame: on Z when flat, on Y when
// upright (portrait, or landscape after the axis swap), signed to match
// the observed reading.
func expectedGravity(o DeviceOrientation, cx, cy, cz float64) (float64, float64, float64) {
	switch o {
	case OrientationFlat:
		return 0, 0, math.Copysign(StandardGravity, cz)
	case OrientationPortrait, OrientationLandscapeRight, OrientationLandscapeLeft:
		return 0, math.Copysign(StandardGravity, cy), 0
	default:
		return 0, 0, math.Copysign(StandardGravity, cz)
	}
}
