package calibration

import (
	"fmt"
	"math"
	"time"
)

// BaselineRecord is the persisted device-leveling calibration: per-axis
// offsets plus the orientation the device was held in when they were
// measured. A record is always fully populated; the "uncalibrated" form
// comes from InitialBaselineRecord, never from a partially filled value.
// Re-calibration supersedes the record wholesale.
type BaselineRecord struct {
	DeviceOrientation    DeviceOrientation `json:"deviceOrientation"`
	AccelX               float64           `json:"accelX"`
	AccelY               float64           `json:"accelY"`
	AccelZ               float64           `json:"accelZ"`
	GyroX                float64           `json:"gyroX"`
	GyroY                float64           `json:"gyroY"`
	GyroZ                float64           `json:"gyroZ"`
	CalibrationTimestamp int64             `json:"calibrationTimestamp"` // epoch ms
}

// NewBaselineRecord builds a fully populated record. Offsets must be
// finite; a NaN or infinite offset would poison every corrected sample of
// every later session.
func NewBaselineRecord(o DeviceOrientation, accelX, accelY, accelZ, gyroX, gyroY, gyroZ float64, takenAt time.Time) (BaselineRecord, error) {
	for _, v := range []float64{accelX, accelY, accelZ, gyroX, gyroY, gyroZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return BaselineRecord{}, fmt.Errorf("calibration: non-finite axis offset %v", v)
		}
	}
	return BaselineRecord{
		DeviceOrientation:    o,
		AccelX:               accelX,
		AccelY:               accelY,
		AccelZ:               accelZ,
		GyroX:                gyroX,
		GyroY:                gyroY,
		GyroZ:                gyroZ,
		CalibrationTimestamp: takenAt.UnixMilli(),
	}, nil
}

// InitialBaselineRecord is the valid-but-uncalibrated form: unknown
// orientation, zero offsets, current timestamp.
func InitialBaselineRecord(now time.Time) BaselineRecord {
	return BaselineRecord{
		DeviceOrientation:    OrientationUnknown,
		CalibrationTimestamp: now.UnixMilli(),
	}
}

func (r BaselineRecord) CalibratedAt() time.Time {
	return time.UnixMilli(r.CalibrationTimestamp)
}
