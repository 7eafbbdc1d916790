package calibration

import "time"

// SessionResult is the outcome of one pre-recording calibration attempt.
// When IsCalibrationSuccessful is false every numeric field carries its
// zero value and must not be consumed downstream; every failure kind
// (missing baseline, empty data, stream error, watchdog) is normalized
// into this one signal.
type SessionResult struct {
	SessionAccelOffsetZ     float64 `json:"sessionAccelOffsetZ"`
	GyroZDrift              float64 `json:"gyroZDrift"`
	BumpThreshold           float64 `json:"bumpThreshold"`
	AccelMagnitudeStdDev    float64 `json:"accelMagnitudeStdDev"`
	Timestamp               int64   `json:"timestamp"` // epoch ms
	IsCalibrationSuccessful bool    `json:"isCalibrationSuccessful"`
}

// FailedSessionResult is the zero-filled failure form.
func FailedSessionResult(now time.Time) SessionResult {
	return SessionResult{Timestamp: now.UnixMilli()}
}
