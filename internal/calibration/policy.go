package calibration

import "time"

// MaxCalibrationAge is how old a baseline record may get before the
// recording flow must re-run the leveling calibration.
const MaxCalibrationAge = time.Hour

// RecalibrationRequired reports whether a fresh baseline calibration is
// needed: no record at all, or a record strictly older than
// MaxCalibrationAge. A record aged exactly at the boundary is still good.
func RecalibrationRequired(rec *BaselineRecord, now time.Time) bool {
	if rec == nil {
		return true
	}
	return now.Sub(rec.CalibratedAt()) > MaxCalibrationAge
}
