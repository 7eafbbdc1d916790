package calibration

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestNewBaselineRecord_RejectsNonFinite(t *testing.T) {
	if _, err := NewBaselineRecord(OrientationFlat, math.NaN(), 0, 0, 0, 0, 0, time.Now()); err == nil {
		t.Fatalf("expected error for NaN offset")
	}
	if _, err := NewBaselineRecord(OrientationFlat, 0, 0, math.Inf(1), 0, 0, 0, time.Now()); err == nil {
		t.Fatalf("expected error for infinite offset")
	}
}

func TestBaselineRecord_JSONRoundTrip(t *testing.T) {
	takenAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	rec, err := NewBaselineRecord(OrientationLandscapeLeft, 0.1, -0.2, 0.3, 0.01, -0.02, 0.03, takenAt)
	if err != nil {
		t.Fatalf("NewBaselineRecord() error: %v", err)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got BaselineRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != rec {
		t.Fatalf("round trip got=%+v want=%+v", got, rec)
	}
	if got.CalibratedAt().UnixMilli() != takenAt.UnixMilli() {
		t.Fatalf("calibratedAt=%v want=%v", got.CalibratedAt(), takenAt)
	}
}

func TestBaselineRecord_JSONFieldNames(t *testing.T) {
	rec := InitialBaselineRecord(time.Now())
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{
		"deviceOrientation",
		"accelX", "accelY", "accelZ",
		"gyroX", "gyroY", "gyroZ",
		"calibrationTimestamp",
	}
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			t.Fatalf("missing field %q in %s", k, b)
		}
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields want %d: %s", len(fields), len(want), b)
	}
}

func TestInitialBaselineRecord(t *testing.T) {
	now := time.Now()
	rec := InitialBaselineRecord(now)
	if rec.DeviceOrientation != OrientationUnknown {
		t.Fatalf("orientation=%s want unknown", rec.DeviceOrientation)
	}
	if rec.AccelX != 0 || rec.AccelY != 0 || rec.AccelZ != 0 || rec.GyroX != 0 || rec.GyroY != 0 || rec.GyroZ != 0 {
		t.Fatalf("expected zero offsets, got %+v", rec)
	}
	if rec.CalibrationTimestamp != now.UnixMilli() {
		t.Fatalf("timestamp=%d want %d", rec.CalibrationTimestamp, now.UnixMilli())
	}
}
