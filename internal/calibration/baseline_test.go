package calibration

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadsense/internal/motion"
)

func TestBaseline_FlatDevice(t *testing.T) {
	ch := make(chan motion.Sample, 4)
	for i := 0; i < 4; i++ {
		ch <- motion.Sample{Time: time.Now(), AccelX: 0.1, AccelY: -0.2, AccelZ: 9.9, GyroZ: 0.02}
	}
	close(ch)
	src := &fakeSource{makeSub: func() *motion.Subscription {
		return motion.NewSubscription(ch, nil)
	}}

	rec, err := PerformBaselineCalibration(context.Background(), src, BaselineParams{})
	if err != nil {
		t.Fatalf("PerformBaselineCalibration() error: %v", err)
	}
	if rec.DeviceOrientation != OrientationFlat {
		t.Fatalf("orientation=%s want flat", rec.DeviceOrientation)
	}
	if !almostEq(rec.AccelX, 0.1, 1e-9) || !almostEq(rec.AccelY, -0.2, 1e-9) {
		t.Fatalf("offsets=(%v %v) want (0.1 -0.2)", rec.AccelX, rec.AccelY)
	}
	// Gravity removed: 9.9 - 9.81.
	if !almostEq(rec.AccelZ, 0.09, 1e-9) {
		t.Fatalf("offsetZ=%v want 0.09", rec.AccelZ)
	}
	if !almostEq(rec.GyroZ, 0.02, 1e-12) {
		t.Fatalf("gyroZ=%v want 0.02", rec.GyroZ)
	}
}

func TestBaseline_LandscapeDetection(t *testing.T) {
	// Gravity dominant on +X: landscapeRight, and the swap moves it to
	// the canonical Y axis before the offset math.
	ch := make(chan motion.Sample, 2)
	for i := 0; i < 2; i++ {
		ch <- motion.Sample{Time: time.Now(), AccelX: 9.7, AccelY: 0.3, AccelZ: 0.1}
	}
	close(ch)
	src := &fakeSource{makeSub: func() *motion.Subscription {
		return motion.NewSubscription(ch, nil)
	}}

	rec, err := PerformBaselineCalibration(context.Background(), src, BaselineParams{})
	if err != nil {
		t.Fatalf("PerformBaselineCalibration() error: %v", err)
	}
	if rec.DeviceOrientation != OrientationLandscapeRight {
		t.Fatalf("orientation=%s want landscapeRight", rec.DeviceOrientation)
	}
	// Canonical X is the raw Y reading.
	if !almostEq(rec.AccelX, 0.3, 1e-9) {
		t.Fatalf("offsetX=%v want 0.3", rec.AccelX)
	}
	// Canonical Y carries gravity: 9.7 - 9.81.
	if !almostEq(rec.AccelY, -0.11, 1e-9) {
		t.Fatalf("offsetY=%v want -0.11", rec.AccelY)
	}
}

func TestBaseline_EmptyStream(t *testing.T) {
	ch := make(chan motion.Sample)
	close(ch)
	src := &fakeSource{makeSub: func() *motion.Subscription {
		return motion.NewSubscription(ch, nil)
	}}

	if _, err := PerformBaselineCalibration(context.Background(), src, BaselineParams{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err=%v want ErrInsufficientData", err)
	}
}

func TestBaseline_SilentStreamTimesOut(t *testing.T) {
	ch := make(chan motion.Sample)
	src := &fakeSource{makeSub: func() *motion.Subscription {
		return motion.NewSubscription(ch, nil)
	}}

	params := BaselineParams{CollectDuration: 30 * time.Millisecond, WatchdogGrace: 30 * time.Millisecond}
	start := time.Now()
	_, err := PerformBaselineCalibration(context.Background(), src, params)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("took %s, watchdog did not bound the attempt", elapsed)
	}
}

func TestDetectOrientation(t *testing.T) {
	cases := []struct {
		name       string
		ax, ay, az float64
		want       DeviceOrientation
	}{
		{"flat", 0.1, 0.2, 9.8, OrientationFlat},
		{"flat face down", 0.1, 0.2, -9.8, OrientationFlat},
		{"portrait", 0.3, 9.7, 0.2, OrientationPortrait},
		{"landscape right", 9.7, 0.3, 0.2, OrientationLandscapeRight},
		{"landscape left", -9.7, 0.3, 0.2, OrientationLandscapeLeft},
	}
	for _, tc := range cases {
		if got := detectOrientation(tc.ax, tc.ay, tc.az); got != tc.want {
			t.Fatalf("%s: got=%s want=%s", tc.name, got, tc.want)
		}
	}
}
