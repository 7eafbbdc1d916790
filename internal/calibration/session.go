package calibration

import (
	"context"
	"log"
	"math"
	"time"

	"roadsense/internal/motion"
)

// Params bound the collection window. Zero values fall back to the
// production defaults.
type Params struct {
	CollectDuration time.Duration // sample-collection window
	WatchdogGrace   time.Duration // extra time before the safety timer fires
}

const (
	defaultCollectDuration = 20 * time.Second
	defaultWatchdogGrace   = 5 * time.Second
)

func (p Params) withDefaults() Params {
	if p.CollectDuration <= 0 {
		p.CollectDuration = defaultCollectDuration
	}
	if p.WatchdogGrace <= 0 {
		p.WatchdogGrace = defaultWatchdogGrace
	}
	return p
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingBaseline
	stateCollecting
	stateFinalizing
	stateSucceeded
	stateFailed
)

// SessionController runs one pre-recording calibration attempt: it reads
// the baseline record, collects a bounded window of corrected samples from
// the motion source and derives the session parameters. A controller is
// single-use; a fresh attempt always starts a fresh instance, so the
// sample buffers can never leak across attempts.
//
// All buffer mutation and state transitions happen on the goroutine that
// calls Run. Every finalization path goes through one guarded completion,
// so racing triggers (deadline vs. watchdog vs. stream end) produce
// exactly one result.
type SessionController struct {
	params Params
	repo   RecordRepository
	source motion.Source

	state     sessionState
	acc       *Accumulator
	finalized bool
	result    SessionResult
}

func NewSessionController(repo RecordRepository, src motion.Source, params Params) *SessionController {
	return &SessionController{
		params: params.withDefaults(),
		repo:   repo,
		source: src,
		state:  stateIdle,
		acc:    NewAccumulator(),
	}
}

// PerformPreRecordingCalibration is the one-shot entry point the
// recording-setup flow calls before a session starts.
func PerformPreRecordingCalibration(ctx context.Context, repo RecordRepository, src motion.Source, params Params) SessionResult {
	return NewSessionController(repo, src, params).Run(ctx)
}

// Run performs the calibration attempt and blocks until it completes. It
// always returns within CollectDuration+WatchdogGrace of starting to
// collect, whatever the stream does. Faults are absorbed: the only
// failure signal is IsCalibrationSuccessful=false on the result.
func (c *SessionController) Run(ctx context.Context) SessionResult {
	if c.finalized {
		return c.result
	}

	c.state = stateAwaitingBaseline
	baseline, err := c.repo.Load(ctx)
	if err != nil {
		log.Printf("calibration: baseline load failed: %v", err)
		return c.finalizeFailed()
	}
	if baseline == nil {
		// Normal first-run state: nothing to calibrate against, and no
		// reason to touch the sensor.
		log.Printf("calibration: no baseline record, session calibration skipped")
		return c.finalizeFailed()
	}

	// The sensor may be shared process-wide; only start it if idle.
	if !c.source.Active() {
		if err := c.source.Start(ctx); err != nil {
			log.Printf("calibration: sensor start failed: %v", err)
			return c.finalizeFailed()
		}
	}

	sub, err := c.source.Subscribe(ctx)
	if err != nil {
		log.Printf("calibration: sensor subscribe failed: %v", err)
		return c.finalizeFailed()
	}
	defer sub.Cancel()

	c.state = stateCollecting
	start := time.Now()
	deadline := start.Add(c.params.CollectDuration)

	// The watchdog backs up the per-sample deadline check: if the stream
	// goes silent the deadline check never runs, and this timer is the
	// only thing that ends the attempt.
	watchdog := time.NewTimer(c.params.CollectDuration + c.params.WatchdogGrace)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("calibration: cancelled: %v", ctx.Err())
			return c.finalizeFailed()

		case <-watchdog.C:
			log.Printf("calibration: watchdog fired after %s, %d samples", time.Since(start).Round(time.Millisecond), c.acc.Count())
			return c.finalizeFailed()

		case s, ok := <-sub.C:
			if !ok {
				if streamErr := sub.Err(); streamErr != nil {
					log.Printf("calibration: stream error: %v", streamErr)
					return c.finalizeFailed()
				}
				// Stream exhausted on its own; finalize with whatever
				// was collected.
				return c.finalize(baseline, time.Now())
			}
			c.ingest(baseline, s)
			if !time.Now().Before(deadline) {
				return c.finalize(baseline, time.Now())
			}
		}
	}
}

// ingest applies the orientation swap and baseline offset subtraction,
// then appends the three derived scalars. Raw samples are not retained.
func (c *SessionController) ingest(b *BaselineRecord, s motion.Sample) {
	ax, ay, az := CanonicalAccel(s.AccelX, s.AccelY, s.AccelZ, b.DeviceOrientation)
	ax -= b.AccelX
	ay -= b.AccelY
	az -= b.AccelZ
	gz := s.GyroZ - b.GyroZ
	c.acc.Add(az, gz, math.Sqrt(ax*ax+ay*ay+az*az))
}

func (c *SessionController) finalize(b *BaselineRecord, now time.Time) SessionResult {
	if c.finalized {
		return c.result
	}
	c.state = stateFinalizing

	d, err := c.acc.Derive()
	if err != nil {
		log.Printf("calibration: %v", err)
		return c.finalizeFailed()
	}

	c.finalized = true
	c.state = stateSucceeded
	c.result = SessionResult{
		SessionAccelOffsetZ:     b.AccelZ + d.ZOffsetAdjustment,
		GyroZDrift:              d.GyroZDrift,
		BumpThreshold:           d.BumpThreshold,
		AccelMagnitudeStdDev:    d.MagnitudeStdDev,
		Timestamp:               now.UnixMilli(),
		IsCalibrationSuccessful: true,
	}
	log.Printf("calibration: session complete, samples=%d threshold=%.3f stddev=%.3f drift=%.5f",
		c.acc.Count(), c.result.BumpThreshold, c.result.AccelMagnitudeStdDev, c.result.GyroZDrift)
	return c.result
}

func (c *SessionController) finalizeFailed() SessionResult {
	if c.finalized {
		return c.result
	}
	c.finalized = true
	c.state = stateFailed
	c.result = FailedSessionResult(time.Now())
	return c.result
}
