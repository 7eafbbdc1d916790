package motion

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// SimConfig tunes the simulated handheld. Zero values fall back to a
// quiet, level device sampled at 50 Hz.
type SimConfig struct {
	Period     time.Duration // sample period
	AccelNoise float64       // peak deviation around gravity, m/s²
	GyroNoise  float64       // peak gyro wobble, rad/s
	GyroZBias  float64       // steady-state gyro-Z drift, rad/s
}

// SimSource generates deterministic samples: gravity on Z plus bounded
// sinusoids with decoupled periods on the other axes. It stands in for
// the handheld's hardware stream in tests and dry runs.
type SimSource struct {
	cfg SimConfig
	hub *hub

	mu     sync.Mutex
	active bool
	stop   chan struct{}
}

func NewSimSource(cfg SimConfig) *SimSource {
	if cfg.Period <= 0 {
		cfg.Period = 20 * time.Millisecond // 50 Hz
	}
	if cfg.AccelNoise < 0 {
		cfg.AccelNoise = 0
	}
	if cfg.GyroNoise < 0 {
		cfg.GyroNoise = 0
	}
	return &SimSource{cfg: cfg, hub: newHub()}
}

func (s *SimSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *SimSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}
	s.active = true
	s.stop = make(chan struct{})
	go s.run(ctx, s.stop)
	return nil
}

func (s *SimSource) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	s.active = false
	close(s.stop)
	return nil
}

func (s *SimSource) Subscribe(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, errors.New("sim source: not started")
	}
	return s.hub.add(), nil
}

func (s *SimSource) run(ctx context.Context, stop chan struct{}) {
	tick := time.NewTicker(s.cfg.Period)
	defer tick.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.hub.fail(nil)
			return
		case <-stop:
			s.hub.fail(nil)
			return
		case now := <-tick.C:
			s.hub.publish(s.sampleAt(now.Sub(start), now))
		}
	}
}

// sampleAt is a pure function of elapsed time, so a given config always
// produces the same trace. Sinusoid periods are decoupled to avoid the
// axes locking into a repetitive pattern.
func (s *SimSource) sampleAt(elapsed time.Duration, now time.Time) Sample {
	t := elapsed.Seconds()
	w := 2 * math.Pi * t
	return Sample{
		Time:   now,
		AccelX: s.cfg.AccelNoise * math.Sin(w*1.3),
		AccelY: s.cfg.AccelNoise * math.Sin(w*0.7),
		AccelZ: 9.81 + s.cfg.AccelNoise*math.Sin(w),
		GyroX:  s.cfg.GyroNoise * math.Sin(w*0.9),
		GyroY:  s.cfg.GyroNoise * math.Sin(w*1.1),
		GyroZ:  s.cfg.GyroZBias + s.cfg.GyroNoise*math.Sin(w*0.5),
	}
}
