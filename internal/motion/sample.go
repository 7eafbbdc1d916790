// Package motion defines the handheld's motion-sample stream and the
// sources that can supply it: a deterministic simulator, an MQTT topic
// the device publishes to, and a WebSocket endpoint.
package motion

import (
	"context"
	"sync"
	"time"
)

// Sample is one timestamped 6-axis reading: accelerometer in m/s²,
// gyroscope in rad/s.
type Sample struct {
	Time   time.Time `json:"time"`
	AccelX float64   `json:"accelX"`
	AccelY float64   `json:"accelY"`
	AccelZ float64   `json:"accelZ"`
	GyroX  float64   `json:"gyroX"`
	GyroY  float64   `json:"gyroY"`
	GyroZ  float64   `json:"gyroZ"`
}

// Source is a restartable, cancellable motion-sample stream. One physical
// sensor may be shared process-wide, so callers check Active before Start
// to avoid double-starting it.
type Source interface {
	Active() bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Subscribe registers a new consumer. The subscription's channel is
	// closed when the stream ends or the subscription is cancelled.
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription is one consumer's view of a source's stream. Cancel is
// idempotent and safe to call from every exit path; once C is closed,
// Err reports the terminal stream error, if any.
type Subscription struct {
	C <-chan Sample

	cancelOnce sync.Once
	cancel     func()

	mu  sync.Mutex
	err error
}

// NewSubscription wraps a sample channel. The producing source closes ch
// to end the stream; cancel, if non-nil, runs once on the first Cancel.
func NewSubscription(ch <-chan Sample, cancel func()) *Subscription {
	return &Subscription{C: ch, cancel: cancel}
}

func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Fail records the terminal stream error. Sources call it before closing
// the sample channel; a clean end of stream records nothing.
func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
