package motion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig locates the WebSocket endpoint that streams JSON samples.
type WSConfig struct {
	URL string // e.g. ws://device.local:8080/motion
}

// WSSource dials a WebSocket endpoint and reads one JSON sample per
// message. A read failure other than a clean close terminates every
// subscription with a stream error.
type WSSource struct {
	cfg WSConfig
	hub *hub

	mu     sync.Mutex
	conn   *websocket.Conn
	active bool
}

func NewWSSource(cfg WSConfig) *WSSource {
	return &WSSource{cfg: cfg, hub: newHub()}
}

func (s *WSSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *WSSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket source: dial %s: %w", s.cfg.URL, err)
	}
	s.conn = conn
	s.active = true
	go s.readLoop(conn)
	log.Printf("websocket source: connected to %s", s.cfg.URL)
	return nil
}

func (s *WSSource) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	s.active = false
	_ = s.conn.Close()
	s.conn = nil
	return nil
}

func (s *WSSource) Subscribe(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, errors.New("websocket source: not started")
	}
	return s.hub.add(), nil
}

func (s *WSSource) readLoop(conn *websocket.Conn) {
	for {
		var sample Sample
		if err := conn.ReadJSON(&sample); err != nil {
			s.mu.Lock()
			stopped := !s.active
			s.active = false
			s.conn = nil
			s.mu.Unlock()

			if stopped || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// Deliberate Stop or clean server close.
				s.hub.fail(nil)
			} else {
				log.Printf("websocket source: read error: %v", err)
				s.hub.fail(fmt.Errorf("websocket source: read: %w", err))
			}
			return
		}
		if sample.Time.IsZero() {
			sample.Time = time.Now()
		}
		s.hub.publish(sample)
	}
}
