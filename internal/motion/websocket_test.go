package motion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sampleServer streams n samples, then closes cleanly.
func sampleServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for i := 0; i < n; i++ {
			s := Sample{Time: time.Now(), AccelZ: 9.81, GyroZ: 0.001}
			if err := conn.WriteJSON(s); err != nil {
				return
			}
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSSource_SubscribeRequiresStart(t *testing.T) {
	src := NewWSSource(WSConfig{URL: "ws://127.0.0.1:0/motion"})
	if _, err := src.Subscribe(context.Background()); err == nil {
		t.Fatalf("expected error before Start")
	}
}

func TestWSSource_DialFailure(t *testing.T) {
	src := NewWSSource(WSConfig{URL: "ws://127.0.0.1:1/motion"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := src.Start(ctx); err == nil {
		t.Fatalf("expected dial error")
	}
	if src.Active() {
		t.Fatalf("expected inactive after failed Start")
	}
}

func TestWSSource_StreamsAndClosesCleanly(t *testing.T) {
	srv := sampleServer(t, 5)
	defer srv.Close()

	src := NewWSSource(WSConfig{URL: wsURL(srv)})
	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer src.Stop(context.Background())

	sub, err := src.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Cancel()

	received := 0
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-sub.C:
			if !ok {
				if sub.Err() != nil {
					t.Fatalf("clean close reported error: %v", sub.Err())
				}
				if received == 0 {
					t.Fatalf("stream closed without delivering samples")
				}
				return
			}
			if s.AccelZ != 9.81 {
				t.Fatalf("accelZ=%v want 9.81", s.AccelZ)
			}
			received++
		case <-deadline:
			t.Fatalf("timed out after %d samples", received)
		}
	}
}

func TestWSSource_AbruptCloseReportsStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(Sample{Time: time.Now(), AccelZ: 9.81})
		// Tear the TCP connection down without a close handshake.
		conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	src := NewWSSource(WSConfig{URL: wsURL(srv)})
	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	sub, err := src.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				if sub.Err() == nil {
					t.Fatalf("abrupt close should report a stream error")
				}
				return
			}
		case <-deadline:
			t.Fatalf("subscription not terminated after abrupt close")
		}
	}
}
