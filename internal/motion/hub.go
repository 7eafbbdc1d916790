package motion

import "sync"

// subBuffer is the per-subscriber channel depth. Samples beyond it are
// dropped for that subscriber rather than blocking the producer.
const subBuffer = 64

// hub fans samples out from one producer to any number of subscriptions.
// Sends never block: a slow consumer loses samples, the stream stays live
// for everyone else.
type hub struct {
	mu   sync.Mutex
	subs map[chan Sample]*Subscription
}

func newHub() *hub {
	return &hub{subs: make(map[chan Sample]*Subscription)}
}

func (h *hub) add() *Subscription {
	ch := make(chan Sample, subBuffer)
	sub := NewSubscription(ch, func() { h.drop(ch) })
	h.mu.Lock()
	h.subs[ch] = sub
	h.mu.Unlock()
	return sub
}

// drop detaches and closes one subscriber channel. Safe to call again for
// a channel that is already gone.
func (h *hub) drop(ch chan Sample) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *hub) publish(s Sample) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
	h.mu.Unlock()
}

// fail terminates every subscription. A nil err is a clean end of stream;
// otherwise each subscriber sees err after its channel closes.
func (h *hub) fail(err error) {
	h.mu.Lock()
	for ch, sub := range h.subs {
		if err != nil {
			sub.Fail(err)
		}
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
