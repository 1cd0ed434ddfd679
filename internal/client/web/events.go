package web

import "sync"

// Event is one change notification for the render layer. Seq is strictly
// increasing; a poller passes the last seq it saw and receives everything
// newer.
type Event struct {
	Seq  uint64 `json:"seq"`
	Type string `json:"type"`
	Key  string `json:"key"`

	// Promotion events carry the id swap so the UI can retarget selection.
	OldID string `json:"old_id,omitempty"`
	NewID string `json:"new_id,omitempty"`
}

const (
	EventUpdate    = "update"
	EventPromotion = "promotion"
)

// eventRing is a bounded buffer of recent events. Pollers that fall behind the
// ring's capacity get the oldest retained events; the full state is always
// recoverable from the conversation endpoints.
type eventRing struct {
	mu   sync.Mutex
	buf  []Event
	cap  int
	next uint64
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{cap: capacity, next: 1}
}

func (r *eventRing) publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Seq = r.next
	r.next++
	r.buf = append(r.buf, e)
	if len(r.buf) > r.cap {
		r.buf = r.buf[len(r.buf)-r.cap:]
	}
}

// since returns every retained event with Seq > after, oldest first.
func (r *eventRing) since(after uint64) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.buf))
	for _, e := range r.buf {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}
