package dnsswitch

import (
	"sync"
	"sync/atomic"

	"github.com/dns-browser/dns-browser/src/internal/proxy"
)

// Action is a shell notification kind.
type Action string

const (
	// ActionClearCache asks the shell to clear its host resolver and HTTP caches.
	ActionClearCache Action = "clear-cache"
	// ActionForceReload asks the shell to reload the current page.
	ActionForceReload Action = "force-reload"
	// ActionResetBlank asks the shell to show a blank page.
	ActionResetBlank Action = "reset-blank"
	// ActionLoadError reports a relay failure for the page being loaded.
	ActionLoadError Action = "load-error"
)

// Event is one notification delivered to shell subscribers.
type Event struct {
	Seq       uint64           `json:"seq"`
	Action    Action           `json:"action"`
	Host      string           `json:"host"`
	LoadError *proxy.LoadError `json:"load_error,omitempty"`
}

const subscriberBuffer = 16

// Hub fans events out to subscribers. A subscriber whose buffer is full misses the event.
type Hub struct {
	seq atomic.Uint64

	mu          sync.RWMutex
	closed      bool
	subscribers map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe or CloseAll.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// CloseAll closes every subscriber channel and rejects later subscriptions.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Event]struct{})
	h.closed = true
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Notify broadcasts an action and returns the event that was sent.
func (h *Hub) Notify(action Action, host string) Event {
	ev := Event{Seq: h.seq.Add(1), Action: action, Host: host}
	h.broadcast(ev)
	return ev
}

// ReportLoadError forwards a relay failure to subscribers.
func (h *Hub) ReportLoadError(e proxy.LoadError) {
	h.broadcast(Event{Seq: h.seq.Add(1), Action: ActionLoadError, LoadError: &e})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
