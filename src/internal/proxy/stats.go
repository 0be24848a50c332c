package proxy

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// concurrency tracks active connections and the peak since the last reset.
type concurrency struct {
	sync.Mutex
	current int
	peak    int
}

func (c *concurrency) add() {
	c.Lock()
	defer c.Unlock()
	c.current++
	if c.current > c.peak {
		c.peak = c.current
	}
}

func (c *concurrency) done() {
	c.Lock()
	defer c.Unlock()
	if c.current == 0 {
		panic("proxy: concurrency done() without matching add()")
	}
	c.current--
}

func (c *concurrency) snapshot(reset bool) (current, peak int) {
	c.Lock()
	defer c.Unlock()
	current, peak = c.current, c.peak
	if reset {
		c.peak = c.current
	}
	return
}

// Stats counts proxy activity. All methods are safe for concurrent use.
type Stats struct {
	active concurrency

	accepted           atomic.Uint64
	httpRequests       atomic.Uint64
	tunnels            atomic.Uint64
	resolutionFailures atomic.Uint64
	upstreamFailures   atomic.Uint64
	parseFailures      atomic.Uint64
	bytesUp            atomic.Uint64
	bytesDown          atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	ActiveConnections  int    `json:"active_connections"`
	PeakConnections    int    `json:"peak_connections"`
	Accepted           uint64 `json:"accepted"`
	HTTPRequests       uint64 `json:"http_requests"`
	Tunnels            uint64 `json:"tunnels"`
	ResolutionFailures uint64 `json:"resolution_failures"`
	UpstreamFailures   uint64 `json:"upstream_failures"`
	ParseFailures      uint64 `json:"parse_failures"`
	BytesUp            uint64 `json:"bytes_up"`
	BytesDown          uint64 `json:"bytes_down"`
}

// Snapshot returns the current counters. With reset, counters are zeroed afterwards
// and the peak restarts from the current concurrency.
func (s *Stats) Snapshot(reset bool) StatsSnapshot {
	current, peak := s.active.snapshot(reset)
	load := func(v *atomic.Uint64) uint64 {
		if reset {
			return v.Swap(0)
		}
		return v.Load()
	}
	return StatsSnapshot{
		ActiveConnections:  current,
		PeakConnections:    peak,
		Accepted:           load(&s.accepted),
		HTTPRequests:       load(&s.httpRequests),
		Tunnels:            load(&s.tunnels),
		ResolutionFailures: load(&s.resolutionFailures),
		UpstreamFailures:   load(&s.upstreamFailures),
		ParseFailures:      load(&s.parseFailures),
		BytesUp:            load(&s.bytesUp),
		BytesDown:          load(&s.bytesDown),
	}
}

// Name implements the status reporter contract.
func (s *Stats) Name() string {
	return "proxy"
}

// Report returns a single status line.
func (s *Stats) Report(resetCounters bool) string {
	snap := s.Snapshot(resetCounters)
	return fmt.Sprintf("conns=%d active=%d peak=%d http=%d tunnels=%d fail(resolve/upstream/parse)=%d/%d/%d up=%d down=%d",
		snap.Accepted, snap.ActiveConnections, snap.PeakConnections,
		snap.HTTPRequests, snap.Tunnels,
		snap.ResolutionFailures, snap.UpstreamFailures, snap.ParseFailures,
		snap.BytesUp, snap.BytesDown)
}
