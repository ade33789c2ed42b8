// Package metrics provides lightweight, lock-free counters and gauges
// for tracking the traffic of the udptcp transport sessions.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics shared by every session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	peersActive atomic.Int64
	peersTotal  atomic.Int64
	messagesIn  atomic.Int64
	messagesOut atomic.Int64
	bytesIn     atomic.Int64
	bytesOut    atomic.Int64
	errorsTotal atomic.Int64
	sessionsUp  atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionStarted records a worker entering its loop.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessionsUp.Add(1)
}

// SessionStopped records a worker having been joined.
func (c *Collector) SessionStopped() {
	if c == nil {
		return
	}
	c.sessionsUp.Add(-1)
}

// SessionsUp returns the number of sessions whose worker is running.
func (c *Collector) SessionsUp() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsUp.Load()
}

// ── Peer metrics ─────────────────────────────────────────────────────

// PeerAdded increments both the active and total peer counters.
func (c *Collector) PeerAdded() {
	if c == nil {
		return
	}
	c.peersActive.Add(1)
	c.peersTotal.Add(1)
}

// PeerRemoved decrements the active peer counter.
func (c *Collector) PeerRemoved() {
	if c == nil {
		return
	}
	c.peersActive.Add(-1)
}

// ActivePeers returns the current number of registered TCP peers.
func (c *Collector) ActivePeers() int64 {
	if c == nil {
		return 0
	}
	return c.peersActive.Load()
}

// TotalPeers returns the lifetime peer count.
func (c *Collector) TotalPeers() int64 {
	if c == nil {
		return 0
	}
	return c.peersTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// Received records one inbound datagram or read of n bytes.
func (c *Collector) Received(n int) {
	if c == nil {
		return
	}
	c.messagesIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// Sent records one outbound datagram or write of n bytes.
func (c *Collector) Sent(n int) {
	if c == nil {
		return
	}
	c.messagesOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// MessagesIn returns the number of receives recorded.
func (c *Collector) MessagesIn() int64 {
	if c == nil {
		return 0
	}
	return c.messagesIn.Load()
}

// MessagesOut returns the number of sends recorded.
func (c *Collector) MessagesOut() int64 {
	if c == nil {
		return 0
	}
	return c.messagesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsUp       int64  `json:"sessions_up"`
	PeersActive      int64  `json:"peers_active"`
	PeersTotal       int64  `json:"peers_total"`
	MessagesIn       int64  `json:"messages_in"`
	MessagesOut      int64  `json:"messages_out"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:      time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsUp:  c.sessionsUp.Load(),
		PeersActive: c.peersActive.Load(),
		PeersTotal:  c.peersTotal.Load(),
		MessagesIn:  c.messagesIn.Load(),
		MessagesOut: c.messagesOut.Load(),
		BytesIn:     c.bytesIn.Load(),
		BytesOut:    c.bytesOut.Load(),
		ErrorsTotal: c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
