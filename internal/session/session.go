// Package session implements the transport sessions: a UDP session, a
// multi-client TCP server and a TCP client.
//
// Every session owns at most one socket and at most one background
// worker.  Control calls (bind, start, send, disconnect) return
// promptly; the worker performs the blocking receive or accept with a
// bounded deadline so that clearing its RunFlag is noticed within one
// ReadTimeout.  Workers report traffic and failures only through the
// injected events.Sink.
//
// Stopping always joins the worker before the socket is closed, and
// every stop/disconnect is idempotent.
package session

import (
	"time"

	"udptcp/internal/events"
	"udptcp/internal/metrics"
	"udptcp/util"
)

// Defaults applied by Options when a field is zero.
const (
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultWriteTimeout = time.Second
	DefaultDialTimeout  = 3 * time.Second
)

// Options configures a session.  The zero value is usable.
type Options struct {
	Sink    *events.Sink       // event destination (a private sink when nil)
	Logger  *util.Logger       // worker lifecycle diagnostics
	Metrics *metrics.Collector // optional

	ReadTimeout  time.Duration // bounded wait per worker iteration
	WriteTimeout time.Duration // per write to a TCP peer
	DialTimeout  time.Duration // TCP client connect
	LocalPort    int           // TCP client source port (0 = ephemeral)
}

func (o Options) withDefaults() Options {
	if o.Sink == nil {
		o.Sink = events.NewSink()
	}
	if o.Logger == nil {
		o.Logger = util.NewLogger(0)
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	return o
}

// deadline returns the absolute time d from now.
func deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}
