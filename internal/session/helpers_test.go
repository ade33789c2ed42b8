package session

import (
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"udptcp/internal/events"
	"udptcp/internal/metrics"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

// recorder accumulates everything drained from a sink so assertions can
// look back at earlier events.
type recorder struct {
	sink *events.Sink

	mu   sync.Mutex
	seen []events.Event
}

func newRecorder() *recorder {
	return &recorder{sink: events.NewSink()}
}

func (r *recorder) options() Options {
	return Options{Sink: r.sink, Metrics: metrics.New()}
}

func (r *recorder) find(tag events.Tag, src events.Source, substr string) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, r.sink.Drain()...)
	for _, e := range r.seen {
		if e.Tag == tag && e.Source == src && strings.Contains(e.Text, substr) {
			return e, true
		}
	}
	return events.Event{}, false
}

func (r *recorder) count(tag events.Tag, src events.Source, substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, r.sink.Drain()...)
	n := 0
	for _, e := range r.seen {
		if e.Tag == tag && e.Source == src && strings.Contains(e.Text, substr) {
			n++
		}
	}
	return n
}

func (r *recorder) waitFor(t *testing.T, tag events.Tag, src events.Source, substr string) events.Event {
	t.Helper()
	var got events.Event
	require.Eventually(t, func() bool {
		e, ok := r.find(tag, src, substr)
		got = e
		return ok
	}, waitFor, tick, "no %s event from %s containing %q", tag, src, substr)
	return got
}

// failingConn is a connection whose reads fail with err.  Only the
// methods the workers call are implemented.
type failingConn struct {
	net.Conn
	err    error
	reads  atomic.Int32
	closed atomic.Bool
}

func (c *failingConn) Read([]byte) (int, error) {
	c.reads.Add(1)
	return 0, c.err
}

func (c *failingConn) SetReadDeadline(time.Time) error { return nil }

func (c *failingConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(192, 0, 2, 7), Port: 4000}
}

func (c *failingConn) Close() error {
	c.closed.Store(true)
	return nil
}

func syscallReadError(errno error) error {
	return &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", errno)}
}
