package session

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	ncerr "udptcp/internal/errors"
	"udptcp/internal/events"
	"udptcp/internal/transport"
	"udptcp/util"
)

// TCPClient owns one outbound TCP connection and its receive worker.
// When the remote end closes, the worker reports it once and then
// idles; the connection is released only by Disconnect.
type TCPClient struct {
	opts   Options
	dialer transport.Dialer

	mu     sync.Mutex
	conn   net.Conn
	local  netip.AddrPort
	remote netip.AddrPort
	w      *worker

	running RunFlag
}

// NewTCPClient returns a disconnected client.
func NewTCPClient(opts Options) *TCPClient {
	opts = opts.withDefaults()
	return &TCPClient{
		opts:   opts,
		dialer: &transport.TCPDialer{Timeout: opts.DialTimeout, LocalPort: opts.LocalPort},
	}
}

// Begin connects to remote and spawns the receive worker.  It returns
// the local address the OS assigned.  Failures are also reported as
// ERR events.
func (c *TCPClient) Begin(remote string) (netip.AddrPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.fail("connect %s: %v", remote, ncerr.ErrAlreadyRunning)
		return netip.AddrPort{}, ncerr.ErrAlreadyRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	defer cancel()
	conn, err := c.dialer.Dial(ctx, "tcp", remote)
	if err != nil {
		c.fail("%v", err)
		return netip.AddrPort{}, err
	}

	c.conn = conn
	c.local = transport.AddrPort(conn.LocalAddr())
	c.remote = transport.AddrPort(conn.RemoteAddr())
	c.running.Set()
	c.w = spawn("tcp-client", &c.running, func(*worker) { c.recvLoop(conn) })
	c.opts.Metrics.SessionStarted()
	c.opts.Logger.Verbose("tcp-client: worker started on %s", c.local)
	c.opts.Sink.Infof(events.TCPClient, "connected %s -> %s", c.local, c.remote)
	return c.local, nil
}

// SendData writes payload on the connection.  Failures are reported
// as ERR events.
func (c *TCPClient) SendData(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := util.DecodeLossy(payload)
	if c.conn == nil {
		c.fail("error sending %q: %v", text, ncerr.ErrNotConnected)
		return
	}
	c.conn.SetWriteDeadline(deadline(c.opts.WriteTimeout)) //nolint:errcheck
	n, err := c.conn.Write(payload)
	if err != nil {
		c.fail("error sending %q to %s: %v", text, c.remote, err)
		return
	}
	c.opts.Metrics.Sent(n)
	c.opts.Sink.Sendf(events.TCPClient, "%q to %s", text, c.remote)
}

// Disconnect stops the worker and closes the connection.  It is a
// no-op when not connected.
func (c *TCPClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w != nil {
		c.running.Clear()
		if err := c.w.join(); err != nil {
			c.opts.Logger.Error("tcp-client: worker termination: %v", err)
		} else {
			c.opts.Logger.Verbose("tcp-client: worker joined")
		}
		c.w = nil
		c.opts.Metrics.SessionStopped()
	}
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.opts.Sink.Infof(events.TCPClient, "disconnected from %s", c.remote)
	c.local, c.remote = netip.AddrPort{}, netip.AddrPort{}
}

// Close fully stops the client.  It never fails.
func (c *TCPClient) Close() error {
	c.Disconnect()
	return nil
}

// IsUp reports whether a connection exists and the worker is running.
func (c *TCPClient) IsUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.running.IsSet()
}

// LocalAddr returns the local end of the connection (zero when
// disconnected).
func (c *TCPClient) LocalAddr() netip.AddrPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}

// RemoteAddr returns the remote end of the connection (zero when
// disconnected).
func (c *TCPClient) RemoteAddr() netip.AddrPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *TCPClient) recvLoop(conn net.Conn) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	remote := transport.AddrPort(conn.RemoteAddr())
	closed := false
	for c.running.IsSet() {
		if closed {
			time.Sleep(c.opts.ReadTimeout)
			continue
		}
		conn.SetReadDeadline(deadline(c.opts.ReadTimeout)) //nolint:errcheck
		n, err := conn.Read(*buf)
		if n > 0 {
			c.opts.Metrics.Received(n)
			c.opts.Sink.Recvf(events.TCPClient, "%q from %s", util.DecodeLossy((*buf)[:n]), remote)
		}
		switch {
		case err == nil, ncerr.IsTimeout(err):
		case ncerr.IsClosed(err):
			closed = true
			c.opts.Sink.Infof(events.TCPClient, "connection closed by peer %s", remote)
		default:
			// The connection is unusable after any other read error.
			closed = true
			c.fail("receiving error from %s: %v", remote, err)
		}
	}
}

func (c *TCPClient) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.opts.Metrics.RecordError(msg)
	c.opts.Sink.Errorf(events.TCPClient, "%s", msg)
}
