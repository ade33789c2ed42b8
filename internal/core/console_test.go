package core

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udptcp/config"
	"udptcp/util"
)

func TestConsole_Script(t *testing.T) {
	out := &syncBuffer{}
	ctrl := Build(config.Default(), util.NewLogger(0), out)

	con := &Console{
		Ctrl: ctrl,
		Tick: 10 * time.Millisecond,
		In:   strings.NewReader("udp bind 127.0.0.1:0\nstatus\nnonsense\nquit\nstatus\n"),
		Out:  out,
	}
	require.NoError(t, con.Run(context.Background()))

	s := out.String()
	assert.Contains(t, s, "udp    up")
	assert.Contains(t, s, "error: unknown command \"nonsense\"")
	assert.Contains(t, s, "socket bound to 127.0.0.1:")
	assert.Equal(t, 1, strings.Count(s, "udp    "), "nothing runs after quit")
	assert.False(t, ctrl.udp.IsUp(), "Run disconnects every session")
}

func TestConsole_EOF(t *testing.T) {
	out := &syncBuffer{}
	con := &Console{
		Ctrl: Build(config.Default(), util.NewLogger(0), out),
		In:   strings.NewReader("tcps begin 127.0.0.1:0\n"),
		Out:  out,
	}
	require.NoError(t, con.Run(context.Background()))
	assert.Contains(t, out.String(), "tcp-s: listening on port")
	assert.False(t, con.Ctrl.server.IsUp())
}

func TestConsole_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	out := &syncBuffer{}
	con := &Console{
		Ctrl: Build(config.Default(), util.NewLogger(0), out),
		Tick: 10 * time.Millisecond,
		In:   pr,
		Out:  out,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- con.Run(ctx) }()

	_, err := pw.Write([]byte("udp bind 127.0.0.1:0\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return con.Ctrl.udp.IsUp() }, waitFor, tick)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, con.Ctrl.udp.IsUp())
}

func TestFeedLines_StopsWhenDone(t *testing.T) {
	read := func() (string, error) { return "status", nil }
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})

	returned := make(chan struct{})
	go func() {
		feedLines(read, lines, readErr, done)
		close(returned)
	}()

	assert.Equal(t, "status", <-lines)
	close(done)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("feedLines kept blocking on delivery after done")
	}
}

func TestFeedLines_ReportsReadError(t *testing.T) {
	read := func() (string, error) { return "", io.ErrUnexpectedEOF }
	readErr := make(chan error, 1)

	feedLines(read, make(chan string), readErr, make(chan struct{}))
	assert.ErrorIs(t, <-readErr, io.ErrUnexpectedEOF)
}
