package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ncerr "udptcp/internal/errors"
)

func TestRunFlag(t *testing.T) {
	var f RunFlag
	assert.False(t, f.IsSet())

	assert.True(t, f.TrySet())
	assert.False(t, f.TrySet(), "second TrySet must fail")
	assert.True(t, f.IsSet())

	f.Clear()
	assert.False(t, f.IsSet())

	f.Set()
	assert.True(t, f.IsSet())
}

func TestWorker_JoinClearsFlag(t *testing.T) {
	var f RunFlag
	f.Set()
	iterations := 0
	w := spawn("test", &f, func(*worker) {
		for f.IsSet() && iterations < 3 {
			iterations++
		}
	})
	require.NoError(t, w.join())
	assert.False(t, f.IsSet(), "flag must be cleared once the loop returns")
}

func TestWorker_PanicBecomesJoinError(t *testing.T) {
	var f RunFlag
	f.Set()
	w := spawn("boom", &f, func(*worker) { panic("kaboom") })

	err := w.join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom worker panicked: kaboom")
	assert.False(t, f.IsSet())
}

func TestWorker_JoinWaitsForHelpers(t *testing.T) {
	var f RunFlag
	f.Set()
	var helpers atomic.Int32
	w := spawn("group", &f, func(w *worker) {
		for i := 0; i < 3; i++ {
			w.goSub("helper", func() {
				for f.IsSet() {
					time.Sleep(time.Millisecond)
				}
				helpers.Add(1)
			})
		}
		for f.IsSet() {
			time.Sleep(time.Millisecond)
		}
	})

	f.Clear()
	require.NoError(t, w.join())
	assert.EqualValues(t, 3, helpers.Load(), "join must wait for every helper")
}

func TestWorker_HelperPanicStopsWorker(t *testing.T) {
	var f RunFlag
	f.Set()
	w := spawn("group", &f, func(w *worker) {
		w.goSub("helper", func() { panic("kaboom") })
		for f.IsSet() {
			time.Sleep(time.Millisecond)
		}
	})

	err := w.join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group/helper worker panicked: kaboom")
	assert.False(t, f.IsSet())
}

func TestUDP_StartUsesRunFlag(t *testing.T) {
	u := NewUDP(Options{})
	defer u.Close()
	_, err := u.Bind("127.0.0.1:0")
	require.NoError(t, err)

	// A flag already claimed by someone else rejects the start.
	require.True(t, u.running.TrySet())
	assert.ErrorIs(t, u.Start(), ncerr.ErrAlreadyRunning)
	u.running.Clear()

	require.NoError(t, u.Start())
	assert.ErrorIs(t, u.Start(), ncerr.ErrAlreadyRunning)
}
