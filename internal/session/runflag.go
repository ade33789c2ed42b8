package session

import "sync/atomic"

// RunFlag is the boolean a controller and one background worker share
// to request cooperative termination.  The controller sets it before
// spawning the worker and clears it to ask the worker to exit; the
// worker polls it once per bounded wait.
type RunFlag struct {
	v atomic.Bool
}

// Set marks the worker as allowed to run.
func (f *RunFlag) Set() { f.v.Store(true) }

// Clear asks the worker to stop at its next iteration.
func (f *RunFlag) Clear() { f.v.Store(false) }

// IsSet reports whether the worker should keep iterating.
func (f *RunFlag) IsSet() bool { return f.v.Load() }

// TrySet sets the flag only if it was clear and reports whether it did.
func (f *RunFlag) TrySet() bool { return f.v.CompareAndSwap(false, true) }
