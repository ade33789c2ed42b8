package session

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// worker is a joinable handle on one background loop and any helper
// goroutines the loop starts with goSub.
type worker struct {
	name string
	flag *RunFlag
	g    errgroup.Group
}

// spawn runs loop on a new goroutine.  The flag is cleared when loop
// returns, normally or by panic, so IsUp never reports a dead worker.
// A panic is turned into the error returned by join.
func spawn(name string, flag *RunFlag, loop func(w *worker)) *worker {
	w := &worker{name: name, flag: flag}
	w.g.Go(func() (err error) {
		defer flag.Clear()
		defer w.catch(name, &err)
		loop(w)
		return nil
	})
	return w
}

// goSub runs fn in the worker's group.  It must only be called from the
// worker's own goroutines so that join cannot already have returned.
// A panic in fn clears the flag and surfaces from join like one in the
// main loop.
func (w *worker) goSub(name string, fn func()) {
	w.g.Go(func() (err error) {
		defer func() {
			if err != nil {
				w.flag.Clear()
			}
		}()
		defer w.catch(w.name+"/"+name, &err)
		fn()
		return nil
	})
}

func (w *worker) catch(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s worker panicked: %v", name, r)
	}
}

// join blocks until the loop and every helper have returned.
func (w *worker) join() error {
	return w.g.Wait()
}
