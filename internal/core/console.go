package core

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"udptcp/config"
)

const prompt = "> "

// Console drives a Controller from a line-oriented input.  When In is
// a terminal it is switched to raw mode and read through x/term so
// that events printed on a tick do not clobber the line being typed.
type Console struct {
	Ctrl *Controller
	Tick time.Duration

	// In/Out default to os.Stdin/os.Stdout when nil.
	In  io.Reader
	Out io.Writer
}

func (c *Console) in() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

func (c *Console) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// Run reads commands until the input ends, the user quits or ctx is
// cancelled, ticking the controller meanwhile.  Every session is
// disconnected before Run returns.
func (c *Console) Run(ctx context.Context) error {
	defer c.Ctrl.Close()

	read, restore, err := c.lineReader()
	if err != nil {
		return err
	}
	defer restore()

	// The reader goroutine may stay blocked in read after Run returns;
	// done keeps it from also blocking on delivery.
	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	readErr := make(chan error, 1)
	go feedLines(read, lines, readErr, done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t := time.NewTicker(c.tick())
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				c.Ctrl.Tick()
				return nil
			case <-t.C:
				c.Ctrl.Tick()
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-readErr:
				if err != io.EOF {
					c.Ctrl.log.Verbose("input: %v", err)
				}
				return nil
			case line := <-lines:
				err := c.Ctrl.Exec(line)
				if err == ErrQuit {
					return nil
				}
				if err != nil {
					c.Ctrl.println("error: " + err.Error())
				}
				// Show the result of the command before the next prompt.
				c.Ctrl.Tick()
			}
		}
	})

	return g.Wait()
}

// feedLines delivers lines from read until it fails or done is closed.
func feedLines(read func() (string, error), lines chan<- string, readErr chan<- error, done <-chan struct{}) {
	for {
		line, err := read()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case lines <- line:
		case <-done:
			return
		}
	}
}

func (c *Console) tick() time.Duration {
	if c.Tick > 0 {
		return c.Tick
	}
	return config.DefaultTick
}

// lineReader picks x/term for an interactive terminal and a plain
// scanner otherwise.  restore undoes raw mode.
func (c *Console) lineReader() (read func() (string, error), restore func(), err error) {
	in, out := c.in(), c.out()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, err
		}
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, prompt)
		c.Ctrl.SetOutput(t)
		return t.ReadLine, func() { term.Restore(fd, state) }, nil //nolint:errcheck
	}

	c.Ctrl.SetOutput(out)
	sc := bufio.NewScanner(in)
	read = func() (string, error) {
		if sc.Scan() {
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return read, func() {}, nil
}
