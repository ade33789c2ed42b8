// Package events is the one-way channel through which transport
// sessions report connects, disconnects, traffic and errors.
//
// A Sink has many producers (session workers and control calls) and a
// single consumer (the controller's tick).  Producers never wait on the
// consumer: lines accumulate until drained.
package events

import (
	"fmt"
	"sync"
	"time"
)

// Tag is the coarse class of an event line.
type Tag int

const (
	Info Tag = iota
	Send
	Recv
	Err
)

func (t Tag) String() string {
	switch t {
	case Info:
		return "INFO"
	case Send:
		return "SEND"
	case Recv:
		return "RECV"
	case Err:
		return "ERR"
	default:
		return "?"
	}
}

// Source names the session that produced an event.
type Source string

const (
	UDP       Source = "UDP"
	TCPServer Source = "TCP-S"
	TCPClient Source = "TCP-C"
	App       Source = "APP"
)

// Event is one immutable log line.
type Event struct {
	Time   time.Time
	Tag    Tag
	Source Source
	Text   string
}

// String renders the line the way the log pane shows it.
func (e Event) String() string {
	return fmt.Sprintf("%s [%-5s][%-4s]\t%s",
		e.Time.Format("15:04:05.000"), e.Source, e.Tag, e.Text)
}

// Sink is an unbounded multi-producer, single-consumer event queue.
// The zero value is not usable; construct with [NewSink].
type Sink struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	now    func() time.Time
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{
		notify: make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Emit appends e.  A zero Time is stamped with the current time.
func (s *Sink) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Infof emits an INFO line.
func (s *Sink) Infof(src Source, format string, args ...interface{}) {
	s.emitf(Info, src, format, args...)
}

// Sendf emits a SEND line.
func (s *Sink) Sendf(src Source, format string, args ...interface{}) {
	s.emitf(Send, src, format, args...)
}

// Recvf emits a RECV line.
func (s *Sink) Recvf(src Source, format string, args ...interface{}) {
	s.emitf(Recv, src, format, args...)
}

// Errorf emits an ERR line.
func (s *Sink) Errorf(src Source, format string, args ...interface{}) {
	s.emitf(Err, src, format, args...)
}

func (s *Sink) emitf(tag Tag, src Source, format string, args ...interface{}) {
	s.Emit(Event{Tag: tag, Source: src, Text: fmt.Sprintf(format, args...)})
}

// Drain removes and returns every queued event in the order the
// emits completed.  It returns nil when nothing is queued.
func (s *Sink) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	out := s.queue
	s.queue = nil
	return out
}

// Len reports the number of undrained events.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Notify returns a channel that receives a value after one or more
// emits.  Several emits may coalesce into a single wake-up, so the
// consumer should always Drain everything.
func (s *Sink) Notify() <-chan struct{} {
	return s.notify
}
