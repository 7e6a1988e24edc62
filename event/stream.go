package event

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrStreamClosed  = errors.New("cannot notify closed stream")
	ErrStreamTimeout = errors.New("timed out sending message to stream")
)

type Stream[E any] interface {
	ID() string
	Notify(event E, timeout time.Duration) error
	Close()
}

// SelectorStream is a buffered Stream that converts each event with a
// selector before queueing it. Events the selector rejects are dropped.
//
// A stream whose reader falls behind by more than the buffer for longer than
// the notify timeout is closed.
type SelectorStream[E, M any] struct {
	sync.Mutex

	id string

	closed   bool
	ch       chan M
	selector func(E) (M, bool)
}

func NewSelectorStream[E, M any](
	id string,
	bufferSize int,
	selector func(event E) (M, bool),
) *SelectorStream[E, M] {
	return &SelectorStream[E, M]{
		id:       id,
		ch:       make(chan M, bufferSize),
		selector: selector,
	}
}

func (s *SelectorStream[E, M]) ID() string {
	return s.id
}

func (s *SelectorStream[E, M]) Notify(event E, timeout time.Duration) error {
	msg, ok := s.selector(event)
	if !ok {
		return nil
	}

	s.Lock()
	if s.closed {
		s.Unlock()
		return ErrStreamClosed
	}

	select {
	case s.ch <- msg:
	case <-time.After(timeout):
		s.closed = true
		close(s.ch)
		s.Unlock()
		return ErrStreamTimeout
	}

	s.Unlock()
	return nil
}

func (s *SelectorStream[E, M]) Channel() <-chan M {
	return s.ch
}

func (s *SelectorStream[E, M]) Close() {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.ch)
}
