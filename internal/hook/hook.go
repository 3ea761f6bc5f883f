// Package hook delivers normalized key and button edges from input
// producers. Names follow the browser KeyboardEvent.code convention
// ("KeyA", "Space", "ArrowUp") plus "MouseLeft", "MouseWheelUp" and so on.
// A release is written with an "UP:" prefix.
package hook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// UpPrefix marks a release in a raw event name
const UpPrefix = "UP:"

// ErrUnsupported is returned by NewGlobal where no global hook exists
var ErrUnsupported = errors.New("global input hook not supported on this platform")

// Parse splits a raw event into its name and edge
func Parse(raw string) (name string, isDown bool) {
	if rest, ok := strings.CutPrefix(raw, UpPrefix); ok {
		return rest, false
	}
	return raw, true
}

// Format is the inverse of Parse
func Format(name string, isDown bool) string {
	if isDown {
		return name
	}
	return UpPrefix + name
}

// Source is a producer of raw events. Events is closed after Close.
type Source interface {
	Events() <-chan string
	Close() error
}

// Gate records whether a focused-window producer currently owns input.
// While it does, background hook events are dropped so a keystroke is not
// voiced twice.
type Gate struct {
	focused atomic.Bool
}

func (g *Gate) SetFocused(focused bool) {
	g.focused.Store(focused)
}

func (g *Gate) Focused() bool {
	return g.focused.Load()
}

// Pump forwards events from src to dispatch until ctx is done or src is
// drained. Events are dropped while gate reports focus; a nil gate never
// drops.
func Pump(ctx context.Context, src Source, gate *Gate, dispatch func(name string, isDown bool)) {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				return
			}
			if gate != nil && gate.Focused() {
				continue
			}
			name, isDown := Parse(raw)
			if name == "" {
				continue
			}
			dispatch(name, isDown)
		}
	}
}

// ChanSource is a Source fed by Send. Sends after Close are dropped.
type ChanSource struct {
	mu     sync.Mutex
	ch     chan string
	closed bool
}

func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan string, buffer)}
}

// Send queues a raw event without blocking. It reports false when the
// buffer is full or the source is closed.
func (s *ChanSource) Send(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- raw:
		return true
	default:
		return false
	}
}

func (s *ChanSource) Events() <-chan string {
	return s.ch
}

func (s *ChanSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
