//go:build linux && cgo

package hook

/*
#cgo pkg-config: x11
#include <X11/Xlib.h>
#include <X11/XKBlib.h>

unsigned int queryButtons(Display* dpy) {
    Window root, child;
    int rootX, rootY, winX, winY;
    unsigned int mask = 0;

    XQueryPointer(dpy, DefaultRootWindow(dpy), &root, &child, &rootX, &rootY, &winX, &winY, &mask);
    return mask;
}

unsigned long keycodeToKeysym(Display* dpy, int keycode) {
    return XkbKeycodeToKeysym(dpy, keycode, 0, 0);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

const pollInterval = 5 * time.Millisecond

// x11Source polls the X server's keymap and pointer state. Polling sees
// every key regardless of which window has focus and needs no grabs.
type x11Source struct {
	dpy    *C.Display
	events chan string
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	keys    [32]byte
	buttons uint
	names   map[int]string
}

// NewGlobal opens the X display named by $DISPLAY and starts polling
func NewGlobal() (Source, error) {
	dpy := C.XOpenDisplay(nil)
	if dpy == nil {
		return nil, fmt.Errorf("failed to open X display")
	}

	s := &x11Source{
		dpy:    dpy,
		events: make(chan string, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		names:  make(map[int]string),
	}

	// Seed the current state so keys already held are not reported
	s.queryKeymap(&s.keys)
	s.buttons = uint(C.queryButtons(dpy))

	go s.eventLoop()

	return s, nil
}

func (s *x11Source) Events() <-chan string {
	return s.events
}

func (s *x11Source) eventLoop() {
	defer close(s.done)
	defer close(s.events)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var keys [32]byte
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.queryKeymap(&keys)
			diffKeymap(&s.keys, &keys, func(keycode int, down bool) {
				if name := s.keyName(keycode); name != "" {
					s.emit(Format(name, down))
				}
			})
			s.keys = keys

			buttons := uint(C.queryButtons(s.dpy))
			diffButtons(s.buttons, buttons, func(name string, isDown bool) {
				s.emit(Format(name, isDown))
			})
			s.buttons = buttons
		}
	}
}

func (s *x11Source) queryKeymap(keys *[32]byte) {
	C.XQueryKeymap(s.dpy, (*C.char)(unsafe.Pointer(&keys[0])))
}

func (s *x11Source) keyName(keycode int) string {
	if name, ok := s.names[keycode]; ok {
		return name
	}
	name := KeysymName(uint32(C.keycodeToKeysym(s.dpy, C.int(keycode))))
	s.names[keycode] = name
	return name
}

// emit drops the event when the consumer is behind rather than stall polling
func (s *x11Source) emit(raw string) {
	select {
	case s.events <- raw:
	default:
	}
}

func (s *x11Source) Close() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
		C.XCloseDisplay(s.dpy)
	})
	return nil
}
