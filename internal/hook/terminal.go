package hook

import (
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// DefaultReleaseAfter is how long after a terminal key press the matching
// release is synthesized
const DefaultReleaseAfter = 60 * time.Millisecond

var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "Tab",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyDelete:     "Delete",
	tcell.KeyEscape:     "Escape",
	tcell.KeyUp:         "ArrowUp",
	tcell.KeyDown:       "ArrowDown",
	tcell.KeyLeft:       "ArrowLeft",
	tcell.KeyRight:      "ArrowRight",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyInsert:     "Insert",
}

var tcellButtons = []struct {
	mask  tcell.ButtonMask
	name  string
	wheel bool
}{
	{tcell.Button1, "MouseLeft", false},
	{tcell.Button2, "MouseRight", false},
	{tcell.Button3, "MouseMiddle", false},
	{tcell.Button4, "Mouse4", false},
	{tcell.Button5, "Mouse5", false},
	{tcell.WheelUp, "MouseWheelUp", true},
	{tcell.WheelDown, "MouseWheelDown", true},
}

// KeyName returns the normalized name for a tcell key event, or "" if it
// has none
func KeyName(ev *tcell.EventKey) string {
	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		return RuneName(ev.Rune())
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return "F" + strconv.Itoa(int(k-tcell.KeyF1)+1)
	}
	if name, ok := tcellKeyNames[k]; ok {
		return name
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return "Key" + string(rune('A'+int(k-tcell.KeyCtrlA)))
	}
	return ""
}

// Terminal is the focused-window producer for a tcell screen. Terminals
// only report presses, so every press is followed by a synthesized release
// once the key has been quiet for the release delay. Focus events drive
// the gate so the background hook stays silent while the terminal has
// focus.
type Terminal struct {
	gate         *Gate
	releaseAfter time.Duration
	dispatch     func(name string, isDown bool)

	mu      sync.Mutex
	pending map[string]*time.Timer
	buttons tcell.ButtonMask
}

func NewTerminal(gate *Gate, releaseAfter time.Duration, dispatch func(name string, isDown bool)) *Terminal {
	if releaseAfter <= 0 {
		releaseAfter = DefaultReleaseAfter
	}
	return &Terminal{
		gate:         gate,
		releaseAfter: releaseAfter,
		dispatch:     dispatch,
		pending:      make(map[string]*time.Timer),
	}
}

// Handle processes one tcell event and reports whether it produced input
func (t *Terminal) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		name := KeyName(ev)
		if name == "" {
			return false
		}
		t.press(name)
		return true
	case *tcell.EventMouse:
		return t.mouse(ev.Buttons())
	case *tcell.EventFocus:
		if t.gate != nil {
			t.gate.SetFocused(ev.Focused)
		}
	}
	return false
}

// press emits a down, or extends the hold if the key repeats before its
// release fired
func (t *Terminal) press(name string) {
	t.mu.Lock()
	if timer, ok := t.pending[name]; ok && timer.Stop() {
		timer.Reset(t.releaseAfter)
		t.mu.Unlock()
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.releaseAfter, func() {
		t.mu.Lock()
		if t.pending[name] != timer {
			t.mu.Unlock()
			return
		}
		delete(t.pending, name)
		t.mu.Unlock()
		t.dispatch(name, false)
	})
	t.pending[name] = timer
	t.mu.Unlock()

	t.dispatch(name, true)
}

func (t *Terminal) mouse(buttons tcell.ButtonMask) bool {
	t.mu.Lock()
	prev := t.buttons
	t.buttons = buttons &^ (tcell.WheelUp | tcell.WheelDown)
	t.mu.Unlock()

	handled := false
	for _, b := range tcellButtons {
		was, is := prev&b.mask != 0, buttons&b.mask != 0
		switch {
		case b.wheel && is:
			t.dispatch(b.name, true)
			t.dispatch(b.name, false)
			handled = true
		case b.wheel:
		case is != was:
			t.dispatch(b.name, is)
			handled = true
		}
	}
	return handled
}

// Stop cancels pending synthesized releases and emits them immediately
func (t *Terminal) Stop() {
	t.mu.Lock()
	var names []string
	for name, timer := range t.pending {
		if timer.Stop() {
			names = append(names, name)
		}
	}
	clear(t.pending)
	t.mu.Unlock()

	for _, name := range names {
		t.dispatch(name, false)
	}
}
