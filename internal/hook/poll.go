package hook

// pointer button masks as reported by X11 XQueryPointer. The core protocol
// has no mask for buttons 8/9 (back/forward), and the server presses and
// releases 4/5 within one wheel notch, so a poll rarely sees them set.
// TODO: read wheel and side buttons from XInput2 raw events.
const (
	button1Mask = 1 << 8
	button2Mask = 1 << 9
	button3Mask = 1 << 10
	button4Mask = 1 << 11
	button5Mask = 1 << 12
)

var buttonNames = []struct {
	mask  uint
	name  string
	wheel bool
}{
	{button1Mask, "MouseLeft", false},
	{button2Mask, "MouseMiddle", false},
	{button3Mask, "MouseRight", false},
	{button4Mask, "MouseWheelUp", true},
	{button5Mask, "MouseWheelDown", true},
}

// diffKeymap calls emit for every keycode whose bit differs between two
// 256-bit keymaps
func diffKeymap(prev, cur *[32]byte, emit func(keycode int, down bool)) {
	for i := range cur {
		changed := prev[i] ^ cur[i]
		if changed == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if changed&(1<<bit) == 0 {
				continue
			}
			emit(i*8+bit, cur[i]&(1<<bit) != 0)
		}
	}
}

// diffButtons emits edges for buttons whose state changed. Wheel notches
// have no duration, so each one is a down immediately followed by an up.
func diffButtons(prev, cur uint, emit func(name string, isDown bool)) {
	for _, b := range buttonNames {
		was, is := prev&b.mask != 0, cur&b.mask != 0
		switch {
		case b.wheel && is && !was:
			emit(b.name, true)
			emit(b.name, false)
		case b.wheel:
		case is != was:
			emit(b.name, is)
		}
	}
}
