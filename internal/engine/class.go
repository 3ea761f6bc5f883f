package engine

import "strings"

// DeviceClass selects which input device family an event belongs to. Each
// class owns its own buffer, timing table, press state, voices and volume.
type DeviceClass int

const (
	Keyboard DeviceClass = iota
	Mouse
)

func (c DeviceClass) String() string {
	switch c {
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// ClassOf picks the device class for a normalized key or button name
func ClassOf(name string) DeviceClass {
	if strings.HasPrefix(name, "Mouse") {
		return Mouse
	}
	return Keyboard
}

// Edge is which half of a press/release cycle an interval represents
type Edge int

const (
	Down Edge = iota
	Up
)

func (e Edge) String() string {
	if e == Up {
		return "up"
	}
	return "down"
}

func edgeOf(isDown bool) Edge {
	if isDown {
		return Down
	}
	return Up
}
