package engine

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/petems/keyclack/internal/soundpack"
)

// timingTable maps key names to their down and optional up intervals. It
// is built once per load and never modified.
type timingTable struct {
	defs map[string][]soundpack.Interval
	keys []string // sorted, for random picks
}

func newTimingTable(defs map[string][]soundpack.Interval) *timingTable {
	t := &timingTable{
		defs: make(map[string][]soundpack.Interval, len(defs)),
		keys: make([]string, 0, len(defs)),
	}
	for key, ivs := range defs {
		t.defs[key] = append([]soundpack.Interval(nil), ivs...)
		t.keys = append(t.keys, key)
	}
	sort.Strings(t.keys)
	return t
}

func (t *timingTable) len() int {
	return len(t.keys)
}

// resolve finds the interval for a key edge. In random mode the key is
// ignored and a uniformly chosen mapped key is used instead. ok is false
// for unmapped keys, up edges on single-interval keys and malformed entries.
func (t *timingTable) resolve(key string, edge Edge, random bool, pick func(int) int, log zerolog.Logger) (iv soundpack.Interval, source string, ok bool) {
	source = key
	if random {
		if len(t.keys) == 0 {
			return iv, source, false
		}
		source = t.keys[pick(len(t.keys))]
	}

	ivs, found := t.defs[source]
	if !found {
		return iv, source, false
	}

	switch len(ivs) {
	case 1:
		if edge == Up {
			return iv, source, false
		}
		iv = ivs[0]
	case 2:
		iv = ivs[edge]
	default:
		log.Warn().
			Str("key", source).
			Int("intervals", len(ivs)).
			Msg("Malformed timing entry")
		return iv, source, false
	}

	if iv.StartMs < 0 || iv.EndMs <= iv.StartMs {
		log.Debug().
			Str("key", source).
			Stringer("edge", edge).
			Float32("start_ms", iv.StartMs).
			Float32("end_ms", iv.EndMs).
			Msg("Suspicious interval")
	}
	return iv, source, true
}

// mouseFallback maps mouse buttons onto keyboard keys so a keyboard pack
// can also voice the mouse
var mouseFallback = map[string]string{
	"MouseLeft":      "Space",
	"MouseRight":     "Enter",
	"MouseMiddle":    "Tab",
	"MouseWheelUp":   "ArrowUp",
	"MouseWheelDown": "ArrowDown",
	"Mouse4":         "Backspace",
	"Mouse5":         "Delete",
	"Mouse6":         "Home",
	"Mouse7":         "End",
	"Mouse8":         "PageUp",
}

// mouseDefsFromKeyboard builds mouse definitions out of a keyboard pack
func mouseDefsFromKeyboard(defs map[string][]soundpack.Interval) map[string][]soundpack.Interval {
	out := make(map[string][]soundpack.Interval, len(mouseFallback))
	for button, key := range mouseFallback {
		if ivs, ok := defs[key]; ok {
			out[button] = ivs
		}
	}
	return out
}
