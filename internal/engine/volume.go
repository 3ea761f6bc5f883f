package engine

import (
	"math"
	"sync/atomic"
)

// volume is a lock-free [0,1] gain
type volume struct {
	bits atomic.Uint32
}

func newVolume(v float32) *volume {
	vol := &volume{}
	vol.set(v)
	return vol
}

func (v *volume) set(f float32) float32 {
	f = clampVolume(f)
	v.bits.Store(math.Float32bits(f))
	return f
}

func (v *volume) get() float32 {
	return math.Float32frombits(v.bits.Load())
}

func clampVolume(f float32) float32 {
	switch {
	case f != f: // NaN
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
