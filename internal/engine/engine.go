// Package engine turns key and button edges into clicks sliced out of a
// soundpack's decoded audio.
//
// Each device class (keyboard, mouse) owns a sample bank (buffer plus
// timing table), a press state tracker, a bounded voice pool and a volume.
// Every piece has its own short-held lock and no code path holds two of
// them at once, so the hot path stays safe with several producers calling
// Dispatch concurrently while a soundpack load swaps the bank.
package engine

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/petems/keyclack/internal/audio"
	"github.com/petems/keyclack/internal/soundpack"
)

// DefaultMaxVoices is the per-class polyphony limit used when Config leaves it unset
const DefaultMaxVoices = 5

type Config struct {
	Output    audio.Output
	Packs     *soundpack.Library
	MaxVoices int
	Logger    zerolog.Logger
	Rand      func(n int) int // defaults to math/rand/v2 IntN
}

// bank is the decoded audio and timing table for one class. It is swapped
// wholesale on load and never mutated.
type bank struct {
	packID string
	buf    *soundpack.Buffer
	table  *timingTable
}

type classState struct {
	class DeviceClass

	bankMu sync.RWMutex
	bank   *bank

	press   *pressState
	voices  *voicePool
	volume  *volume
	enabled atomic.Bool
}

func (cs *classState) current() *bank {
	cs.bankMu.RLock()
	defer cs.bankMu.RUnlock()
	return cs.bank
}

type Engine struct {
	out   audio.Output
	packs *soundpack.Library
	log   zerolog.Logger
	rand  func(int) int

	classes [2]*classState

	muted     atomic.Bool
	randomize atomic.Bool
	closed    atomic.Bool

	loadMu sync.Mutex // serializes LoadSoundpack
}

func New(cfg Config) *Engine {
	maxVoices := cfg.MaxVoices
	if maxVoices <= 0 {
		maxVoices = DefaultMaxVoices
	}
	pick := cfg.Rand
	if pick == nil {
		pick = rand.IntN
	}

	e := &Engine{
		out:   cfg.Output,
		packs: cfg.Packs,
		log:   cfg.Logger,
		rand:  pick,
	}
	for _, c := range []DeviceClass{Keyboard, Mouse} {
		cs := &classState{
			class:  c,
			press:  newPressState(),
			voices: newVoicePool(maxVoices),
			volume: newVolume(1),
		}
		cs.enabled.Store(true)
		e.classes[c] = cs
	}
	return e
}

func (e *Engine) state(class DeviceClass) *classState {
	if class != Mouse {
		return e.classes[Keyboard]
	}
	return e.classes[Mouse]
}

// Dispatch handles one key edge. It never blocks on I/O and never fails;
// problems are logged and the event is dropped.
func (e *Engine) Dispatch(class DeviceClass, key string, isDown bool) {
	if key == "" || e.closed.Load() {
		return
	}
	cs := e.state(class)
	edge := edgeOf(isDown)

	if !cs.press.accept(key, isDown) {
		e.log.Trace().Str("key", key).Stringer("edge", edge).Msg("Debounced")
		return
	}
	if e.muted.Load() || !cs.enabled.Load() {
		return
	}

	// generation is read before the bank so a load that lands in between
	// makes allocate drop the voice instead of outliving the swap
	gen := cs.voices.generation()
	b := cs.current()
	if b == nil {
		return
	}

	iv, source, ok := b.table.resolve(key, edge, e.randomize.Load(), e.rand, e.log)
	if !ok {
		return
	}
	e.playSegment(cs, b, gen, key, source, iv, edge)
}

// playSegment bounds-checks and slices the interval, then hands the slice
// to the voice pool. Keyboard overruns are clamped, mouse overruns rejected.
func (e *Engine) playSegment(cs *classState, b *bank, gen uint64, key, source string, iv soundpack.Interval, edge Edge) {
	samples, err := sliceSegment(b.buf, iv, cs.class == Keyboard)
	if err != nil {
		ev := e.log.Warn()
		if errors.Is(err, errStartBeyond) {
			ev = e.log.Error()
		}
		ev.Err(err).
			Stringer("class", cs.class).
			Str("soundpack", b.packID).
			Str("key", source).
			Stringer("edge", edge).
			Msg("Dropped keystroke: bad timing")
		return
	}

	res := cs.voices.allocate(gen, e.out, key, edge, samples, b.buf.Channels, b.buf.SampleRate, cs.volume)
	for _, k := range res.evicted {
		cs.press.release(k)
	}
	if res.stale {
		e.log.Debug().Stringer("class", cs.class).Str("key", key).Msg("Dropped keystroke: soundpack changed")
		return
	}
	if res.err != nil {
		e.log.Error().Err(res.err).
			Stringer("class", cs.class).
			Str("key", key).
			Msg("Dropped keystroke: audio output failed")
	}
}

// SetVolume sets the class volume, clamped to [0,1], and applies it to
// voices already playing
func (e *Engine) SetVolume(class DeviceClass, v float32) {
	cs := e.state(class)
	v = cs.volume.set(v)
	cs.voices.setVolume(v)
}

func (e *Engine) Volume(class DeviceClass) float32 {
	return e.state(class).volume.get()
}

// SetEnabled turns one device class on or off
func (e *Engine) SetEnabled(class DeviceClass, on bool) {
	e.state(class).enabled.Store(on)
}

func (e *Engine) Enabled(class DeviceClass) bool {
	return e.state(class).enabled.Load()
}

// SetMuted silences every class without touching per-class settings
func (e *Engine) SetMuted(muted bool) {
	e.muted.Store(muted)
}

func (e *Engine) Muted() bool {
	return e.muted.Load()
}

// SetRandomize makes every keystroke play a randomly chosen mapped key
func (e *Engine) SetRandomize(on bool) {
	e.randomize.Store(on)
}

func (e *Engine) Randomize() bool {
	return e.randomize.Load()
}

// Soundpack returns the id of the loaded soundpack, or "" when none is
func (e *Engine) Soundpack(class DeviceClass) string {
	if b := e.state(class).current(); b != nil {
		return b.packID
	}
	return ""
}

// ActiveVoices returns the number of voices still playing for class
func (e *Engine) ActiveVoices(class DeviceClass) int {
	return e.state(class).voices.active()
}

// LoadSoundpack decodes soundpack id and swaps it in for class. On error
// the previous soundpack stays loaded and playing.
func (e *Engine) LoadSoundpack(class DeviceClass, id string) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if e.packs == nil {
		return &LoadError{Class: class, SoundpackID: id, Kind: ConfigMissing, Err: errors.New("no soundpack library configured")}
	}

	pack, buf, err := e.packs.LoadWithAudio(id)
	if err != nil {
		return &LoadError{Class: class, SoundpackID: id, Kind: classify(err), Err: err}
	}

	defs := pack.Defs
	switch {
	case pack.Mouse && class == Keyboard:
		return &LoadError{Class: class, SoundpackID: id, Kind: WrongClass}
	case !pack.Mouse && class == Mouse:
		defs = mouseDefsFromKeyboard(defs)
	}

	next := &bank{packID: id, buf: buf, table: newTimingTable(defs)}
	cs := e.state(class)

	cs.bankMu.Lock()
	cs.bank = next
	cs.bankMu.Unlock()

	cs.voices.stopAll()
	cs.press.reset()

	e.log.Info().
		Stringer("class", class).
		Str("soundpack", id).
		Int("keys", next.table.len()).
		Float64("duration_ms", buf.DurationMs()).
		Uint16("channels", buf.Channels).
		Uint32("sample_rate", buf.SampleRate).
		Msg("Soundpack loaded")
	return nil
}

// Close stops every voice. Dispatch is a no-op afterwards.
func (e *Engine) Close() {
	e.closed.Store(true)
	for _, cs := range e.classes {
		cs.voices.stopAll()
		cs.press.reset()
	}
}
