package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/keyclack/internal/audio"
	"github.com/petems/keyclack/internal/soundpack"
	"github.com/petems/keyclack/internal/soundpack/soundpacktest"
)

func iv(start, end float32) soundpack.Interval {
	return soundpack.Interval{StartMs: start, EndMs: end}
}

// keyboardPack is 150ms of mono audio at 1kHz, so one sample per millisecond
var keyboardPack = soundpacktest.Fixture{
	ID:         "board",
	DurationMs: 150,
	SampleRate: 1000,
	Defs: map[string][]soundpack.Interval{
		"KeyA":  {iv(0, 100), iv(100, 150)},
		"KeyB":  {iv(10, 20), iv(20, 30)},
		"KeyC":  {iv(30, 40), iv(40, 50)},
		"KeyD":  {iv(50, 60)},
		"Space": {iv(60, 70), iv(70, 80)},
		"KeyX":  {iv(140, 200)},
		"KeyY":  {iv(200, 210)},
		"KeyZ":  {iv(0, 10), iv(10, 20), iv(20, 30)},
	},
}

var mousePack = soundpacktest.Fixture{
	ID:         "mouse",
	Mouse:      true,
	DurationMs: 150,
	SampleRate: 1000,
	Defs: map[string][]soundpack.Interval{
		"MouseLeft":  {iv(0, 20), iv(20, 40)},
		"MouseRight": {iv(140, 200)},
	},
}

type harness struct {
	*Engine
	out  *audio.Headless
	root string
}

func newHarness(t *testing.T, maxVoices int, packs ...soundpacktest.Fixture) *harness {
	t.Helper()
	root := t.TempDir()
	for _, p := range packs {
		soundpacktest.WritePack(t, root, p)
	}
	out := audio.NewHeadless()
	e := New(Config{
		Output:    out,
		Packs:     soundpack.NewLibrary(root),
		MaxVoices: maxVoices,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(e.Close)
	return &harness{Engine: e, out: out, root: root}
}

func (h *harness) decoded(t *testing.T, id string) *soundpack.Buffer {
	t.Helper()
	buf, err := soundpack.Decode(filepath.Join(h.root, id, "sound.wav"))
	require.NoError(t, err)
	return buf
}

func (h *harness) press(class DeviceClass, key string) {
	h.Dispatch(class, key, true)
	h.Dispatch(class, key, false)
}

func TestDownAndUpPlayTheirIntervals(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))
	buf := h.decoded(t, "board")

	h.Dispatch(Keyboard, "KeyA", true)
	h.Dispatch(Keyboard, "KeyA", false)

	sinks := h.out.Sinks()
	require.Len(t, sinks, 2)
	assert.Equal(t, buf.Samples[0:100], sinks[0].Samples())
	assert.Equal(t, buf.Samples[100:150], sinks[1].Samples())

	ch, rate := sinks[0].Format()
	assert.Equal(t, uint16(1), ch)
	assert.Equal(t, uint32(1000), rate)
}

func TestSliceIsACopy(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyB", true)
	samples := h.out.Sinks()[0].Samples()
	want := samples[0]
	samples[0] = 42

	h.Dispatch(Keyboard, "KeyB", false)
	h.Dispatch(Keyboard, "KeyB", true)
	assert.Equal(t, want, h.out.Sinks()[2].Samples()[0])
}

func TestUnmappedKeyIsSilent(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.press(Keyboard, "KeyK")
	assert.Empty(t, h.out.Sinks())
}

func TestNoSoundpackIsSilent(t *testing.T) {
	h := newHarness(t, 0)
	h.press(Keyboard, "KeyA")
	h.press(Mouse, "MouseLeft")
	assert.Empty(t, h.out.Sinks())
	assert.Equal(t, "", h.Soundpack(Keyboard))
}

func TestRepeatedDownPlaysOnce(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	for i := 0; i < 5; i++ {
		h.Dispatch(Keyboard, "KeyB", true)
	}
	assert.Len(t, h.out.Sinks(), 1)

	h.Dispatch(Keyboard, "KeyB", false)
	h.Dispatch(Keyboard, "KeyB", false)
	assert.Len(t, h.out.Sinks(), 2)
}

func TestStrayUpIsIgnored(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyB", false)
	assert.Empty(t, h.out.Sinks())
}

func TestSingleIntervalHasNoRelease(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.press(Keyboard, "KeyD")
	require.Len(t, h.out.Sinks(), 1)
	assert.Len(t, h.out.Sinks()[0].Samples(), 10)
	assert.False(t, h.state(Keyboard).press.isDown("KeyD"), "release is still tracked")
}

func TestMalformedEntryIsSilent(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.press(Keyboard, "KeyZ")
	assert.Empty(t, h.out.Sinks())
}

func TestOverrunClampedForKeyboard(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))
	buf := h.decoded(t, "board")

	h.Dispatch(Keyboard, "KeyX", true)
	require.Len(t, h.out.Sinks(), 1)
	assert.Equal(t, buf.Samples[140:150], h.out.Sinks()[0].Samples())

	// start past the end of the audio is never playable
	h.Dispatch(Keyboard, "KeyY", true)
	assert.Len(t, h.out.Sinks(), 1)
}

func TestOverrunRejectedForMouse(t *testing.T) {
	h := newHarness(t, 0, mousePack)
	require.NoError(t, h.LoadSoundpack(Mouse, "mouse"))

	h.Dispatch(Mouse, "MouseRight", true)
	assert.Empty(t, h.out.Sinks())

	h.Dispatch(Mouse, "MouseLeft", true)
	assert.Len(t, h.out.Sinks(), 1)
}

func TestEvictionResetsPressState(t *testing.T) {
	h := newHarness(t, 2, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyA", true)
	h.Dispatch(Keyboard, "KeyB", true)
	h.Dispatch(Keyboard, "KeyC", true)

	sinks := h.out.Sinks()
	require.Len(t, sinks, 3)
	assert.True(t, sinks[0].Stopped(), "oldest voice is evicted")
	assert.False(t, sinks[1].Stopped())
	assert.Equal(t, 2, h.ActiveVoices(Keyboard))
	assert.Equal(t, []string{"KeyB-down", "KeyC-down"}, h.state(Keyboard).voices.ids())

	assert.False(t, h.state(Keyboard).press.isDown("KeyA"))
	assert.True(t, h.state(Keyboard).press.isDown("KeyB"))

	// the evicted key's release is now stray
	h.Dispatch(Keyboard, "KeyA", false)
	assert.Len(t, h.out.Sinks(), 3)
}

func TestPoolNeverExceedsMaxVoices(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	keys := []string{"KeyA", "KeyB", "KeyC", "KeyD", "Space", "KeyX"}
	for _, k := range keys {
		h.Dispatch(Keyboard, k, true)
	}

	assert.Equal(t, DefaultMaxVoices, h.ActiveVoices(Keyboard))
	assert.Len(t, h.out.Live(), DefaultMaxVoices)
	assert.True(t, h.out.Sinks()[0].Stopped())
}

func TestFinishedVoicesAreSwept(t *testing.T) {
	h := newHarness(t, 2, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyA", true)
	h.Dispatch(Keyboard, "KeyB", true)
	h.out.FinishAll()
	h.Dispatch(Keyboard, "KeyC", true)

	assert.Equal(t, 1, h.ActiveVoices(Keyboard))
	assert.False(t, h.out.Sinks()[0].Stopped(), "finished voices are not evicted")
	assert.True(t, h.state(Keyboard).press.isDown("KeyA"))
}

func TestSameVoiceIDIsReplaced(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.press(Keyboard, "KeyA")
	h.Dispatch(Keyboard, "KeyA", true)

	sinks := h.out.Sinks()
	require.Len(t, sinks, 3)
	assert.True(t, sinks[0].Stopped())
	assert.Equal(t, 2, h.ActiveVoices(Keyboard))
	assert.True(t, h.state(Keyboard).press.isDown("KeyA"))
}

func TestFailedLoadKeepsPreviousState(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))
	h.Dispatch(Keyboard, "KeyA", true)

	err := h.LoadSoundpack(Keyboard, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigMissing)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, Keyboard, loadErr.Class)
	assert.Equal(t, "nope", loadErr.SoundpackID)

	assert.Equal(t, "board", h.Soundpack(Keyboard))
	assert.Equal(t, 1, h.ActiveVoices(Keyboard), "voices keep playing")
	assert.True(t, h.state(Keyboard).press.isDown("KeyA"))

	h.Dispatch(Keyboard, "KeyA", false)
	require.Len(t, h.out.Sinks(), 2)
	assert.Len(t, h.out.Sinks()[1].Samples(), 50)
}

func TestLoadErrorKinds(t *testing.T) {
	h := newHarness(t, 0, keyboardPack, mousePack,
		soundpacktest.Fixture{ID: "silent", NoAudio: true, Defs: keyboardPack.Defs},
	)

	malformed := filepath.Join(h.root, "broken")
	require.NoError(t, os.MkdirAll(malformed, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(malformed, "config.json"), []byte(`{"defs":`), 0644))

	garbled := soundpacktest.WritePack(t, h.root, soundpacktest.Fixture{ID: "garbled", Defs: keyboardPack.Defs, DurationMs: 10})
	require.NoError(t, os.WriteFile(filepath.Join(garbled, "sound.wav"), []byte("RIFF nonsense"), 0644))

	tests := []struct {
		id    string
		class DeviceClass
		kind  LoadErrorKind
		want  error
	}{
		{"missing", Keyboard, ConfigMissing, ErrConfigMissing},
		{"../board", Keyboard, ConfigMissing, ErrConfigMissing},
		{"broken", Keyboard, ConfigMalformed, ErrConfigMalformed},
		{"silent", Keyboard, AudioMissing, ErrAudioMissing},
		{"garbled", Keyboard, AudioUndecodable, ErrAudioUndecodable},
		{"mouse", Keyboard, WrongClass, ErrWrongClass},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := h.LoadSoundpack(tt.class, tt.id)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.kind, loadErr.Kind)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "", h.Soundpack(tt.class))
		})
	}
}

func TestLoadUnderlyingErrorIsWrapped(t *testing.T) {
	h := newHarness(t, 0)
	err := h.LoadSoundpack(Keyboard, "missing")
	assert.ErrorIs(t, err, soundpack.ErrNoConfig)
	assert.Contains(t, err.Error(), `keyboard soundpack "missing"`)
}

func TestLoadResetsClassState(t *testing.T) {
	second := keyboardPack
	second.ID = "second"
	h := newHarness(t, 0, keyboardPack, second)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyA", true)
	require.NoError(t, h.LoadSoundpack(Keyboard, "second"))

	assert.Equal(t, "second", h.Soundpack(Keyboard))
	assert.True(t, h.out.Sinks()[0].Stopped())
	assert.Zero(t, h.ActiveVoices(Keyboard))

	// KeyA was cleared, so its release is stray and a new press plays
	h.Dispatch(Keyboard, "KeyA", false)
	assert.Len(t, h.out.Sinks(), 1)
	h.Dispatch(Keyboard, "KeyA", true)
	assert.Len(t, h.out.Sinks(), 2)
}

func TestClassesAreIndependent(t *testing.T) {
	h := newHarness(t, 1, keyboardPack, mousePack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))
	require.NoError(t, h.LoadSoundpack(Mouse, "mouse"))

	h.Dispatch(Keyboard, "KeyA", true)
	h.Dispatch(Mouse, "MouseLeft", true)

	assert.Equal(t, 1, h.ActiveVoices(Keyboard))
	assert.Equal(t, 1, h.ActiveVoices(Mouse))
	assert.False(t, h.out.Sinks()[0].Stopped(), "mouse voices do not evict keyboard voices")
}

func TestMouseFallsBackToKeyboardPack(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Mouse, "board"))
	buf := h.decoded(t, "board")

	h.press(Mouse, "MouseLeft")
	sinks := h.out.Sinks()
	require.Len(t, sinks, 2)
	assert.Equal(t, buf.Samples[60:70], sinks[0].Samples(), "MouseLeft uses Space")
	assert.Equal(t, buf.Samples[70:80], sinks[1].Samples())

	h.press(Mouse, "KeyA")
	assert.Len(t, h.out.Sinks(), 2, "keyboard keys are not mapped on the mouse")
}

func TestRandomModePicksMappedKey(t *testing.T) {
	root := t.TempDir()
	soundpacktest.WritePack(t, root, keyboardPack)
	out := audio.NewHeadless()

	var asked []int
	e := New(Config{
		Output: out,
		Packs:  soundpack.NewLibrary(root),
		Logger: zerolog.Nop(),
		Rand: func(n int) int {
			asked = append(asked, n)
			return 1 // sorted keys: KeyA, KeyB, ...
		},
	})
	defer e.Close()
	require.NoError(t, e.LoadSoundpack(Keyboard, "board"))
	e.SetRandomize(true)

	e.Dispatch(Keyboard, "KeyK", true)
	e.Dispatch(Keyboard, "KeyK", false)

	sinks := out.Sinks()
	require.Len(t, sinks, 2)
	assert.Len(t, sinks[0].Samples(), 10, "KeyB down")
	assert.Len(t, sinks[1].Samples(), 10, "KeyB up")
	assert.Equal(t, []int{len(keyboardPack.Defs), len(keyboardPack.Defs)}, asked)
}

func TestVolumeAppliedAndRetroactive(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.SetVolume(Keyboard, 0.5)
	h.Dispatch(Keyboard, "KeyA", true)
	sink := h.out.Sinks()[0]
	assert.Equal(t, float32(0.5), sink.Volume())

	h.SetVolume(Keyboard, 0.2)
	assert.Equal(t, float32(0.2), sink.Volume())
	assert.Equal(t, float32(1), h.Volume(Mouse), "other class untouched")

	h.SetVolume(Keyboard, 3)
	assert.Equal(t, float32(1), h.Volume(Keyboard))
	h.SetVolume(Keyboard, -1)
	assert.Equal(t, float32(0), h.Volume(Keyboard))
}

func TestMutedAndDisabledStillTrackPresses(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.SetMuted(true)
	h.Dispatch(Keyboard, "KeyA", true)
	assert.True(t, h.state(Keyboard).press.isDown("KeyA"))
	h.SetMuted(false)

	// the release is accepted, so it plays its up interval
	h.Dispatch(Keyboard, "KeyA", false)
	require.Len(t, h.out.Sinks(), 1)
	assert.Len(t, h.out.Sinks()[0].Samples(), 50)

	h.SetEnabled(Keyboard, false)
	h.press(Keyboard, "KeyB")
	assert.Len(t, h.out.Sinks(), 1)
	assert.False(t, h.Enabled(Keyboard))
	assert.False(t, h.state(Keyboard).press.isDown("KeyB"))
}

func TestDeviceErrorDropsOnlyThatEvent(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.out.FailNext(errors.New("device unplugged"))
	h.Dispatch(Keyboard, "KeyA", true)
	assert.Empty(t, h.out.Sinks())

	h.Dispatch(Keyboard, "KeyB", true)
	assert.Len(t, h.out.Sinks(), 1)
}

func TestLoadDuringDispatchDropsStaleVoice(t *testing.T) {
	root := t.TempDir()
	soundpacktest.WritePack(t, root, keyboardPack)
	other := keyboardPack
	other.ID = "other"
	soundpacktest.WritePack(t, root, other)
	out := audio.NewHeadless()

	picking := make(chan struct{})
	resume := make(chan struct{})
	e := New(Config{
		Output: out,
		Packs:  soundpack.NewLibrary(root),
		Logger: zerolog.Nop(),
		Rand: func(n int) int {
			// the dispatch has read the bank by the time it picks a key
			picking <- struct{}{}
			<-resume
			return 0
		},
	})
	defer e.Close()
	require.NoError(t, e.LoadSoundpack(Keyboard, "board"))
	e.SetRandomize(true)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Dispatch(Keyboard, "KeyA", true)
	}()

	<-picking
	require.NoError(t, e.LoadSoundpack(Keyboard, "other"))
	close(resume)
	<-done

	assert.Equal(t, "other", e.Soundpack(Keyboard))
	assert.Empty(t, out.Live(), "no voice from the old soundpack survives the swap")
	assert.Zero(t, e.ActiveVoices(Keyboard))
	assert.False(t, e.state(Keyboard).press.isDown("KeyA"))

	// the class plays normally with the new soundpack afterwards
	e.SetRandomize(false)
	e.Dispatch(Keyboard, "KeyB", true)
	assert.Equal(t, 1, e.ActiveVoices(Keyboard))
}

func TestCloseStopsEverything(t *testing.T) {
	h := newHarness(t, 0, keyboardPack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))

	h.Dispatch(Keyboard, "KeyA", true)
	h.Close()
	assert.True(t, h.out.Sinks()[0].Stopped())

	h.Dispatch(Keyboard, "KeyB", true)
	assert.Len(t, h.out.Sinks(), 1)
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, Mouse, ClassOf("MouseLeft"))
	assert.Equal(t, Mouse, ClassOf("MouseWheelUp"))
	assert.Equal(t, Keyboard, ClassOf("KeyM"))
	assert.Equal(t, Keyboard, ClassOf("Space"))
}

func TestConcurrentProducers(t *testing.T) {
	h := newHarness(t, 3, keyboardPack, mousePack)
	require.NoError(t, h.LoadSoundpack(Keyboard, "board"))
	require.NoError(t, h.LoadSoundpack(Mouse, "mouse"))

	keys := []string{"KeyA", "KeyB", "KeyC", "KeyD", "Space"}
	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := keys[i%len(keys)]
				h.Dispatch(Keyboard, k, true)
				h.Dispatch(Mouse, "MouseLeft", i%2 == 0)
				h.Dispatch(Keyboard, k, false)
			}
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.SetVolume(Keyboard, float32(i%10)/10)
			h.out.FinishAll()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			assert.NoError(t, h.LoadSoundpack(Keyboard, "board"))
		}
	}()
	wg.Wait()

	assert.LessOrEqual(t, h.ActiveVoices(Keyboard), 3)
	assert.LessOrEqual(t, h.ActiveVoices(Mouse), 3)
	assert.LessOrEqual(t, len(h.out.Live()), 6)
}
