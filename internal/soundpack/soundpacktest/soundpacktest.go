// Package soundpacktest writes soundpack fixtures for tests.
package soundpacktest

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"github.com/petems/keyclack/internal/soundpack"
)

// Fixture describes a soundpack to write to disk
type Fixture struct {
	ID         string
	Name       string
	Mouse      bool
	Defs       map[string][]soundpack.Interval
	DurationMs int // length of the generated tone
	SampleRate int // defaults to 8000
	Channels   int // defaults to 1
	Source     string
	NoAudio    bool
}

// WritePack writes <root>/<id>/config.json and its WAV source, returning the pack dir
func WritePack(t testing.TB, root string, f Fixture) string {
	t.Helper()

	if f.SampleRate == 0 {
		f.SampleRate = 8000
	}
	if f.Channels == 0 {
		f.Channels = 1
	}
	if f.Source == "" {
		f.Source = "sound.wav"
	}
	if f.Name == "" {
		f.Name = f.ID
	}

	dir := filepath.Join(root, f.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}

	cfg := soundpack.Pack{
		ID:            f.ID,
		Name:          f.Name,
		Author:        "test",
		Mouse:         f.Mouse,
		ConfigVersion: 2,
		Source:        "./" + f.Source,
		Defs:          f.Defs,
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if !f.NoAudio {
		frames := f.SampleRate * f.DurationMs / 1000
		WriteWAV(t, filepath.Join(dir, f.Source), Tone(frames, f.Channels), f.Channels, f.SampleRate)
	}
	return dir
}

// Tone returns an interleaved sine at half amplitude
func Tone(frames, channels int) []float32 {
	out := make([]float32, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(float64(i)*0.3))
		for c := 0; c < channels; c++ {
			out = append(out, v)
		}
	}
	return out
}

// WriteWAV encodes interleaved samples as 16-bit PCM
func WriteWAV(t testing.TB, path string, samples []float32, channels, rate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: channels,
		Precision:   2,
	}
	if err := wav.Encode(f, &frameStreamer{samples: samples, channels: channels}, format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

type frameStreamer struct {
	samples  []float32
	channels int
	pos      int
}

func (s *frameStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for n < len(buf) && s.pos < len(s.samples) {
		l := float64(s.samples[s.pos])
		r := l
		if s.channels > 1 {
			r = float64(s.samples[s.pos+1])
		}
		buf[n] = [2]float64{l, r}
		s.pos += s.channels
		n++
	}
	return n, true
}

func (s *frameStreamer) Err() error { return nil }
