package audio

import (
	"errors"
	"testing"

	"github.com/gopxl/beep/v2"
)

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	got := make([]float32, len(input))
	downmixInterleaved(got, input, 1, len(input))

	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %f, got %f", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	frames := 4
	input := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	expected := []float32{
		0.5, 0.5, 0.5, 0.0,
	}

	got := make([]float32, frames)
	downmixInterleaved(got, input, 2, frames)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	frames := 2
	input := []float32{
		1, 3, 5,
		2, 4, 6,
	}

	expected := []float32{3, 4}

	got := make([]float32, frames)
	downmixInterleaved(got, input, 3, frames)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestPortAudioNewSinkAfterClose(t *testing.T) {
	p := &portAudioOutput{rate: beep.SampleRate(48000), mixer: &beep.Mixer{}}

	sink, err := p.NewSink()
	if err != nil {
		t.Fatalf("NewSink on open output: %v", err)
	}
	sink.Stop()

	p.closed.Store(true)
	if _, err := p.NewSink(); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost after close, got %v", err)
	}
}
