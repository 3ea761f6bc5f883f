package audio

import (
	"sync"
)

// Headless is an Output that records what it is asked to play instead of
// producing sound. It backs the "none" backend and the engine tests.
type Headless struct {
	mu       sync.Mutex
	sinks    []*HeadlessSink
	failNext error
	closed   bool
}

// NewHeadless returns an empty headless output
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) NewSink() (Sink, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrDeviceLost
	}
	if err := h.failNext; err != nil {
		h.failNext = nil
		return nil, err
	}
	s := &HeadlessSink{volume: 1}
	h.sinks = append(h.sinks, s)
	return s, nil
}

// FailNext makes the next NewSink call return err
func (h *Headless) FailNext(err error) {
	h.mu.Lock()
	h.failNext = err
	h.mu.Unlock()
}

// Sinks returns every sink created so far, oldest first
func (h *Headless) Sinks() []*HeadlessSink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*HeadlessSink(nil), h.sinks...)
}

// Live returns the sinks that are still playing
func (h *Headless) Live() []*HeadlessSink {
	var live []*HeadlessSink
	for _, s := range h.Sinks() {
		if !s.Finished() {
			live = append(live, s)
		}
	}
	return live
}

// FinishAll marks every sink as having played to completion
func (h *Headless) FinishAll() {
	for _, s := range h.Sinks() {
		s.Finish()
	}
}

func (h *Headless) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.FinishAll()
	return nil
}

// HeadlessSink records a single Play call
type HeadlessSink struct {
	mu         sync.Mutex
	samples    []float32
	channels   uint16
	sampleRate uint32
	volume     float32
	played     bool
	stopped    bool
	finished   bool
}

func (s *HeadlessSink) SetVolume(v float32) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *HeadlessSink) Play(samples []float32, channels uint16, sampleRate uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.played {
		return errAlreadyPlaying
	}
	s.played = true
	s.samples = samples
	s.channels = channels
	s.sampleRate = sampleRate
	return nil
}

func (s *HeadlessSink) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *HeadlessSink) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.finished = true
	s.mu.Unlock()
}

// Finish simulates the end of playback
func (s *HeadlessSink) Finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

// Samples returns the PCM slice handed to Play
func (s *HeadlessSink) Samples() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

// Format returns the channel count and sample rate handed to Play
func (s *HeadlessSink) Format() (uint16, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels, s.sampleRate
}

func (s *HeadlessSink) Volume() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Stopped reports whether Stop was called, as opposed to finishing naturally
func (s *HeadlessSink) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
