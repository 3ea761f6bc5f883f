package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/petems/keyclack/internal/config"
)

// speakerOutput plays sinks through beep's global speaker (oto underneath)
type speakerOutput struct {
	rate   beep.SampleRate
	closed atomic.Bool
}

func newSpeaker(cfg config.AudioConfig) (Output, error) {
	rate := beep.SampleRate(cfg.SampleRate)
	buffer := rate.N(time.Duration(cfg.BufferMs) * time.Millisecond)

	if err := speaker.Init(rate, buffer); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return &speakerOutput{rate: rate}, nil
}

func (o *speakerOutput) NewSink() (Sink, error) {
	if o.closed.Load() {
		return nil, ErrDeviceLost
	}
	return newBeepSink(o.rate, speakerLock{}, func(s beep.Streamer) {
		speaker.Play(s)
	}), nil
}

func (o *speakerOutput) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	return nil
}

// speakerLock adapts the speaker's global lock to sync.Locker
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }
