package audio

import (
	"errors"
	"fmt"

	"github.com/petems/keyclack/internal/config"
	"github.com/rs/zerolog"
)

// ErrDeviceLost is returned by NewSink once the output has been closed
var ErrDeviceLost = errors.New("audio device lost")

// Sink plays one PCM slice. Play starts playback without waiting for it;
// completion is observed by polling Finished.
type Sink interface {
	SetVolume(v float32)
	Play(samples []float32, channels uint16, sampleRate uint32) error
	Finished() bool
	Stop()
}

// Output creates sinks on an audio device
type Output interface {
	NewSink() (Sink, error)
	Close() error
}

// New opens the output backend selected in cfg
func New(cfg config.AudioConfig, log zerolog.Logger) (Output, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return NewHeadless(), nil
	case config.BackendPortAudio:
		return newPortAudio(cfg, log)
	case config.BackendSpeaker, "":
		return newSpeaker(cfg)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
}
