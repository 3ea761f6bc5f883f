package soundpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// MaxSourceBytes caps the size of a soundpack's audio file
const MaxSourceBytes = 10 << 20

// Buffer is fully decoded interleaved PCM. It is never mutated after
// construction; playback copies slices out of it.
type Buffer struct {
	Samples    []float32
	Channels   uint16
	SampleRate uint32
}

// NewBuffer checks the interleaving invariant before wrapping samples
func NewBuffer(samples []float32, channels uint16, sampleRate uint32) (*Buffer, error) {
	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("invalid pcm format: %d channels at %d Hz", channels, sampleRate)
	}
	if len(samples)%int(channels) != 0 {
		return nil, fmt.Errorf("pcm length %d is not a multiple of %d channels", len(samples), channels)
	}
	return &Buffer{Samples: samples, Channels: channels, SampleRate: sampleRate}, nil
}

// Frames returns the number of sample frames
func (b *Buffer) Frames() int {
	return len(b.Samples) / int(b.Channels)
}

// DurationMs returns the playable length of the buffer
func (b *Buffer) DurationMs() float64 {
	return float64(len(b.Samples)) / float64(b.SampleRate) / float64(b.Channels) * 1000
}

// Decode reads and fully decodes an audio file (wav, mp3, ogg/vorbis, flac)
func Decode(path string) (*Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxSourceBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrSourceTooLarge, path, info.Size(), MaxSourceBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer streamer.Close()

	return readAll(streamer, format)
}

// readAll drains a beep streamer into interleaved float32 samples. beep
// always streams stereo frames; mono sources keep only the left channel.
func readAll(s beep.Streamer, format beep.Format) (*Buffer, error) {
	channels := format.NumChannels
	if channels < 1 {
		channels = 1
	}
	if channels > 2 {
		channels = 2
	}

	capacity := 0
	if l, ok := s.(beep.StreamSeeker); ok && l.Len() > 0 {
		capacity = l.Len() * channels
	}
	samples := make([]float32, 0, capacity)

	chunk := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(chunk)
		for i := 0; i < n; i++ {
			samples = append(samples, float32(chunk[i][0]))
			if channels == 2 {
				samples = append(samples, float32(chunk[i][1]))
			}
		}
		if !ok || n == 0 {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no audio data decoded", ErrDecode)
	}

	return NewBuffer(samples, uint16(channels), uint32(format.SampleRate))
}
