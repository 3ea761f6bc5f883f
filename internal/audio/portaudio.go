package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/petems/keyclack/internal/config"
)

// portAudioOutput mixes every sink into one PortAudio output stream
type portAudioOutput struct {
	stream   *portaudio.Stream
	rate     beep.SampleRate
	channels int
	log      zerolog.Logger

	mu    sync.Mutex // guards mixer; held by the stream callback
	mixer *beep.Mixer

	// Only touched from the stream callback
	frames [][2]float64
	stereo []float32

	closed atomic.Bool
}

func newPortAudio(cfg config.AudioConfig, log zerolog.Logger) (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	device, err := findOutputDevice(cfg.DeviceID)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	// Stereo unless the device can only do mono
	channels := 2
	if device.MaxOutputChannels < 2 {
		channels = 1
	}

	p := &portAudioOutput{
		rate:     beep.SampleRate(cfg.SampleRate),
		channels: channels,
		log:      log,
		mixer:    &beep.Mixer{},
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowOutputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.SampleRate * cfg.BufferMs / 1000,
	}, p.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	p.stream = stream

	log.Info().
		Str("device", device.Name).
		Int("channels", channels).
		Int("sample_rate", cfg.SampleRate).
		Msg("PortAudio output started")

	return p, nil
}

func findOutputDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		device, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default output device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == deviceID && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", deviceID)
}

// process is the PortAudio stream callback
func (p *portAudioOutput) process(out []float32) {
	frames := len(out) / p.channels
	if cap(p.frames) < frames {
		p.frames = make([][2]float64, frames)
		p.stereo = make([]float32, frames*2)
	}
	buf := p.frames[:frames]
	for i := range buf {
		buf[i] = [2]float64{}
	}

	p.mu.Lock()
	p.mixer.Stream(buf)
	p.mu.Unlock()

	if p.channels == 2 {
		for i, f := range buf {
			out[2*i] = float32(f[0])
			out[2*i+1] = float32(f[1])
		}
		return
	}

	stereo := p.stereo[:frames*2]
	for i, f := range buf {
		stereo[2*i] = float32(f[0])
		stereo[2*i+1] = float32(f[1])
	}
	downmixInterleaved(out, stereo, 2, frames)
}

func (p *portAudioOutput) NewSink() (Sink, error) {
	if p.closed.Load() {
		return nil, ErrDeviceLost
	}
	return newBeepSink(p.rate, &p.mu, func(s beep.Streamer) {
		p.mu.Lock()
		p.mixer.Add(s)
		p.mu.Unlock()
	}), nil
}

func (p *portAudioOutput) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to stop audio stream")
		}
		p.stream.Close()
	}
	p.mu.Lock()
	p.mixer.Clear()
	p.mu.Unlock()
	return portaudio.Terminate()
}

// downmixInterleaved averages each interleaved frame of input into out
func downmixInterleaved(out, input []float32, channels, frames int) {
	if channels <= 1 {
		copy(out[:frames], input[:frames])
		return
	}
	for f := 0; f < frames; f++ {
		var sum float32
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += input[base+c]
		}
		out[f] = sum / float32(channels)
	}
}
