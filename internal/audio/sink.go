package audio

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

const resampleQuality = 4

var errAlreadyPlaying = errors.New("sink already playing")

// beepSink is the Sink shared by the speaker and portaudio backends. Each
// sink is Seq(Ctrl(Volume(Resample(pcm))), Callback) added to a mixer that
// is guarded by locker.
type beepSink struct {
	rate   beep.SampleRate
	locker sync.Locker
	play   func(beep.Streamer)

	mu     sync.Mutex
	volume float32
	ctrl   *beep.Ctrl
	vol    *effects.Volume

	finished atomic.Bool
}

func newBeepSink(rate beep.SampleRate, locker sync.Locker, play func(beep.Streamer)) *beepSink {
	return &beepSink{
		rate:   rate,
		locker: locker,
		play:   play,
		volume: 1,
	}
}

func (s *beepSink) SetVolume(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = v
	if s.vol == nil {
		return
	}
	s.locker.Lock()
	applyVolume(s.vol, v)
	s.locker.Unlock()
}

func (s *beepSink) Play(samples []float32, channels uint16, sampleRate uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil {
		return errAlreadyPlaying
	}

	var src beep.Streamer = &pcmStreamer{samples: samples, channels: int(channels)}
	if in := beep.SampleRate(sampleRate); in != s.rate {
		src = beep.Resample(resampleQuality, in, s.rate, src)
	}

	s.vol = &effects.Volume{Streamer: src, Base: 2}
	applyVolume(s.vol, s.volume)
	s.ctrl = &beep.Ctrl{Streamer: s.vol}

	s.play(beep.Seq(s.ctrl, beep.Callback(func() {
		s.finished.Store(true)
	})))
	return nil
}

func (s *beepSink) Finished() bool {
	return s.finished.Load()
}

func (s *beepSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil {
		s.locker.Lock()
		s.ctrl.Streamer = nil
		s.locker.Unlock()
	}
	s.finished.Store(true)
}

// applyVolume maps a linear 0..1 gain onto beep's exponential volume
func applyVolume(v *effects.Volume, gain float32) {
	if gain <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(float64(gain))
}

// pcmStreamer streams interleaved float32 PCM as beep stereo frames
type pcmStreamer struct {
	samples  []float32
	channels int
	pos      int
}

func (p *pcmStreamer) Stream(buf [][2]float64) (int, bool) {
	if p.channels < 1 || p.pos >= len(p.samples) {
		return 0, false
	}

	n := 0
	for n < len(buf) && p.pos+p.channels <= len(p.samples) {
		l := float64(p.samples[p.pos])
		r := l
		if p.channels > 1 {
			r = float64(p.samples[p.pos+1])
		}
		buf[n] = [2]float64{l, r}
		p.pos += p.channels
		n++
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

func (p *pcmStreamer) Err() error { return nil }
