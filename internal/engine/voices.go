package engine

import (
	"sync"
	"sync/atomic"

	"github.com/petems/keyclack/internal/audio"
)

type voice struct {
	id   string
	key  string
	edge Edge
	sink audio.Sink
}

func voiceID(key string, edge Edge) string {
	return key + "-" + edge.String()
}

// voicePool bounds the number of live voices of one device class. order
// holds voice ids oldest first so eviction is deterministic. gen is bumped
// under mu by stopAll; allocations started against an older gen are dropped.
type voicePool struct {
	mu     sync.Mutex
	max    int
	voices map[string]*voice
	order  []string
	gen    atomic.Uint64
}

func newVoicePool(maxVoices int) *voicePool {
	if maxVoices < 1 {
		maxVoices = 1
	}
	return &voicePool{
		max:    maxVoices,
		voices: make(map[string]*voice, maxVoices),
	}
}

// allocation is what allocate did besides starting the voice
type allocation struct {
	evicted []string // owner keys of evicted voices
	stale   bool     // stopAll ran since gen was read
	err     error
}

// generation returns the current stopAll generation
func (p *voicePool) generation() uint64 {
	return p.gen.Load()
}

// allocate starts samples on a new sink from out at the given volume.
// Finished voices are swept first; if the pool is still full the oldest
// voice is stopped. A voice with the same id is replaced. Nothing starts
// when gen is no longer current.
func (p *voicePool) allocate(gen uint64, out audio.Output, key string, edge Edge, samples []float32, channels uint16, rate uint32, vol *volume) allocation {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen.Load() {
		return allocation{stale: true}
	}
	p.sweepLocked()

	sink, err := out.NewSink()
	if err != nil {
		return allocation{err: err}
	}
	sink.SetVolume(vol.get())

	var res allocation
	id := voiceID(key, edge)
	if old, ok := p.voices[id]; ok {
		old.sink.Stop()
		p.removeLocked(id)
	}
	for len(p.voices) >= p.max {
		oldest := p.voices[p.order[0]]
		oldest.sink.Stop()
		p.removeLocked(oldest.id)
		res.evicted = append(res.evicted, oldest.key)
	}

	if err := sink.Play(samples, channels, rate); err != nil {
		sink.Stop()
		res.err = err
		return res
	}

	p.voices[id] = &voice{id: id, key: key, edge: edge, sink: sink}
	p.order = append(p.order, id)
	return res
}

// sweepLocked drops voices that finished playing
func (p *voicePool) sweepLocked() {
	kept := p.order[:0]
	for _, id := range p.order {
		if p.voices[id].sink.Finished() {
			delete(p.voices, id)
			continue
		}
		kept = append(kept, id)
	}
	clear(p.order[len(kept):])
	p.order = kept
}

func (p *voicePool) removeLocked(id string) {
	delete(p.voices, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

// setVolume applies v to every live voice
func (p *voicePool) setVolume(v float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, vc := range p.voices {
		vc.sink.SetVolume(v)
	}
}

// active sweeps finished voices and returns how many remain
func (p *voicePool) active() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweepLocked()
	return len(p.voices)
}

// ids returns the ids of live voices, oldest first
func (p *voicePool) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweepLocked()
	return append([]string(nil), p.order...)
}

// stopAll stops and forgets every voice
func (p *voicePool) stopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen.Add(1)
	for _, vc := range p.voices {
		vc.sink.Stop()
	}
	clear(p.voices)
	p.order = nil
}
