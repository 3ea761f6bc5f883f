package engine

import "sync"

// pressState tracks which keys have an accepted down without a matching up
type pressState struct {
	mu   sync.Mutex
	down map[string]bool
}

func newPressState() *pressState {
	return &pressState{down: make(map[string]bool)}
}

// accept reports whether an edge changes the key's state. Repeated downs
// and stray ups are rejected.
func (p *pressState) accept(key string, isDown bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isDown {
		if p.down[key] {
			return false
		}
		p.down[key] = true
		return true
	}

	if !p.down[key] {
		return false
	}
	delete(p.down, key)
	return true
}

// release forgets a key's down state, used when its voice is evicted
func (p *pressState) release(key string) {
	p.mu.Lock()
	delete(p.down, key)
	p.mu.Unlock()
}

func (p *pressState) isDown(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.down[key]
}

func (p *pressState) reset() {
	p.mu.Lock()
	p.down = make(map[string]bool)
	p.mu.Unlock()
}
