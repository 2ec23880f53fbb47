package player

import "sync"

// relay enforces the delivery rules shared by every provider:
// unready samples are dropped, a pause is reported once per pause action,
// the end is reported once, and nothing is delivered after cancel.
// Callbacks run under the lock, so cancel waits for a callback in progress.
type relay struct {
	mu        sync.Mutex
	cb        Callbacks
	cancelled bool
	paused    bool
	ended     bool
	samples   int
}

func newRelay(cb Callbacks) *relay {
	return &relay{cb: cb}
}

func (r *relay) sample(s Sample) {
	if !s.Ready() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.samples++
	if r.cb.OnSample != nil {
		r.cb.OnSample(s)
	}
}

func (r *relay) pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.paused || r.ended {
		return
	}
	r.paused = true
	if r.cb.OnPause != nil {
		r.cb.OnPause()
	}
}

func (r *relay) resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
}

func (r *relay) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled || r.ended {
		return
	}
	r.ended = true
	if r.cb.OnEnded != nil {
		r.cb.OnEnded()
	}
}

// cancel reports whether this call was the one that cancelled.
func (r *relay) cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return false
	}
	r.cancelled = true
	return true
}

func (r *relay) delivered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}
