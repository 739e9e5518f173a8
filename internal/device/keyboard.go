package device

import "sync"

// KeyTracker turns key-down/up transitions into a key-down set. Transitions
// may arrive on any goroutine.
type KeyTracker struct {
	mu   sync.Mutex
	down KeySet
}

// NewKeyTracker returns a tracker with no keys held.
func NewKeyTracker() *KeyTracker {
	return &KeyTracker{down: KeySet{}}
}

// Set records a transition for code.
func (k *KeyTracker) Set(code string, down bool) {
	if code == "" {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if down {
		k.down[code] = struct{}{}
	} else {
		delete(k.down, code)
	}
}

// Reset releases every key.
func (k *KeyTracker) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.down = KeySet{}
}

// KeysDown returns a copy of the key-down set.
func (k *KeyTracker) KeysDown() KeySet {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(KeySet, len(k.down))
	for c := range k.down {
		out[c] = struct{}{}
	}
	return out
}
