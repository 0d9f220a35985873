package keyring

import (
	"fmt"
	"sync"
	"time"
)

// KeyRing holds one or more API key pairs and rotates between them.
// A single key pair is the common case; multiple pairs spread load
// across sub-account quotas.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
}

type APIKey struct {
	ID         string
	Key        string
	Secret     string
	Disabled   bool
	LastUsed   time.Time
	ErrorCount int
}

type RotationStrategy int

const (
	RotationRoundRobin RotationStrategy = iota
	RotationOnError
)

func New(keys []*APIKey, strategy RotationStrategy) *KeyRing {
	keysCopy := make([]*APIKey, len(keys))
	for i, k := range keys {
		c := *k
		keysCopy[i] = &c
	}
	return &KeyRing{
		keys:     keysCopy,
		strategy: strategy,
	}
}

// Current returns the active key, skipping disabled ones. It returns
// nil when no usable key remains.
func (k *KeyRing) Current() *APIKey {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for i := 0; i < len(k.keys); i++ {
		idx := (k.current + i) % len(k.keys)
		if !k.keys[idx].Disabled {
			return k.keys[idx]
		}
	}
	return nil
}

// Rotate advances to the next enabled key.
func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rotateLocked()
}

func (k *KeyRing) rotateLocked() {
	if len(k.keys) == 0 {
		return
	}
	start := k.current
	for {
		k.current = (k.current + 1) % len(k.keys)
		if !k.keys[k.current].Disabled || k.current == start {
			return
		}
	}
}

// OnError records a failure against the active key and rotates when
// the strategy calls for it.
func (k *KeyRing) OnError() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return
	}
	k.keys[k.current].ErrorCount++
	if k.strategy == RotationOnError {
		k.rotateLocked()
	}
}

// MarkUsed stamps the active key with the current time.
func (k *KeyRing) MarkUsed() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return
	}
	k.keys[k.current].LastUsed = time.Now()
}

func (k *KeyRing) Disable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = true
			return
		}
	}
}

func (k *KeyRing) Enable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = false
			key.ErrorCount = 0
			return
		}
	}
}

func (k *KeyRing) Add(key *APIKey) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, existing := range k.keys {
		if existing.ID == key.ID {
			return
		}
	}
	c := *key
	k.keys = append(k.keys, &c)
}

func (k *KeyRing) Remove(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, key := range k.keys {
		if key.ID == id {
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			if k.current >= len(k.keys) && len(k.keys) > 0 {
				k.current = 0
			}
			return
		}
	}
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
