// Package keymutex provides mutual exclusion scoped to a string key, so that
// operations on the same user, event or match serialize without a global lock.
package keymutex

import "sync"

// KeyMutex hands out one mutex per key. Mutexes are created lazily and kept
// for the life of the KeyMutex; the key space here (users, events, matches)
// is small enough that no eviction is needed.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
