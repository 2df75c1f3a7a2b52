package generator

import (
	"math/rand"
	"sync"
	"time"
)

// LockedRand is a ports.RNGPort safe for concurrent sessions
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRand returns a seeded source; tests use this for reproducible draws
func NewRand(seed int64) *LockedRand {
	return &LockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// NewUnseededRand returns a time-seeded source for production
func NewUnseededRand() *LockedRand {
	return NewRand(time.Now().UnixNano())
}

// Intn returns a uniform int in [0, n)
func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}
