// Package dicetest provides deterministic dice.Source implementations for
// tests.
package dicetest

import (
	"fmt"
	"sync"
)

// Scripted replays queued values. Intn and Float64 consume separate queues.
// An exhausted queue yields 0 unless Strict is set, in which case it panics.
type Scripted struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	Strict bool
}

// New returns a Scripted source with no queued values.
func New() *Scripted {
	return &Scripted{}
}

// Ints appends values to the Intn queue and returns s.
func (s *Scripted) Ints(vals ...int) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints = append(s.ints, vals...)
	return s
}

// Floats appends values to the Float64 queue and returns s.
func (s *Scripted) Floats(vals ...float64) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = append(s.floats, vals...)
	return s
}

// Intn returns the next queued int. Queued values are reduced modulo n.
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("dicetest: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		if s.Strict {
			panic(fmt.Sprintf("dicetest: Intn(%d) with empty queue", n))
		}
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

// Float64 returns the next queued float.
func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		if s.Strict {
			panic("dicetest: Float64 with empty queue")
		}
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// Remaining reports how many queued ints and floats are unused.
func (s *Scripted) Remaining() (ints, floats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ints), len(s.floats)
}
