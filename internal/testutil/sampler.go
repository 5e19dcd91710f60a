package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned once a ScriptedSampler runs out of samples.
var ErrScriptExhausted = errors.New("scripted sampler: no samples left")

// ScriptedSampler replays a fixed list of samples in order.
type ScriptedSampler struct {
	mu      sync.Mutex
	samples []int64
	errs    map[int]error
	next    int
}

// NewScriptedSampler creates a sampler that yields samples in order.
func NewScriptedSampler(samples ...int64) *ScriptedSampler {
	return &ScriptedSampler{samples: samples, errs: make(map[int]error)}
}

// Push appends more samples to the script.
func (s *ScriptedSampler) Push(samples ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
}

// FailAt makes the i-th call (0-based) return err instead of a sample.
// The sample at that position is skipped.
func (s *ScriptedSampler) FailAt(i int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[i] = err
}

// Sample returns the next scripted value.
func (s *ScriptedSampler) Sample(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next
	if i >= len(s.samples) {
		return 0, ErrScriptExhausted
	}
	s.next++
	if err, ok := s.errs[i]; ok {
		return 0, err
	}
	return s.samples[i], nil
}

// Remaining reports how many samples have not been consumed.
func (s *ScriptedSampler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples) - s.next
}
