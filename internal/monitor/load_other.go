//go:build !linux

package monitor

import (
	"context"
	"errors"
)

// LoadSampler is only available on linux.
type LoadSampler struct{}

// NewLoadSampler always fails on this platform.
func NewLoadSampler() (*LoadSampler, error) {
	return nil, errors.New("load sampler requires linux")
}

// Sample implements Sampler.
func (s *LoadSampler) Sample(ctx context.Context) (int64, error) {
	return 0, errors.New("load sampler requires linux")
}
