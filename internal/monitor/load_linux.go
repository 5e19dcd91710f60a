//go:build linux

package monitor

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sys/unix"
)

// loadScale is the fixed-point scale of sysinfo load averages (1 << SI_LOAD_SHIFT).
const loadScale = 1 << 16

// LoadSampler reports the one-minute load average as a percentage of the
// number of CPUs (a fully loaded machine reads 100).
type LoadSampler struct {
	cpus int
}

// NewLoadSampler returns a sampler for this machine.
func NewLoadSampler() (*LoadSampler, error) {
	return &LoadSampler{cpus: runtime.NumCPU()}, nil
}

// Sample implements Sampler.
func (s *LoadSampler) Sample(ctx context.Context) (int64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	load1 := float64(info.Loads[0]) / loadScale
	return int64(math.Round(load1 / float64(s.cpus) * 100)), nil
}
