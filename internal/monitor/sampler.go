package monitor

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Sampler measures the monitored quantity.
type Sampler interface {
	Sample(ctx context.Context) (int64, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context) (int64, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(ctx context.Context) (int64, error) {
	return f(ctx)
}

// DefaultProcStat is where the kernel exposes aggregate CPU time.
const DefaultProcStat = "/proc/stat"

// CPUSampler reports system-wide CPU utilisation in percent over the
// interval since the previous sample, rounded to an integer.
//
// The first reading only primes the counters, so NewCPUSampler takes one
// immediately and the first Sample covers the time since construction.
type CPUSampler struct {
	path string

	mu        sync.Mutex
	lastBusy  uint64
	lastTotal uint64
	lastPct   int64
}

// NewCPUSampler primes a sampler reading path (DefaultProcStat when empty).
func NewCPUSampler(path string) (*CPUSampler, error) {
	if path == "" {
		path = DefaultProcStat
	}
	s := &CPUSampler{path: path}
	busy, total, err := readCPUTimes(path)
	if err != nil {
		return nil, err
	}
	s.lastBusy, s.lastTotal = busy, total
	return s, nil
}

// Sample implements Sampler. When no CPU time has elapsed since the last
// call the previous percentage is repeated.
func (s *CPUSampler) Sample(ctx context.Context) (int64, error) {
	busy, total, err := readCPUTimes(s.path)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= s.lastTotal || busy < s.lastBusy {
		s.lastBusy, s.lastTotal = busy, total
		return s.lastPct, nil
	}

	dBusy := float64(busy - s.lastBusy)
	dTotal := float64(total - s.lastTotal)
	s.lastBusy, s.lastTotal = busy, total
	s.lastPct = int64(math.Round(dBusy / dTotal * 100))
	return s.lastPct, nil
}

// readCPUTimes parses the aggregate "cpu" line of /proc/stat and returns
// busy and total jiffies. Idle time is idle + iowait; guest time is
// already counted in user and nice so it is not added again.
func readCPUTimes(path string) (busy, total uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read cpu times: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}
		if len(fields) < 5 {
			return 0, 0, fmt.Errorf("read cpu times: short cpu line %q", sc.Text())
		}

		// user nice system idle iowait irq softirq steal
		var vals [8]uint64
		for i := 0; i < len(vals) && i+1 < len(fields); i++ {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("read cpu times: field %d: %w", i+1, err)
			}
			vals[i] = v
		}

		idle := vals[3] + vals[4]
		for _, v := range vals {
			total += v
		}
		return total - idle, total, nil
	}
	if err := sc.Err(); err != nil {
		return 0, 0, fmt.Errorf("read cpu times: %w", err)
	}
	return 0, 0, fmt.Errorf("read cpu times: no cpu line in %s", path)
}
