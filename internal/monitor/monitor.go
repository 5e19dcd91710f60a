package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/notify"
	"github.com/roach88/mibagent/internal/store"
)

// DefaultInterval is the tick cadence.
const DefaultInterval = 5 * time.Second

// Objects names the store objects the monitor works with.
type Objects struct {
	Gauge     string // Integer, written every tick
	Threshold string // Integer, read every tick
	Address   string // Text, alert destination (optional)
	Manager   string // Text, included in messages (optional)
}

// DefaultObjects matches the stock descriptor table.
var DefaultObjects = Objects{
	Gauge:     "cpuUsage",
	Threshold: "cpuThreshold",
	Address:   "managerEmail",
	Manager:   "manager",
}

// Monitor is the periodic threshold sampler.
//
// Thread-safety: Run and Tick must not be called concurrently with each
// other; the edge detector is owned by whichever goroutine drives ticks.
type Monitor struct {
	store   *store.Store
	sampler Sampler
	sink    notify.Sink

	objects  Objects
	gauge    mib.Descriptor
	thresh   mib.Descriptor
	address  mib.OID
	interval time.Duration
	now      func() time.Time
	newID    func() string
	started  time.Time
	logger   *slog.Logger

	edge EdgeDetector
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the tick cadence. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithObjects overrides which store objects the monitor uses.
func WithObjects(o Objects) Option {
	return func(m *Monitor) {
		m.objects = o
	}
}

// WithClock sets the time source used for alert timestamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithAlertIDs sets the alert identifier generator. Defaults to
// notify.NewAlertID.
func WithAlertIDs(gen func() string) Option {
	return func(m *Monitor) {
		m.newID = gen
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// New builds a monitor over st. The gauge and threshold objects must be
// cataloged Integer objects; address and manager, when named, must be Text.
func New(st *store.Store, sampler Sampler, sink notify.Sink, opts ...Option) (*Monitor, error) {
	if st == nil || sampler == nil || sink == nil {
		return nil, errors.New("monitor: store, sampler and sink are required")
	}

	m := &Monitor{
		store:    st,
		sampler:  sampler,
		sink:     sink,
		objects:  DefaultObjects,
		interval: DefaultInterval,
		now:      time.Now,
		newID:    notify.NewAlertID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	cat := st.Catalog()
	var err error
	if m.gauge, err = requireObject(cat.ByName, m.objects.Gauge, mib.TypeInteger); err != nil {
		return nil, fmt.Errorf("monitor: gauge: %w", err)
	}
	if m.thresh, err = requireObject(cat.ByName, m.objects.Threshold, mib.TypeInteger); err != nil {
		return nil, fmt.Errorf("monitor: threshold: %w", err)
	}
	if m.objects.Address != "" {
		d, err := requireObject(cat.ByName, m.objects.Address, mib.TypeText)
		if err != nil {
			return nil, fmt.Errorf("monitor: address: %w", err)
		}
		m.address = d.OID
	}
	if m.objects.Manager != "" {
		if _, err := requireObject(cat.ByName, m.objects.Manager, mib.TypeText); err != nil {
			return nil, fmt.Errorf("monitor: manager: %w", err)
		}
	}

	m.started = m.now()
	return m, nil
}

func requireObject(lookup func(string) (mib.Descriptor, bool), name string, t mib.ValueType) (mib.Descriptor, error) {
	d, ok := lookup(name)
	if !ok {
		return mib.Descriptor{}, fmt.Errorf("%w: %q", store.ErrUnknownObject, name)
	}
	if d.Type != t {
		return mib.Descriptor{}, fmt.Errorf("%q is %s, want %s", name, d.Type, t)
	}
	return d, nil
}

// Interval returns the tick cadence.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Level returns the edge detector state.
func (m *Monitor) Level() Level {
	return m.edge.Level()
}

// TickResult describes one completed tick.
type TickResult struct {
	Sample    int64 // clamped sample
	Threshold int64
	Over      bool
	Fired     bool  // rising edge; notifications attempted
	Err       error // sampling or store failure, if any

	TrapErr    error
	MessageErr error
}

// Run ticks every interval until ctx is cancelled. The first tick happens
// one interval after Run starts. Returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor starting",
		"interval", m.interval,
		"gauge", m.objects.Gauge,
		"threshold", m.objects.Threshold,
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one sampling step. Cancelling ctx does not abort a tick that
// has started.
func (m *Monitor) Tick(ctx context.Context) TickResult {
	ctx = context.WithoutCancel(ctx)
	var res TickResult

	raw, err := m.sampler.Sample(ctx)
	if err != nil {
		m.logger.Error("sample failed", "error", err)
		res.Err = err
		return res
	}
	res.Sample = m.gauge.Constraint.Clamp(raw)

	if err := m.store.SetPrivileged(ctx, m.gauge.Name, mib.Integer(res.Sample)); err != nil {
		m.logger.Error("gauge update failed", "name", m.gauge.Name, "sample", res.Sample, "error", err)
		res.Err = err
	}

	// The gauge write reloads the persisted rows, so this sees thresholds
	// committed by other processes sharing the database.
	thr, _ := m.store.Value(m.thresh.Name)
	res.Threshold = thr.Measure()
	res.Over = res.Sample > res.Threshold

	m.logger.Debug("tick",
		"sample", res.Sample,
		"raw", raw,
		"threshold", res.Threshold,
		"over", res.Over,
		"level", m.edge.Level(),
	)

	if m.edge.Observe(res.Over) {
		res.Fired = true
		m.notify(ctx, &res)
	}
	return res
}

// notify raises both alerts. Each is attempted regardless of the other's
// outcome; failures (and panics) are logged and recorded on res.
func (m *Monitor) notify(ctx context.Context, res *TickResult) {
	now := m.now()
	a := notify.Alert{
		ID:           m.newID(),
		Measurement:  res.Sample,
		Threshold:    res.Threshold,
		At:           now,
		Uptime:       now.Sub(m.started),
		GaugeOID:     m.gauge.OID,
		ThresholdOID: m.thresh.OID,
		AddressOID:   m.address,
	}
	if m.objects.Address != "" {
		if v, ok := m.store.Value(m.objects.Address); ok {
			a.Address = v.String()
		}
	}
	if m.objects.Manager != "" {
		if v, ok := m.store.Value(m.objects.Manager); ok {
			a.Manager = v.String()
		}
	}

	m.logger.Warn("threshold exceeded",
		"alert_id", a.ID,
		"sample", a.Measurement,
		"threshold", a.Threshold,
	)

	res.TrapErr = guard(func() error { return m.sink.EmitTrap(ctx, a) })
	if res.TrapErr != nil {
		m.logger.Error("trap notification failed", "alert_id", a.ID, "error", res.TrapErr)
	}

	res.MessageErr = guard(func() error { return m.sink.EmitMessage(ctx, a) })
	if res.MessageErr != nil {
		m.logger.Error("message notification failed", "alert_id", a.ID, "error", res.MessageErr)
	}
}

// guard runs fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
