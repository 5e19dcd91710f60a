// Package agent is the inbound operation surface of the management-object
// backend.
//
// An Agent owns the catalog, the scalar store, the access policy and the
// notification sink. A command dispatcher (the CLI, or a protocol
// front-end) holds one Agent and calls Get, GetNext, Set and Walk on it.
// There is no package-level state: everything an operation needs hangs off
// the Agent it is called on.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/config"
	"github.com/roach88/mibagent/internal/monitor"
	"github.com/roach88/mibagent/internal/notify"
	"github.com/roach88/mibagent/internal/policy"
	"github.com/roach88/mibagent/internal/store"
)

// Agent is the explicit context every inbound operation runs against.
//
// Thread-safety: Get, GetNext, Walk and Set are safe for concurrent use;
// the store serializes writes.
type Agent struct {
	cat    *catalog.Catalog
	store  *store.Store
	policy *policy.Policy
	sink   notify.Sink
	logger *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithSink sets the notification sink handed to monitors built by the
// agent. Defaults to a LogSink on the agent's logger.
func WithSink(s notify.Sink) Option {
	return func(a *Agent) {
		a.sink = s
	}
}

// New builds an agent over an open store. A nil policy means
// policy.Default().
func New(st *store.Store, pol *policy.Policy, opts ...Option) *Agent {
	if pol == nil {
		pol = policy.Default()
	}
	a := &Agent{
		cat:    st.Catalog(),
		store:  st,
		policy: pol,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sink == nil {
		a.sink = notify.NewLogSink(a.logger, notify.NotificationOID(catalog.EnterpriseOID))
	}
	return a
}

// Open loads the catalog and state named by cfg and returns a ready agent.
// Missing catalog and state files are created with defaults. The caller
// must Close the agent.
func Open(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*Agent, error) {
	probe := &Agent{logger: slog.Default()}
	for _, opt := range opts {
		opt(probe)
	}
	logger := probe.logger

	cat, created, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open agent: %w", err)
	}
	if created {
		logger.Info("wrote default catalog", "path", cfg.CatalogPath)
	}

	pol, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("open agent: %w", err)
	}
	enterprise, err := cfg.EnterpriseOID()
	if err != nil {
		return nil, fmt.Errorf("open agent: %w", err)
	}

	st, err := store.Open(ctx, cfg.DBPath, cat, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open agent: %w", err)
	}

	opts = append([]Option{WithSink(notify.NewLogSink(logger, notify.NotificationOID(enterprise)))}, opts...)
	return New(st, pol, opts...), nil
}

// Close releases the store.
func (a *Agent) Close() error {
	return a.store.Close()
}

// Catalog returns the agent's catalog.
func (a *Agent) Catalog() *catalog.Catalog {
	return a.cat
}

// Store returns the agent's store.
func (a *Agent) Store() *store.Store {
	return a.store
}

// Policy returns the agent's access policy.
func (a *Agent) Policy() *policy.Policy {
	return a.policy
}

// Sink returns the agent's notification sink.
func (a *Agent) Sink() notify.Sink {
	return a.sink
}

// NewMonitor builds a threshold monitor over this agent's store and sink.
func (a *Agent) NewMonitor(sampler monitor.Sampler, opts ...monitor.Option) (*monitor.Monitor, error) {
	if sampler == nil {
		return nil, errors.New("agent: nil sampler")
	}
	opts = append([]monitor.Option{monitor.WithLogger(a.logger)}, opts...)
	return monitor.New(a.store, sampler, a.sink, opts...)
}
