// Package config reads the agent's TOML configuration file.
//
// Every key is optional; omitted keys keep the values from Default.
//
//	db_path      = "mibagent.db"
//	catalog_path = "mib.yaml"
//	log_level    = "info"
//	enterprise   = "1.3.6.1.4.1.28308"
//
//	[monitor]
//	sampler   = "cpu"     # cpu | load
//	interval  = "5s"
//	gauge     = "cpuUsage"
//	threshold = "cpuThreshold"
//	address   = "managerEmail"
//	manager   = "manager"
//
//	[communities]
//	public  = "read-only"
//	private = "read-write"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/policy"
)

// Sampler kinds.
const (
	SamplerCPU  = "cpu"
	SamplerLoad = "load"
)

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MonitorConfig configures the threshold monitor.
type MonitorConfig struct {
	Sampler   string   `toml:"sampler"`
	Interval  Duration `toml:"interval"`
	Gauge     string   `toml:"gauge"`
	Threshold string   `toml:"threshold"`
	Address   string   `toml:"address"`
	Manager   string   `toml:"manager"`
}

// AppConfig is the top-level agent configuration.
type AppConfig struct {
	DBPath      string            `toml:"db_path"`
	CatalogPath string            `toml:"catalog_path"`
	LogLevel    string            `toml:"log_level"`
	Enterprise  string            `toml:"enterprise"`
	Monitor     MonitorConfig     `toml:"monitor"`
	Communities map[string]string `toml:"communities"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	return &AppConfig{
		DBPath:      "mibagent.db",
		CatalogPath: "mib.yaml",
		LogLevel:    "info",
		Enterprise:  "1.3.6.1.4.1.28308",
		Monitor: MonitorConfig{
			Sampler:   SamplerCPU,
			Interval:  Duration{5 * time.Second},
			Gauge:     "cpuUsage",
			Threshold: "cpuThreshold",
			Address:   "managerEmail",
			Manager:   "manager",
		},
		Communities: map[string]string{
			"public":  "read-only",
			"private": "read-write",
		},
	}
}

// ReadConfig decodes the TOML file at path over Default. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func ReadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	// A [communities] table replaces the default one entirely.
	cfg.Communities = nil

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("read config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Communities == nil {
		cfg.Communities = Default().Communities
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path if it exists and returns Default otherwise. An empty
// path also yields Default.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return ReadConfig(path)
}

// Validate checks cross-field constraints.
func (c *AppConfig) Validate() error {
	switch c.Monitor.Sampler {
	case SamplerCPU, SamplerLoad:
	default:
		return fmt.Errorf("monitor.sampler: unknown kind %q", c.Monitor.Sampler)
	}
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval)
	}
	if c.Monitor.Gauge == "" || c.Monitor.Threshold == "" {
		return errors.New("monitor.gauge and monitor.threshold are required")
	}
	if _, err := c.EnterpriseOID(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// EnterpriseOID parses Enterprise.
func (c *AppConfig) EnterpriseOID() (mib.OID, error) {
	oid, err := mib.ParseOID(c.Enterprise)
	if err != nil {
		return nil, fmt.Errorf("enterprise: %w", err)
	}
	return oid, nil
}

// Policy builds the access policy from the communities table.
func (c *AppConfig) Policy() (*policy.Policy, error) {
	table := make(map[string]policy.Capability, len(c.Communities))
	for name, s := range c.Communities {
		cp, err := policy.ParseCapability(s)
		if err != nil {
			return nil, fmt.Errorf("communities.%s: %w", name, err)
		}
		table[name] = cp
	}
	return policy.New(table)
}

// Level parses LogLevel.
func (c *AppConfig) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Write encodes c as TOML to path.
func (c *AppConfig) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
