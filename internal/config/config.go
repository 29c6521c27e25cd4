// Package config loads and validates a node's static configuration: its
// identity, bind address, owned topics, queue sizing, worker count,
// retention period, and the peer list used to build the forwarding table.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath is used when MSSNGR_CONFIG is unset.
const DefaultConfigPath = "config.toml"

// ConfigPathEnv names the environment variable that selects the config file.
const ConfigPathEnv = "MSSNGR_CONFIG"

// LogFilterEnv names the environment variable that selects the log level.
const LogFilterEnv = "MSSNGR_LOG"

// Peer describes a federation peer: a node this instance can redirect
// clients to for topics it doesn't own itself.
type Peer struct {
	ID     string   `toml:"id"`
	Addr   string   `toml:"addr"`
	Topics []string `toml:"topics"`
}

// Config is a node's full static configuration, decoded from TOML.
type Config struct {
	ID     string   `toml:"id"`
	Host   string   `toml:"host"`
	Port   int      `toml:"port"`
	Topics []string `toml:"topics"`

	MaxQueue int `toml:"max_queue"`
	Workers  int `toml:"workers"`

	Persistence Duration `toml:"persistence"`

	Forward []Peer `toml:"forward"`
}

// Load reads the config file named by MSSNGR_CONFIG (or DefaultConfigPath
// if unset), decodes it, applies defaults, and validates it. It returns a
// wrapped error on any I/O, decode, or validation failure, never a partial
// Config.
func Load() (*Config, error) {
	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile loads and validates a Config from an explicit path.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MaxQueue == 0 {
		c.MaxQueue = 256
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// Validate checks the decoded config for the invariants the rest of the
// node depends on: a non-empty id, a disjoint-ish topic list (duplicates
// are a hard error locally, unlike forwarding collisions which are only a
// config smell — see ForwardTable), and strictly positive sizing values.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MaxQueue <= 0 {
		return fmt.Errorf("max_queue must be positive, got %d", c.MaxQueue)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Persistence.Duration() <= 0 {
		return fmt.Errorf("persistence must be a positive duration, got %s", c.Persistence)
	}

	seen := make(map[string]struct{}, len(c.Topics))
	for _, t := range c.Topics {
		if t == "" {
			return fmt.Errorf("topics: empty topic name")
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("topics: duplicate topic name %q", t)
		}
		seen[t] = struct{}{}
	}

	for _, p := range c.Forward {
		if p.ID == "" || p.Addr == "" {
			return fmt.Errorf("forward: peer entries require id and addr")
		}
	}

	return nil
}

// Addr returns the host:port the HTTP server should bind to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
