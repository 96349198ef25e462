// Package config provides configuration loading and validation for Lookout.
// It handles reading configuration from files, providing defaults, and ensuring
// all required settings are properly set.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aadhyaan/lookout/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultSocketPath is the default path for the Unix socket.
	DefaultSocketPath = "/var/run/lookoutd.socket"
	// DefaultConfigPath is the default path for the configuration file.
	DefaultConfigPath = ".lookout/config.yaml"
	// DefaultDNSTimeout is the default per-attempt timeout for DNS queries.
	DefaultDNSTimeout = 5 * time.Second
	// DefaultDNSRetries is the default number of additional attempts per query.
	DefaultDNSRetries = 2
)

// Config holds the application configuration.
type Config struct {
	Socket SocketConfig `yaml:"socket"`
	DNS    DNSConfig    `yaml:"dns"`
}

// SocketConfig holds socket-related configuration.
type SocketConfig struct {
	Path string `yaml:"path"`
}

// DNSConfig holds DNS query engine configuration.
type DNSConfig struct {
	// Resolvers are host:port addresses the query engine exchanges with.
	// Empty means use the system resolver configuration.
	Resolvers []string `yaml:"resolvers"`
	// Timeout bounds a single exchange attempt.
	Timeout time.Duration `yaml:"timeout"`
	// Retries is the number of additional attempts per failed exchange.
	Retries uint `yaml:"retries"`
	// DefaultPort is substituted when a resolution target carries no port.
	// Service names ("http", "https") and decimal ports are both accepted.
	DefaultPort string `yaml:"default_port"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadFS
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// New creates a new configuration provider using the default configuration path.
// It uses the OS filesystem and the user's home directory to locate the configuration file.
// If the home directory cannot be determined, it falls back to the current directory.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		// Log the error but continue with empty path, which will resolve to current directory
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a new provider with a specific config path.
// It allows specifying both the filesystem implementation and the path to use.
func NewWithPath(fs filesys.ReadFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns a default configuration with preset values.
// This is used when no configuration file exists.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: DefaultSocketPath,
		},
		DNS: DNSConfig{
			Timeout: DefaultDNSTimeout,
			Retries: DefaultDNSRetries,
		},
	}
}

// Load loads the configuration from the specified path.
func (p *FSProvider) Load() (*Config, error) {
	_ = p.ensureConfigDir()

	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Socket.Path) == "" {
		return errors.New("socket path cannot be empty")
	}
	if c.DNS.Timeout < time.Second {
		return errors.New("DNS timeout must be at least 1 second")
	}
	for _, r := range c.DNS.Resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			return fmt.Errorf("resolver %q must be a host:port address", r)
		}
	}
	return nil
}

func (p *FSProvider) ensureConfigDir() error {
	dir := filepath.Dir(p.path)
	if _, err := p.fs.Stat(dir); os.IsNotExist(err) {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return &cfg, nil
}
