// ABOUTME: CLI configuration from YAML file and flags
// ABOUTME: Flags set on the command line override values from the file
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Resonate-Protocol/lanprobe/internal/discovery"
	"github.com/Resonate-Protocol/lanprobe/pkg/probe"
	"gopkg.in/yaml.v3"
)

// Config holds lanprobe settings
type Config struct {
	Backend string        `yaml:"backend"`
	Name    string        `yaml:"name"`
	LogFile string        `yaml:"log_file"`
	NoTUI   bool          `yaml:"no_tui"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Backend: discovery.BackendMDNS,
		Name:    probe.DefaultDescriptor.Name,
		LogFile: "lanprobe.log",
		Timeout: 60 * time.Second,
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that settings are usable
func (c Config) Validate() error {
	switch c.Backend {
	case discovery.BackendMDNS, discovery.BackendZeroconf:
	default:
		return fmt.Errorf("%w: %q", discovery.ErrUnknownBackend, c.Backend)
	}
	if c.Name == "" {
		return errors.New("service name must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Descriptor returns the service to advertise
func (c Config) Descriptor() probe.ServiceDescriptor {
	d := probe.DefaultDescriptor
	d.Name = c.Name
	return d
}

// Parse registers lanprobe flags on fs, parses args and merges the optional
// -config file underneath any flags that were set explicitly.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	path := fs.String("config", "", "YAML config file")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "mDNS backend: mdns or zeroconf")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Advertised service instance name")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Give up waiting for a result after this long")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *path != "" {
		merged, err := Load(*path)
		if err != nil {
			return cfg, err
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "backend":
				merged.Backend = cfg.Backend
			case "name":
				merged.Name = cfg.Name
			case "log-file":
				merged.LogFile = cfg.LogFile
			case "no-tui":
				merged.NoTUI = cfg.NoTUI
			case "timeout":
				merged.Timeout = cfg.Timeout
			}
		})
		cfg = merged
	}

	return cfg, cfg.Validate()
}
