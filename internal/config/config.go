// Package config loads bibfetch configuration from the user config file
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the user-facing configuration. Zero values fall back to the
// defaults below.
type Config struct {
	Align        string   `yaml:"align"`         // middle, left, left-middle, none
	IgnoreFields []string `yaml:"ignore_fields"` // fields dropped from lookup results
	Ordering     []string `yaml:"ordering"`      // fields moved to the front of output
	CacheLimit   int      `yaml:"cache_limit"`   // in-memory store bound, 0 = unbounded
	Timeout      float64  `yaml:"timeout"`       // network timeout in seconds
	Email        string   `yaml:"email"`         // contact email for PubMed requests
	OutputFile   string   `yaml:"output_file"`   // default save target
	ArxivDirect  bool     `yaml:"arxiv_direct"`  // query arXiv directly instead of via DOI
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Align:        "middle",
		IgnoreFields: []string{"url", "abstract"},
		Ordering:     []string{"author", "title", "journal", "booktitle"},
		Timeout:      6.0,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bibfetch", "config.yml"), nil
}

// Load reads the config file at path, layered over the defaults. A
// missing file yields the defaults. BIBFETCH_EMAIL in the environment
// (or a .env file) overrides the configured email.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	_ = godotenv.Load()
	if email := os.Getenv("BIBFETCH_EMAIL"); email != "" {
		cfg.Email = email
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// TimeoutDuration returns the configured network timeout.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 6 * time.Second
	}
	return time.Duration(c.Timeout * float64(time.Second))
}
