package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/celleval/pkg/dataset"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "celleval.yaml"

	DefaultOutput   = "results.csv"
	DefaultAttempts = 3

	dirMode  = 0700
	fileMode = 0600
)

var (
	ErrMissingInput     = errors.New("true and generated collections are required")
	ErrInvalidAttempts  = errors.New("attempts must be at least 1")
	ErrMissingOutput    = errors.New("output path required")
	errConfigRequired   = errors.New("config required")
	errConfigPathNeeded = errors.New("config path required")
)

// Config is the evaluation run configuration.
type Config struct {
	True        string           `json:"true" yaml:"true"`
	Generated   string           `json:"generated" yaml:"generated"`
	Output      string           `json:"output" yaml:"output"`
	Attempts    int              `json:"attempts" yaml:"attempts"`
	Arrow       string           `json:"arrow,omitempty" yaml:"arrow,omitempty"`
	MetricsFile string           `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
	DB          string           `json:"db,omitempty" yaml:"db,omitempty"`
	Label       string           `json:"label,omitempty" yaml:"label,omitempty"`
	S3          dataset.S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output:   DefaultOutput,
		Attempts: DefaultAttempts,
	}
}

// Validate checks the settings needed to run an evaluation.
func (c *Config) Validate() error {
	if c == nil {
		return errConfigRequired
	}
	if c.True == "" || c.Generated == "" {
		return ErrMissingInput
	}
	if c.Attempts < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidAttempts, c.Attempts)
	}
	if c.Output == "" {
		return ErrMissingOutput
	}
	return nil
}

// Load reads the config file at path on top of the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errConfigPathNeeded
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	slog.Debug("config loaded", "path", path)
	return c, nil
}

// Save writes c to path, creating the parent directory if needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errConfigPathNeeded
	}
	if c == nil {
		return errConfigRequired
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
