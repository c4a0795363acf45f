package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tracking/internal/errors"
)

const (
	// DefaultPasses is the number of render passes per run.
	DefaultPasses = 100

	// DefaultWidth is the number of rows in the synthetic tree.
	DefaultWidth = 64

	// DefaultDepth is the number of cache layers above each row.
	DefaultDepth = 3

	// DefaultMutations is the number of writes between passes.
	DefaultMutations = 4

	// DefaultFamilySize bounds the per-row family cache.
	DefaultFamilySize = 256

	// DefaultSeed seeds the mutation generator.
	DefaultSeed = 1

	// DefaultLogLevel is the slog level name.
	DefaultLogLevel = "info"

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "tracking"

	// DefaultAddr is the metrics server address.
	DefaultAddr = ":9090"

	// DefaultTracerName is the OpenTelemetry tracer name.
	DefaultTracerName = "trackbench"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"trackbench.yaml", "trackbench.yml", "trackbench.json"}

// Config is the trackbench configuration.
type Config struct {
	// Strict enables the engine's consistency checks.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// Metrics configures the Prometheus observer.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing configures the OpenTelemetry observer.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Bench shapes the synthetic workload.
	Bench BenchConfig `json:"bench,omitempty" yaml:"bench,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled installs the Prometheus observer.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Addr is the listen address for `trackbench serve`.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs the OpenTelemetry observer.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the tracer name.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// BenchConfig shapes the synthetic workload.
type BenchConfig struct {
	Passes     int   `json:"passes,omitempty" yaml:"passes,omitempty"`
	Width      int   `json:"width,omitempty" yaml:"width,omitempty"`
	Depth      int   `json:"depth,omitempty" yaml:"depth,omitempty"`
	Mutations  int   `json:"mutations,omitempty" yaml:"mutations,omitempty"`
	FamilySize int   `json:"familySize,omitempty" yaml:"familySize,omitempty"`
	Seed       int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
			Addr:      DefaultAddr,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Bench: BenchConfig{
			Passes:     DefaultPasses,
			Width:      DefaultWidth,
			Depth:      DefaultDepth,
			Mutations:  DefaultMutations,
			FamilySize: DefaultFamilySize,
			Seed:       DefaultSeed,
		},
	}
}

// Load reads configuration from the first of ConfigFileNames present in dir.
func Load(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		return nil, errors.New(errors.CodeConfigNotFound).
			WithDetail("No " + strings.Join(ConfigFileNames, ", ") + " found in " + dir)
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeInvalidConfig).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeInvalidConfig).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}
	if !isYAML(path) {
		// Add newline at end of file
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultAddr
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Bench.Passes == 0 {
		c.Bench.Passes = DefaultPasses
	}
	if c.Bench.Width == 0 {
		c.Bench.Width = DefaultWidth
	}
	if c.Bench.Depth == 0 {
		c.Bench.Depth = DefaultDepth
	}
	if c.Bench.FamilySize == 0 {
		c.Bench.FamilySize = DefaultFamilySize
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	b := c.Bench
	switch {
	case b.Passes < 1:
		return invalid("bench.passes must be at least 1")
	case b.Width < 1:
		return invalid("bench.width must be at least 1")
	case b.Depth < 1:
		return invalid("bench.depth must be at least 1")
	case b.Mutations < 0:
		return invalid("bench.mutations must not be negative")
	case b.FamilySize < 1:
		return invalid("bench.familySize must be at least 1")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, invalid("logLevel " + c.LogLevel + " is not one of debug, info, warn, error")
	}
	return level, nil
}

// Find returns the path of the first of ConfigFileNames present in dir.
func Find(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func invalid(detail string) *errors.Error {
	return errors.New(errors.CodeInvalidConfig).WithDetail(detail)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}
