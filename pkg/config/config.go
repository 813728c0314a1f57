// Package config loads the console configuration from its YAML file,
// environment variables, and built-in defaults.
// Precedence: flags (applied by the CLI) > env > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultConsolePort = 4380
	DefaultConsoleHost = "127.0.0.1"

	// DefaultEngineCommand runs node-based engines; the launch script
	// carries the actual server.
	DefaultEngineCommand = "node"

	// ConfigFileName is the console config file under the data directory.
	ConfigFileName = "config.yaml"
)

// Duration wraps time.Duration so YAML values like "5s" parse naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// EngineConfig describes the external engine launch.
type EngineConfig struct {
	Command      string   `yaml:"command"`
	Script       string   `yaml:"script"`
	WorkDir      string   `yaml:"workDir"`
	InstallDeps  []string `yaml:"installDeps"`
	GraceTimeout Duration `yaml:"graceTimeout"`
}

// ProbeConfig tunes the post-launch readiness poll.
type ProbeConfig struct {
	Interval Duration `yaml:"interval"`
	Window   Duration `yaml:"window"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full console configuration.
type Config struct {
	Port    int          `yaml:"port"`
	Host    string       `yaml:"host"`
	DataDir string       `yaml:"dataDir"`
	Engine  EngineConfig `yaml:"engine"`
	Probe   ProbeConfig  `yaml:"probe"`
	Log     LogConfig    `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:    DefaultConsolePort,
		Host:    DefaultConsoleHost,
		DataDir: DefaultDataDir(),
		Engine: EngineConfig{
			Command:      DefaultEngineCommand,
			GraceTimeout: Duration(5 * time.Second),
		},
		Probe: ProbeConfig{
			Interval: Duration(500 * time.Millisecond),
			Window:   Duration(10 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDataDir returns ~/.mockdeck, falling back to the working
// directory when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mockdeck"
	}
	return filepath.Join(home, ".mockdeck")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), ConfigFileName)
}

// LoadFile reads and decodes a YAML config file into cfg, overriding only
// the fields the file sets.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config file
// (the default path is optional; an explicit path must exist), then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := LoadFile(path, cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// Environment variable names.
const (
	EnvPort          = "MOCKDECK_PORT"
	EnvHost          = "MOCKDECK_HOST"
	EnvDataDir       = "MOCKDECK_DATA_DIR"
	EnvEngineCommand = "MOCKDECK_ENGINE_CMD"
	EnvEngineScript  = "MOCKDECK_ENGINE_SCRIPT"
	EnvEngineWorkDir = "MOCKDECK_ENGINE_WORKDIR"
	EnvLogLevel      = "MOCKDECK_LOG_LEVEL"
	EnvLogFormat     = "MOCKDECK_LOG_FORMAT"
)

// applyEnv overrides cfg with values present in the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvEngineCommand); v != "" {
		cfg.Engine.Command = v
	}
	if v := os.Getenv(EnvEngineScript); v != "" {
		cfg.Engine.Script = v
	}
	if v := os.Getenv(EnvEngineWorkDir); v != "" {
		cfg.Engine.WorkDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
}
