// Package config provides configuration management for strata using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration supports a YAML file (.strata.yml), environment
// variable overrides with the STRATA_ prefix, defaults and validation. It
// covers logging, voxel grid defaults, output locations, parallelism of
// the analysis, the run history store and the file watcher.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxSupersample is the highest supported supersampling level.
const MaxSupersample = 2

type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Voxel   VoxelConfig   `yaml:"voxel" mapstructure:"voxel"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Analyse AnalyseConfig `yaml:"analyse" mapstructure:"analyse"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type VoxelConfig struct {
	XResolution int `yaml:"x_resolution" mapstructure:"x_resolution"`
	YResolution int `yaml:"y_resolution" mapstructure:"y_resolution"`
	ZResolution int `yaml:"z_resolution" mapstructure:"z_resolution"`
	Supersample int `yaml:"supersample" mapstructure:"supersample"`
}

type OutputConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	File string `yaml:"file" mapstructure:"file"`
}

type AnalyseConfig struct {
	Threads int `yaml:"threads" mapstructure:"threads"`
}

type StoreConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Path returns the configured output file inside the output directory.
func (o OutputConfig) Path() string {
	return filepath.Join(o.Dir, o.File)
}

// Defaults are applied for every key left unset.
var defaults = map[string]any{
	"log.level":          "info",
	"log.format":         "text",
	"voxel.x_resolution": 32,
	"voxel.y_resolution": 24,
	"voxel.z_resolution": 30,
	"voxel.supersample":  0,
	"output.dir":         ".",
	"output.file":        "voxels.npz",
	"store.dir":          ".strata",
	"store.enabled":      true,
	"watch.debounce":     300 * time.Millisecond,
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetDefault("analyse.threads", runtime.NumCPU())
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates
// the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle bools set via flags (workaround for viper bool handling)
	if v.IsSet("store.enabled") {
		config.Store.Enabled = v.GetBool("store.enabled")
	}
	config.Log.Level = strings.ToLower(config.Log.Level)
	config.Log.Format = strings.ToLower(config.Log.Format)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := validateVoxelConfig(&config.Voxel); err != nil {
		return fmt.Errorf("voxel config: %w", err)
	}
	if config.Output.File == "" {
		return fmt.Errorf("output config: file is empty")
	}
	if err := validatePath(config.Output.Dir); err != nil {
		return fmt.Errorf("output config: dir: %w", err)
	}
	if config.Analyse.Threads < 1 {
		return fmt.Errorf("analyse config: threads must be at least 1, got %d", config.Analyse.Threads)
	}
	if err := validatePath(config.Store.Dir); err != nil {
		return fmt.Errorf("store config: dir: %w", err)
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: negative debounce %s", config.Watch.Debounce)
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch config.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown level %q", config.Level)
	}
	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", config.Format)
	}
	return nil
}

func validateVoxelConfig(config *VoxelConfig) error {
	if config.XResolution < 1 || config.YResolution < 1 || config.ZResolution < 1 {
		return fmt.Errorf("resolution %dx%dx%d must be positive",
			config.XResolution, config.YResolution, config.ZResolution)
	}
	if config.Supersample < 0 || config.Supersample > MaxSupersample {
		return fmt.Errorf("supersample %d is not in range 0-%d", config.Supersample, MaxSupersample)
	}
	return nil
}

// validatePath validates a relative directory setting
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}
	return nil
}
