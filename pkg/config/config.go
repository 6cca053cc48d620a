// Package config provides configuration loading and management for sliceframes.
// It handles loading configuration from YAML files, environment overrides and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frame ordering modes
const (
	OrderLexical = "lexical"
	OrderNumeric = "numeric"
)

// Layer header modes
const (
	HeaderDerived = "derived"
	HeaderFixed   = "fixed"
)

// CodecMJPG is the only container codec supported by the video writer
const CodecMJPG = "MJPG"

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SLICEFRAMES_"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Video assembler parameters
	Video struct {
		// InputDir is the directory holding the frame images
		InputDir string `yaml:"inputDir"`

		// Name is the base name of the video, ".avi" is appended
		Name string `yaml:"name"`

		// Output overrides the full output path; empty means InputDir/Name.avi
		Output string `yaml:"output"`

		// Suffix selects which files of InputDir are frames
		Suffix string `yaml:"suffix"`

		// Order is either "lexical" or "numeric"
		Order string `yaml:"order"`

		// FPS is the frame rate written into the container
		FPS int `yaml:"fps"`

		// Codec is the four character code of the container, only MJPG is supported
		Codec string `yaml:"codec"`

		// Quality is the JPEG quality of each frame (1-100)
		Quality int `yaml:"quality"`
	} `yaml:"video"`

	// Layer serializer parameters
	Layers struct {
		// Volume is the TIFF stack or slice directory to read
		Volume string `yaml:"volume"`

		// OutputDir receives one layer-NNN.txt file per slice
		OutputDir string `yaml:"outputDir"`

		// Header is "derived" (real grid shape) or "fixed" (FixedWidth x FixedHeight)
		Header string `yaml:"header"`

		// FixedWidth and FixedHeight are written when Header is "fixed"
		FixedWidth  int `yaml:"fixedWidth"`
		FixedHeight int `yaml:"fixedHeight"`

		// Flag1 and Flag2 are the two constant header fields
		Flag1 int `yaml:"flag1"`
		Flag2 int `yaml:"flag2"`

		// Manifest is an optional Parquet file with per-layer statistics
		Manifest string `yaml:"manifest"`
	} `yaml:"layers"`

	// Render parameters
	Render struct {
		// Axis is x, y or z
		Axis string `yaml:"axis"`

		// OutputDir receives the rendered PNG frames
		OutputDir string `yaml:"outputDir"`
	} `yaml:"render"`

	// Log parameters
	Log struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Video.Name = "movie"
	cfg.Video.Suffix = ".png"
	cfg.Video.Order = OrderLexical
	cfg.Video.FPS = 30
	cfg.Video.Codec = CodecMJPG
	cfg.Video.Quality = 90

	cfg.Layers.OutputDir = "."
	cfg.Layers.Header = HeaderDerived
	cfg.Layers.FixedWidth = 1600
	cfg.Layers.FixedHeight = 160
	cfg.Layers.Flag1 = 1
	cfg.Layers.Flag2 = 1

	cfg.Render.Axis = "z"
	cfg.Render.OutputDir = "frames"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// ApplyEnv overrides configuration values from SLICEFRAMES_* variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"VIDEO_INPUT_DIR":   &c.Video.InputDir,
		"VIDEO_NAME":        &c.Video.Name,
		"VIDEO_OUTPUT":      &c.Video.Output,
		"VIDEO_SUFFIX":      &c.Video.Suffix,
		"VIDEO_ORDER":       &c.Video.Order,
		"VIDEO_CODEC":       &c.Video.Codec,
		"LAYERS_VOLUME":     &c.Layers.Volume,
		"LAYERS_OUTPUT_DIR": &c.Layers.OutputDir,
		"LAYERS_HEADER":     &c.Layers.Header,
		"LAYERS_MANIFEST":   &c.Layers.Manifest,
		"RENDER_AXIS":       &c.Render.Axis,
		"RENDER_OUTPUT_DIR": &c.Render.OutputDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"VIDEO_FPS":           &c.Video.FPS,
		"VIDEO_QUALITY":       &c.Video.Quality,
		"LAYERS_FIXED_WIDTH":  &c.Layers.FixedWidth,
		"LAYERS_FIXED_HEIGHT": &c.Layers.FixedHeight,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "VERBOSE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sVERBOSE: %w", EnvPrefix, err)
		}
		c.Log.Verbose = b
	}

	return nil
}

// Validate checks the values every pipeline relies on
func (c *Config) Validate() error {
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video fps must be positive, got %d", c.Video.FPS)
	}
	if c.Video.Quality < 1 || c.Video.Quality > 100 {
		return fmt.Errorf("video quality must be within 1-100, got %d", c.Video.Quality)
	}
	if c.Video.Codec != CodecMJPG {
		return fmt.Errorf("unsupported codec %q (only %s)", c.Video.Codec, CodecMJPG)
	}
	switch c.Video.Order {
	case OrderLexical, OrderNumeric:
	default:
		return fmt.Errorf("invalid order %q (must be %s or %s)", c.Video.Order, OrderLexical, OrderNumeric)
	}
	switch c.Layers.Header {
	case HeaderDerived, HeaderFixed:
	default:
		return fmt.Errorf("invalid header mode %q (must be %s or %s)", c.Layers.Header, HeaderDerived, HeaderFixed)
	}
	switch strings.ToLower(c.Render.Axis) {
	case "x", "y", "z":
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", c.Render.Axis)
	}
	return nil
}

// VideoOutput returns the path of the container the assembler writes
func (c *Config) VideoOutput() string {
	if c.Video.Output != "" {
		return c.Video.Output
	}
	return filepath.Join(c.Video.InputDir, c.Video.Name+".avi")
}
