// Package config provides configuration loading and management for hyperblob.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"hyperblob/pkg/interpolation"
	"hyperblob/pkg/labeling"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many (time, channel) layers are labeled concurrently
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Input parameters
	Input struct {
		// ElementSizeUm is the physical size of one input sample per spatial axis,
		// in (z,) y, x order
		ElementSizeUm []float64 `yaml:"elementSizeUm"`
	} `yaml:"input"`

	// Resampling parameters
	Resampling struct {
		// TargetElementSizeUm is the resolution the model expects; empty disables resampling
		TargetElementSizeUm []float64 `yaml:"targetElementSizeUm,omitempty"`

		// Mode is the interpolation kernel used for intensity data
		Mode interpolation.Mode `yaml:"mode"`
	} `yaml:"resampling"`

	// Labeling parameters
	Labeling struct {
		// Connectivity selects 4/6- or 8/26-connected components
		Connectivity labeling.Connectivity `yaml:"connectivity"`

		// Threshold is the intensity above which a voxel counts as foreground
		Threshold float64 `yaml:"threshold"`
	} `yaml:"labeling"`

	// Output parameters
	Output struct {
		// SaveLabelSlices writes every labeled z-plane as an image
		SaveLabelSlices bool `yaml:"saveLabelSlices"`

		// LabelSlicesDir is where label slices are written
		LabelSlicesDir string `yaml:"labelSlicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Input.ElementSizeUm = []float64{1.0, 1.0, 1.0}

	cfg.Resampling.TargetElementSizeUm = nil
	cfg.Resampling.Mode = interpolation.Linear

	cfg.Labeling.Connectivity = labeling.Simple
	cfg.Labeling.Threshold = 0.5

	cfg.Output.SaveLabelSlices = false
	cfg.Output.LabelSlicesDir = "label_slices"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if n := len(c.Input.ElementSizeUm); n < 2 || n > 3 {
		return fmt.Errorf("input.elementSizeUm must have 2 or 3 entries, got %d", n)
	}
	for i, v := range c.Input.ElementSizeUm {
		if !(v > 0) {
			return fmt.Errorf("input.elementSizeUm[%d] must be positive, got %g", i, v)
		}
	}
	if t := c.Resampling.TargetElementSizeUm; len(t) > 0 {
		if len(t) != len(c.Input.ElementSizeUm) {
			return fmt.Errorf("resampling.targetElementSizeUm has %d entries, input.elementSizeUm has %d",
				len(t), len(c.Input.ElementSizeUm))
		}
		for i, v := range t {
			if !(v > 0) {
				return fmt.Errorf("resampling.targetElementSizeUm[%d] must be positive, got %g", i, v)
			}
		}
	}
	if c.Output.SaveLabelSlices && c.Output.LabelSlicesDir == "" {
		return fmt.Errorf("output.labelSlicesDir is required when saveLabelSlices is set")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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
