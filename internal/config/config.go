package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Capture   CaptureConfig   `yaml:"capture"`
	Crop      CropConfig      `yaml:"crop"`
	Selection SelectionConfig `yaml:"selection"`
	Preview   PreviewConfig   `yaml:"preview"`
}

// CaptureConfig holds configuration for device and file acquisition
type CaptureConfig struct {
	StartTimeoutSeconds int    `yaml:"start_timeout_seconds"`
	MaxFileSizeMB       int64  `yaml:"max_file_size_mb"`
	PreferredWidth      int    `yaml:"preferred_width"`
	PreferredHeight     int    `yaml:"preferred_height"`
	Facing              string `yaml:"facing"`
}

// StartTimeout returns the acquisition timeout as a duration.
func (c CaptureConfig) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutSeconds) * time.Second
}

// MaxFileSize returns the upload limit in bytes.
func (c CaptureConfig) MaxFileSize() int64 {
	return c.MaxFileSizeMB << 20
}

// CropConfig holds configuration for crop extraction
type CropConfig struct {
	Quality int    `yaml:"quality"`
	Format  string `yaml:"format"`
}

// SelectionConfig holds configuration for the drag selector
type SelectionConfig struct {
	MinSize float64 `yaml:"min_size"`
}

// PreviewConfig holds configuration for preview rendering
type PreviewConfig struct {
	MaxDimension int `yaml:"max_dimension"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			StartTimeoutSeconds: 10,
			MaxFileSizeMB:       10,
			PreferredWidth:      1280,
			PreferredHeight:     720,
			Facing:              "environment",
		},
		Crop: CropConfig{
			Quality: 90,
			Format:  "jpeg",
		},
		Selection: SelectionConfig{
			MinSize: 10,
		},
		Preview: PreviewConfig{
			MaxDimension: 1024,
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.StartTimeoutSeconds < 1 {
		return fmt.Errorf("capture.start_timeout_seconds must be positive")
	}

	if c.Capture.MaxFileSizeMB < 1 {
		return fmt.Errorf("capture.max_file_size_mb must be positive")
	}

	if c.Capture.PreferredWidth < 0 || c.Capture.PreferredHeight < 0 {
		return fmt.Errorf("capture.preferred dimensions must not be negative")
	}

	if c.Crop.Quality < 1 || c.Crop.Quality > 100 {
		return fmt.Errorf("crop.quality must be between 1 and 100")
	}

	switch c.Crop.Format {
	case "jpeg", "jpg", "png", "webp":
	default:
		return fmt.Errorf("crop.format must be one of jpeg, png, webp")
	}

	if c.Selection.MinSize < 1 {
		return fmt.Errorf("selection.min_size must be positive")
	}

	if c.Preview.MaxDimension < 0 {
		return fmt.Errorf("preview.max_dimension must not be negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-roi", "config.yaml")
}
