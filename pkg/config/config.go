// Package config provides configuration loading and management for ciftidilate.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/pipeline"
	"ciftidilate/pkg/reduce"
	"ciftidilate/pkg/volume"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Dilation parameters
	Dilation struct {
		// Direction is ROW or COLUMN
		Direction string `yaml:"direction"`

		// SurfaceDistance is the geodesic search distance on surfaces in mm
		SurfaceDistance float64 `yaml:"surfaceDistance"`

		// VolumeDistance is the search distance in volumes in mm
		VolumeDistance float64 `yaml:"volumeDistance"`

		Nearest      bool `yaml:"nearest"`
		MergedVolume bool `yaml:"mergedVolume"`
	} `yaml:"dilation"`

	Volume struct {
		// Connectivity is 6, 18 or 26
		Connectivity int `yaml:"connectivity"`
	} `yaml:"volume"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many structures are dilated at once
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	Reduce struct {
		Operation       string  `yaml:"operation"`
		ExcludeOutliers bool    `yaml:"excludeOutliers"`
		SigmaBelow      float64 `yaml:"sigmaBelow"`
		SigmaAbove      float64 `yaml:"sigmaAbove"`
	} `yaml:"reduce"`

	// Output parameters
	Output struct {
		// LogLevel is any logrus level name
		LogLevel string `yaml:"logLevel"`

		// QCDir receives slice images of the dilated volume when set
		QCDir string `yaml:"qcDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Dilation.Direction = cifti.AlongColumn.String()
	cfg.Dilation.SurfaceDistance = 10
	cfg.Dilation.VolumeDistance = 10

	cfg.Volume.Connectivity = int(volume.Conn26)

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Reduce.Operation = reduce.Mean.String()
	cfg.Reduce.SigmaBelow = 3
	cfg.Reduce.SigmaAbove = 3

	cfg.Output.LogLevel = log.InfoLevel.String()

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

// Validate checks every field that Params and ReduceOptions would reject later.
func (c *Config) Validate() error {
	if _, err := cifti.ParseDirection(c.Dilation.Direction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Dilation.SurfaceDistance < 0 || c.Dilation.VolumeDistance < 0 {
		return fmt.Errorf("%w: distances must not be negative", ErrInvalidConfig)
	}
	if _, err := volume.ParseConnectivity(c.Volume.Connectivity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := reduce.Parse(c.Reduce.Operation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Reduce.SigmaBelow < 0 || c.Reduce.SigmaAbove < 0 {
		return fmt.Errorf("%w: outlier bounds must not be negative", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.Output.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Params converts the dilation settings. Surfaces and the ROI are left for the
// caller to load.
func (c *Config) Params() (*pipeline.Params, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	dir, _ := cifti.ParseDirection(c.Dilation.Direction)
	conn, _ := volume.ParseConnectivity(c.Volume.Connectivity)
	return &pipeline.Params{
		Direction:       dir,
		SurfaceDistance: c.Dilation.SurfaceDistance,
		VolumeDistance:  c.Dilation.VolumeDistance,
		Nearest:         c.Dilation.Nearest,
		MergedVolume:    c.Dilation.MergedVolume,
		Connectivity:    conn,
		NumCores:        c.Processing.NumCores,
	}, nil
}

// ReduceOptions converts the reduction settings.
func (c *Config) ReduceOptions() (reduce.Operation, reduce.Options, error) {
	if err := c.Validate(); err != nil {
		return 0, reduce.Options{}, err
	}
	op, _ := reduce.Parse(c.Reduce.Operation)
	return op, reduce.Options{
		ExcludeOutliers: c.Reduce.ExcludeOutliers,
		SigmaBelow:      c.Reduce.SigmaBelow,
		SigmaAbove:      c.Reduce.SigmaAbove,
	}, nil
}
