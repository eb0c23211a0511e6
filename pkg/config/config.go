package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sampler sources.
const (
	SourceSerial    = "serial"
	SourceSimulator = "sim"
)

// Config represents the host application configuration.
//
// The same YAML file also carries the firmware style "temperature_control"
// tree which is read through Store, not through this struct.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Log       LogConfig       `yaml:"log"`
	Capture   CaptureConfig   `yaml:"capture"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SamplerConfig selects where raw ADC codes come from.
type SamplerConfig struct {
	Source         string `yaml:"source"`          // "serial" or "sim"
	ResolutionBits int    `yaml:"resolution_bits"` // Used by the simulator and until the MCU reports its ceiling
}

// SimulatorConfig contains simulated sensor parameters.
type SimulatorConfig struct {
	Ambient    float64       `yaml:"ambient"`     // Ambient temperature (°C)
	Offset     float64       `yaml:"offset"`      // Amplifier reference offset the simulator adds back (°C)
	TimeConst  time.Duration `yaml:"time_const"`  // First order thermal time constant
	NoiseLevel float64       `yaml:"noise_level"` // Peak noise (°C)
}

// KernelConfig contains cooperative loop parameters.
type KernelConfig struct {
	IdleInterval time.Duration `yaml:"idle_interval"` // Idle phase cadence
	QueueSize    int           `yaml:"queue_size"`    // Pending command lines
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CaptureConfig controls recording of emitted lines.
type CaptureConfig struct {
	Path string `yaml:"path"` // Empty disables capture
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Sampler: SamplerConfig{
			Source:         SourceSerial,
			ResolutionBits: 12,
		},
		Simulator: SimulatorConfig{
			Ambient:    22,
			Offset:     0,
			TimeConst:  20 * time.Second,
			NoiseLevel: 0.2,
		},
		Kernel: KernelConfig{
			IdleInterval: 10 * time.Millisecond,
			QueueSize:    32,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sampler.Source == "" {
		c.Sampler.Source = def.Sampler.Source
	}
	if c.Sampler.ResolutionBits <= 0 || c.Sampler.ResolutionBits > 32 {
		c.Sampler.ResolutionBits = def.Sampler.ResolutionBits
	}

	if c.Simulator.TimeConst == 0 {
		c.Simulator.TimeConst = def.Simulator.TimeConst
	}

	if c.Kernel.IdleInterval == 0 {
		c.Kernel.IdleInterval = def.Kernel.IdleInterval
	}
	if c.Kernel.QueueSize <= 0 {
		c.Kernel.QueueSize = def.Kernel.QueueSize
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
