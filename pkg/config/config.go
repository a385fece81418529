package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config represents the civd configuration
type Config struct {
	Serial struct {
		Device   string `yaml:"device"`
		BaudRate int    `yaml:"baud_rate"`
	} `yaml:"serial"`

	Radio struct {
		// CI-V bus addressing. Zero means "use the profile default".
		CIVAddress        int `yaml:"civ_address"`
		ControllerAddress int `yaml:"controller_address"`

		// Per-transaction timeout in milliseconds.
		TimeoutMs int `yaml:"timeout_ms"`

		// ITU region selecting the capability table variant (1 or 2).
		Region int `yaml:"region"`
	} `yaml:"radio"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
		MaxEntries   int    `yaml:"max_entries"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"`    // megabytes per file
		MaxBackups int    `yaml:"max_backups"` // rotated files kept
		MaxAge     int    `yaml:"max_age"`     // days
		Compress   bool   `yaml:"compress"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if config.Serial.BaudRate == 0 {
		config.Serial.BaudRate = 19200
	}
	if config.Radio.ControllerAddress == 0 {
		config.Radio.ControllerAddress = 0xE0
	}
	if config.Radio.TimeoutMs == 0 {
		config.Radio.TimeoutMs = 1000
	}
	if config.Radio.Region == 0 {
		config.Radio.Region = 2
	}
	if config.Web.Port == 0 {
		config.Web.Port = 8080
	}
	if config.Web.BindAddress == "" {
		config.Web.BindAddress = "127.0.0.1"
	}
	if config.Storage.DatabasePath == "" {
		config.Storage.DatabasePath = "./civd.db"
	}
	if config.Storage.MaxEntries == 0 {
		config.Storage.MaxEntries = 10000
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = 10
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = 3
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = 28
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("serial device is required")
	}
	if c.Serial.BaudRate < 4800 || c.Serial.BaudRate > 19200 {
		return fmt.Errorf("baud rate %d outside the radio's 4800..19200 range", c.Serial.BaudRate)
	}
	if c.Radio.CIVAddress < 0 || c.Radio.CIVAddress > 0xFF {
		return fmt.Errorf("CI-V address %#x out of range", c.Radio.CIVAddress)
	}
	if c.Radio.ControllerAddress < 0 || c.Radio.ControllerAddress > 0xFF {
		return fmt.Errorf("controller address %#x out of range", c.Radio.ControllerAddress)
	}
	if c.Radio.Region != 1 && c.Radio.Region != 2 {
		return fmt.Errorf("region must be 1 or 2, got %d", c.Radio.Region)
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	return nil
}
