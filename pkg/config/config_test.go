package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "civd-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	t.Run("Valid Config", func(t *testing.T) {
		configContent := `
serial:
  device: "/dev/ttyUSB0"
  baud_rate: 9600

radio:
  civ_address: 0x8C
  timeout_ms: 500
  region: 1

web:
  port: 9090
  bind_address: "0.0.0.0"

storage:
  database_path: "/tmp/civd.db"
  max_entries: 5000

logging:
  level: "debug"
  file: "/var/log/civd.log"
  console: true
`
		configPath := filepath.Join(tempDir, "valid.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Serial.Device != "/dev/ttyUSB0" {
			t.Errorf("Expected device /dev/ttyUSB0, got %s", config.Serial.Device)
		}
		if config.Serial.BaudRate != 9600 {
			t.Errorf("Expected baud rate 9600, got %d", config.Serial.BaudRate)
		}
		if config.Radio.CIVAddress != 0x8C {
			t.Errorf("Expected CI-V address 0x8C, got %#x", config.Radio.CIVAddress)
		}
		if config.Radio.TimeoutMs != 500 {
			t.Errorf("Expected timeout 500ms, got %d", config.Radio.TimeoutMs)
		}
		if config.Radio.Region != 1 {
			t.Errorf("Expected region 1, got %d", config.Radio.Region)
		}
		if config.Web.Port != 9090 {
			t.Errorf("Expected web port 9090, got %d", config.Web.Port)
		}
		if config.Storage.MaxEntries != 5000 {
			t.Errorf("Expected max entries 5000, got %d", config.Storage.MaxEntries)
		}
		if config.Logging.Level != "debug" {
			t.Errorf("Expected log level debug, got %s", config.Logging.Level)
		}
	})

	t.Run("Defaults Applied", func(t *testing.T) {
		configContent := `
serial:
  device: "/dev/ttyUSB1"
`
		configPath := filepath.Join(tempDir, "minimal.yaml")
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if config.Serial.BaudRate != 19200 {
			t.Errorf("Expected default baud rate 19200, got %d", config.Serial.BaudRate)
		}
		if config.Radio.ControllerAddress != 0xE0 {
			t.Errorf("Expected default controller address 0xE0, got %#x", config.Radio.ControllerAddress)
		}
		if config.Radio.TimeoutMs != 1000 {
			t.Errorf("Expected default timeout 1000ms, got %d", config.Radio.TimeoutMs)
		}
		if config.Radio.Region != 2 {
			t.Errorf("Expected default region 2, got %d", config.Radio.Region)
		}
		if config.Web.Port != 8080 {
			t.Errorf("Expected default port 8080, got %d", config.Web.Port)
		}
		if config.Web.BindAddress != "127.0.0.1" {
			t.Errorf("Expected default bind address 127.0.0.1, got %s", config.Web.BindAddress)
		}
		if config.Storage.MaxEntries != 10000 {
			t.Errorf("Expected default max entries 10000, got %d", config.Storage.MaxEntries)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected default log level info, got %s", config.Logging.Level)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(tempDir, "nope.yaml")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "broken.yaml")
		if err := os.WriteFile(configPath, []byte("serial: [broken"), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Serial.Device = "/dev/ttyUSB0"
		c.Serial.BaudRate = 19200
		c.Radio.ControllerAddress = 0xE0
		c.Radio.Region = 2
		c.Web.Port = 8080
		return c
	}

	t.Run("Valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("Missing Device", func(t *testing.T) {
		c := valid()
		c.Serial.Device = ""
		if err := c.Validate(); err == nil {
			t.Error("Expected error for missing device")
		}
	})

	t.Run("Baud Rate Out Of Range", func(t *testing.T) {
		for _, baud := range []int{1200, 38400} {
			c := valid()
			c.Serial.BaudRate = baud
			if err := c.Validate(); err == nil {
				t.Errorf("Expected error for baud rate %d", baud)
			}
		}
	})

	t.Run("Bad Region", func(t *testing.T) {
		c := valid()
		c.Radio.Region = 3
		if err := c.Validate(); err == nil {
			t.Error("Expected error for region 3")
		}
	})

	t.Run("Bad Port", func(t *testing.T) {
		c := valid()
		c.Web.Port = 70000
		if err := c.Validate(); err == nil {
			t.Error("Expected error for port 70000")
		}
	})
}
