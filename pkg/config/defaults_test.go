package config

import (
	"testing"
	"time"

	"github.com/marmos91/brpc/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.BindAddress != "0.0.0.0" {
		t.Errorf("Expected default bind address '0.0.0.0', got %q", cfg.Server.BindAddress)
	}
	if cfg.Server.Port != 8003 {
		t.Errorf("Expected default server port 8003, got %d", cfg.Server.Port)
	}
	if cfg.Server.Reactors != 4 {
		t.Errorf("Expected default reactors 4, got %d", cfg.Server.Reactors)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.Server.IdleTimeout)
	}
	if cfg.Server.MaxFrameSize != 64*bytesize.MiB {
		t.Errorf("Expected default max frame size 64MiB, got %v", cfg.Server.MaxFrameSize)
	}
	if cfg.Server.MaxInFlightPerConn != 1024 {
		t.Errorf("Expected default max in-flight per connection 1024, got %d", cfg.Server.MaxInFlightPerConn)
	}
}

func TestApplyDefaults_Channel(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Channel.DialTimeout != 5*time.Second {
		t.Errorf("Expected default dial timeout 5s, got %v", cfg.Channel.DialTimeout)
	}
	if cfg.Channel.DefaultTimeout != 10*time.Second {
		t.Errorf("Expected default call timeout 10s, got %v", cfg.Channel.DefaultTimeout)
	}
	if cfg.Channel.MaxInFlight != 1024 {
		t.Errorf("Expected default channel max in-flight 1024, got %d", cfg.Channel.MaxInFlight)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.ServiceName != "brpcd" {
		t.Errorf("Expected default telemetry service name 'brpcd', got %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default telemetry endpoint 'localhost:4317', got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Address != ":9090" {
		t.Errorf("Expected default metrics address ':9090', got %q", cfg.Metrics.Address)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/brpcd.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Server: ServerConfig{
			Port:     9100,
			Reactors: 8,
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/brpcd.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Expected explicit server port to be preserved, got %d", cfg.Server.Port)
	}
	if cfg.Server.Reactors != 8 {
		t.Errorf("Expected explicit reactor count to be preserved, got %d", cfg.Server.Reactors)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.Server.Port == 0 {
		t.Error("Default config missing server port")
	}
	if cfg.Server.BindAddress == "" {
		t.Error("Default config missing server bind address")
	}
	if cfg.Channel.DefaultTimeout == 0 {
		t.Error("Default config missing channel default timeout")
	}
}
