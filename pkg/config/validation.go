package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a Config for structural correctness using struct tags,
// plus a handful of cross-field rules the tags can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Server.BindAddress == "" {
		return fmt.Errorf("server.bind_address cannot be empty")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics is enabled")
	}

	return nil
}
