package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateBootstrap(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxBytes <= 0 {
		return errors.New("images.max_bytes must be positive")
	}
	if c.Images.TimeoutSeconds <= 0 {
		return errors.New("images.timeout_seconds must be positive")
	}
	if c.Images.MaxFilenameLength < 8 {
		return errors.New("images.max_filename_length must be at least 8")
	}
	return nil
}

func (c *Config) validateBootstrap() error {
	if !c.Bootstrap.Enabled {
		return nil
	}
	if c.Bootstrap.Owner == "" || c.Bootstrap.Repo == "" {
		return errors.New("bootstrap.owner and bootstrap.repo must be set when bootstrap is enabled")
	}
	if c.Bootstrap.UseMirrorFallback && (c.Bootstrap.MirrorOwner == "" || c.Bootstrap.MirrorRepo == "") {
		return errors.New("bootstrap.mirror_owner and bootstrap.mirror_repo must be set when mirror fallback is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
