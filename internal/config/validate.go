package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the config for values that cannot work, before any
// directory is created or store opened. Every problem is reported, and
// each error names the offending TOML key.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		errs = append(errs, errors.New("storage.data_dir: must not be empty"))
	}
	switch c.Storage.Backend {
	case "", "dir", "bolt":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown storage backend %q", c.Storage.Backend))
	}

	if err := validateLogLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := validateLogFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}

	return errors.Join(errs...)
}

// validateLogLevel accepts the levels logging.Init understands. Empty
// means the default and is always valid.
func validateLogLevel(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("unknown level %q", s)
}

func validateLogFormat(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q", s)
}
