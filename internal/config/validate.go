package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRenderDepth indicates a non-positive type rendering depth
	ErrInvalidRenderDepth = errors.New("invalid render depth")

	// ErrEmptyFactory indicates a blank router factory name
	ErrEmptyFactory = errors.New("empty router factory name")

	// ErrEmptyStorePath indicates a missing store path
	ErrEmptyStorePath = errors.New("empty store path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateScan(&cfg.Scan); err != nil {
		errs = append(errs, err)
	}

	if err := validateStore(&cfg.Store); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateScan(cfg *ScanConfig) error {
	var errs []error

	if cfg.RenderDepth <= 0 {
		errs = append(errs, fmt.Errorf("%w: render_depth must be positive, got %d", ErrInvalidRenderDepth, cfg.RenderDepth))
	}

	for _, factory := range cfg.RouterFactories {
		if strings.TrimSpace(factory) == "" {
			errs = append(errs, fmt.Errorf("%w: router_factories entries must be non-blank", ErrEmptyFactory))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateStore(cfg *StoreConfig) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("%w: store path is required", ErrEmptyStorePath)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
