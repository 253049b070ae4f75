package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Ingest.RatePerSec <= 0 {
		errs = append(errs, "ingest.rate_per_sec must be > 0")
	}
	if cfg.Ingest.Burst <= 0 {
		errs = append(errs, "ingest.burst must be > 0")
	}
	if p := strings.TrimSpace(cfg.Reconcile.PlaceholderPattern); p != "" {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Sprintf("reconcile.placeholder_pattern: %v", err))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
