package config

import (
	"os"
	"strconv"
)

// OverlayEnv applies the environment variables the deployment platform sets.
// Env wins over the file, matching how the hosted listener was configured.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := os.Getenv("LEADSYNC_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("LEADSYNC_DB"); v != "" {
		cfg.App.DBPath = v
	}
	if v := os.Getenv("TARGET_DATABASE_URL"); v != "" {
		cfg.Target.DSN = v
	}
	if v := os.Getenv("TARGET_TABLE"); v != "" {
		cfg.Target.Table = v
	}
	if v := os.Getenv("PLACEHOLDER_PATTERN"); v != "" {
		cfg.Reconcile.PlaceholderPattern = v
	}
	if v := os.Getenv("CLEAR_TOKEN"); v != "" {
		cfg.Admin.ClearToken = v
	}
}
