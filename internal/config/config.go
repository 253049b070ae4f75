package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"app"`

	Ingest struct {
		RatePerSec float64 `yaml:"rate_per_sec"`
		Burst      int     `yaml:"burst"`
	} `yaml:"ingest"`

	Target struct {
		DSN   string `yaml:"dsn"`
		Table string `yaml:"table"`
	} `yaml:"target"`

	Reconcile struct {
		PlaceholderPattern string `yaml:"placeholder_pattern"`
		ReportDir          string `yaml:"report_dir"`
	} `yaml:"reconcile"`

	Admin struct {
		ClearToken string `yaml:"clear_token"`
	} `yaml:"admin"`
}

func Default() Config {
	var cfg Config
	cfg.App.Port = 10000
	cfg.App.DataDir = "."
	cfg.Ingest.RatePerSec = 2.0
	cfg.Ingest.Burst = 5
	cfg.Target.Table = "contacts"
	cfg.Reconcile.ReportDir = "."
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// LoadOrDefault reads the config file when it exists and falls back to
// defaults when it doesn't. The env overlay still applies either way.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
