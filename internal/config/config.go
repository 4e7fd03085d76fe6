package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

type Config struct {
	DBPath        string `toml:"db_path"`
	BoltPath      string `toml:"bolt_path"`
	Backend       string `toml:"backend"`
	LogLevel      string `toml:"log_level"`
	LogPretty     bool   `toml:"log_pretty"`
	DefaultPolicy string `toml:"default_policy"`
}

// Path returns the config file location. ACA_CONFIG overrides the default.
func Path(home string) string {
	if p := os.Getenv("ACA_CONFIG"); p != "" {
		return expandHome(p, home)
	}
	return filepath.Join(home, ".config", "aca", "config.toml")
}

func Defaults(home string) Config {
	dir := filepath.Join(home, ".config", "aca")
	return Config{
		DBPath:        filepath.Join(dir, "aca.db"),
		BoltPath:      filepath.Join(dir, "aca.bolt"),
		Backend:       BackendSQLite,
		LogLevel:      "info",
		DefaultPolicy: "keep-old",
	}
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfgPath := Path(home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// file values win, defaults fill whatever was left empty
	if err := mergo.Merge(cfg, Defaults(home)); err != nil {
		return nil, fmt.Errorf("merge config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.BoltPath = expandHome(cfg.BoltPath, home)

	return cfg, nil
}

// Override applies non-zero fields of o on top of c, as command flags do.
func (c *Config) Override(o Config) error {
	if err := mergo.Merge(c, o, mergo.WithOverride); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendBolt:
		return nil
	}
	return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBolt)
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
