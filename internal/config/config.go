// Package config loads the todotxt TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appName    = "todotxt"
	configFile = "config.toml"
	envConfig  = "TODOTXT_CONFIG"

	FormatText   = "text"
	FormatPlain  = "plain"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatYAML   = "yaml"

	DefaultFormat    = FormatText
	DefaultExportDir = "exports"
	DefaultLogLevel  = "info"
	DefaultIDPrefix  = "ent_"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Format    string `toml:"format" json:"format" yaml:"format"`
	ExportDir string `toml:"export_dir" json:"export_dir" yaml:"export_dir"`
	LogLevel  string `toml:"log_level" json:"log_level" yaml:"log_level"`
	IDPrefix  string `toml:"id_prefix" json:"id_prefix" yaml:"id_prefix"`
}

func Default() *Config {
	return &Config{
		Format:    DefaultFormat,
		ExportDir: DefaultExportDir,
		LogLevel:  DefaultLogLevel,
		IDPrefix:  DefaultIDPrefix,
	}
}

// Path resolves the config file location: explicit path, then
// $TODOTXT_CONFIG, then ~/.config/todotxt/config.toml.
func Path(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

// Load reads the TOML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	switch c.Format {
	case "":
		c.Format = DefaultFormat
	case FormatText, FormatPlain, FormatJSON, FormatNDJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: format %q (want text|plain|json|ndjson|yaml)", ErrInvalid, c.Format)
	}
	if strings.TrimSpace(c.ExportDir) == "" {
		c.ExportDir = DefaultExportDir
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.IDPrefix) == "" {
		c.IDPrefix = DefaultIDPrefix
	}
	return nil
}
