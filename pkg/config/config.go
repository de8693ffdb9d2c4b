// Package config loads application configuration with the usual layering:
// defaults, then patchwire.toml, then PATCHWIRE_* environment variables,
// then command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all settings for the patchwire binary.
type Config struct {
	Document    string `koanf:"document"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	Orientation string `koanf:"orientation"`
	Verbosity   string `koanf:"verbosity"`
}

// Load builds the configuration. Priority: flags > env > file > defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"document":    "",
		"web":         false,
		"port":        8080,
		"watch":       false,
		"orientation": "horizontal",
		"verbosity":   "info",
	}
	if err := k.Load(mapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Optional config file; absence is not an error.
	_ = k.Load(file.Provider("patchwire.toml"), toml.Parser())

	if err := k.Load(env.Provider("PATCHWIRE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "PATCHWIRE_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

type rawMap map[string]interface{}

func mapProvider(m map[string]interface{}) rawMap {
	return rawMap(m)
}

func (m rawMap) Read() (map[string]interface{}, error) {
	return m, nil
}

func (m rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
