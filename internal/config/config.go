// Package config loads dictwire.toml: the dictionaries and templates a
// process serves, codec settings and the service listener.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Name         string     `toml:"name"`
	Addr         string     `toml:"addr"`
	CorsOrigins  []string   `toml:"cors_origins"`
	Dictionaries []string   `toml:"dictionaries"`
	Templates    []string   `toml:"templates"`
	FIX          FIXConfig  `toml:"fix"`
	FAST         FASTConfig `toml:"fast"`
	Diff         DiffConfig `toml:"diff"`
}

type FIXConfig struct {
	Charset     string `toml:"charset"`
	KeepDerived bool   `toml:"keep_derived"`
}

type FASTConfig struct {
	DateTimeUnit    string `toml:"datetime_unit"`
	MaxPayloadBytes uint32 `toml:"max_payload_bytes"`
}

type DiffConfig struct {
	CompareFieldOrder bool `toml:"compare_field_order"`
	CheckByFirst      bool `toml:"check_by_first"`
	DeepCheck         bool `toml:"deep_check"`
	TypedCheck        bool `toml:"typed_check"`
}

func Default() Config {
	return Config{
		Name: "dictwire",
		Addr: ":9200",
		FIX:  FIXConfig{Charset: "ISO-8859-1"},
		FAST: FASTConfig{DateTimeUnit: "millisecond", MaxPayloadBytes: 8 * 1024 * 1024},
		Diff: DiffConfig{DeepCheck: true},
	}
}

// Load reads path over the defaults. Relative dictionary and template paths
// resolve against the directory of path.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Resolve(filepath.Dir(path))
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// Resolve joins relative dictionary and template paths onto dir.
func (c *Config) Resolve(dir string) {
	resolve := func(paths []string) {
		for i, p := range paths {
			p = strings.TrimSpace(p)
			if p != "" && !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			paths[i] = p
		}
	}
	resolve(c.Dictionaries)
	resolve(c.Templates)
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("missing addr")
	}
	for i, p := range cfg.Dictionaries {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("dictionaries[%d] is empty", i)
		}
	}
	for i, p := range cfg.Templates {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("templates[%d] is empty", i)
		}
	}
	if _, err := cfg.FIX.ParseCharset(); err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	if _, err := cfg.FAST.Unit(); err != nil {
		return fmt.Errorf("fast: %w", err)
	}
	if cfg.FAST.MaxPayloadBytes == 0 {
		return fmt.Errorf("fast: max_payload_bytes must be positive")
	}
	return nil
}
