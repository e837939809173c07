package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/dictwire/internal/config"
)

// dictctl config.toml key mapping onto the shared config.
type fileConfig struct {
	Dictionaries     []string `toml:"dictionaries"`
	Templates        []string `toml:"templates"`
	FIXCharset       string   `toml:"fix_charset"`
	FIXKeepDerived   bool     `toml:"fix_keep_derived"`
	FASTDateTimeUnit string   `toml:"fast_datetime_unit"`
	FASTMaxPayload   uint32   `toml:"fast_max_payload_bytes"`
	DiffFieldOrder   bool     `toml:"diff_compare_field_order"`
	DiffCheckByFirst bool     `toml:"diff_check_by_first"`
	DiffDeepCheck    bool     `toml:"diff_deep_check"`
	DiffTypedCheck   bool     `toml:"diff_typed_check"`
}

// loadCLIConfig overlays the keys defined in path onto config.Default. An
// empty path yields the defaults.
func loadCLIConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("load dictctl config: %w", err)
	}

	if meta.IsDefined("dictionaries") {
		cfg.Dictionaries = trimAll(raw.Dictionaries)
	}
	if meta.IsDefined("templates") {
		cfg.Templates = trimAll(raw.Templates)
	}
	if meta.IsDefined("fix_charset") {
		cfg.FIX.Charset = strings.TrimSpace(raw.FIXCharset)
	}
	if meta.IsDefined("fix_keep_derived") {
		cfg.FIX.KeepDerived = raw.FIXKeepDerived
	}
	if meta.IsDefined("fast_datetime_unit") {
		cfg.FAST.DateTimeUnit = strings.TrimSpace(raw.FASTDateTimeUnit)
	}
	if meta.IsDefined("fast_max_payload_bytes") {
		cfg.FAST.MaxPayloadBytes = raw.FASTMaxPayload
	}
	if meta.IsDefined("diff_compare_field_order") {
		cfg.Diff.CompareFieldOrder = raw.DiffFieldOrder
	}
	if meta.IsDefined("diff_check_by_first") {
		cfg.Diff.CheckByFirst = raw.DiffCheckByFirst
	}
	if meta.IsDefined("diff_deep_check") {
		cfg.Diff.DeepCheck = raw.DiffDeepCheck
	}
	if meta.IsDefined("diff_typed_check") {
		cfg.Diff.TypedCheck = raw.DiffTypedCheck
	}

	cfg.Resolve(filepath.Dir(path))
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("load dictctl config: %w", err)
	}
	return cfg, nil
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
