package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func TestLoadCLIConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
dictionaries = ["dicts/fix44.xml", "/abs/ord.xml"]
fix_keep_derived = true
diff_typed_check = true
diff_deep_check = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := []string{filepath.Join(dir, "dicts/fix44.xml"), "/abs/ord.xml"}
	if diff := cmp.Diff(want, cfg.Dictionaries); diff != "" {
		t.Fatalf("unexpected dictionaries (-want +got):\n%s", diff)
	}
	if !cfg.FIX.KeepDerived || !cfg.Diff.TypedCheck || cfg.Diff.DeepCheck {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FIX.Charset != "ISO-8859-1" || cfg.FAST.DateTimeUnit != "millisecond" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadCLIConfigRejectsCharset(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`fix_charset = "no-such-charset"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadCLIConfig(path); err == nil {
		t.Fatalf("expected unknown charset error")
	}
}

func TestLoadCLIConfigEmptyPath(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadCLIConfig("")
	if err != nil || cfg.Name != "dictwire" {
		t.Fatalf("expected defaults, got %+v err=%v", cfg, err)
	}
}

func TestCLITemplateMatchesDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteTemplate(path, "cli", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	want := config.Default()
	want.Dictionaries = []string{}
	want.Templates = []string{}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("template drifted from defaults (-want +got):\n%s", diff)
	}
}
