package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestServiceTemplateLoads(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "dictwire.toml")
	if err := WriteTemplate(path, "service", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "service", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "dictionaries/fix44.xml")}, cfg.Dictionaries); diff != "" {
		t.Fatalf("dictionaries not resolved (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "templates/orders.xml")}, cfg.Templates); diff != "" {
		t.Fatalf("templates not resolved (-want +got):\n%s", diff)
	}
	cs, err := cfg.FIX.ParseCharset()
	if err != nil || cs.Name() != "ISO-8859-1" {
		t.Fatalf("unexpected charset %v: %v", cs, err)
	}
	if cfg.Diff.Options() != (diff.Options{DeepCheck: true}) {
		t.Fatalf("unexpected diff options %+v", cfg.Diff.Options())
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "dictwire.toml")
	writeFile(t, path, `
addr = "127.0.0.1:9300"
dictionaries = ["/abs/fix.xml"]

[fast]
datetime_unit = "us"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "dictwire" || cfg.Addr != "127.0.0.1:9300" {
		t.Fatalf("unexpected name/addr %q %q", cfg.Name, cfg.Addr)
	}
	if cfg.Dictionaries[0] != "/abs/fix.xml" {
		t.Fatalf("absolute path rewritten: %q", cfg.Dictionaries[0])
	}
	if u, _ := cfg.FAST.Unit(); u != scalar.Microsecond {
		t.Fatalf("unexpected unit %s", u)
	}
	if cfg.FAST.Limits().MaxPayloadBytes != 8*1024*1024 {
		t.Fatalf("default payload limit lost: %d", cfg.FAST.Limits().MaxPayloadBytes)
	}
	if !cfg.Diff.DeepCheck {
		t.Fatalf("default deep check lost")
	}
}

func TestValidateRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]func(*Config){
		"addr":     func(c *Config) { c.Addr = " " },
		"charset":  func(c *Config) { c.FIX.Charset = "klingon" },
		"unit":     func(c *Config) { c.FAST.DateTimeUnit = "fortnight" },
		"payload":  func(c *Config) { c.FAST.MaxPayloadBytes = 0 },
		"dict":     func(c *Config) { c.Dictionaries = []string{""} },
		"template": func(c *Config) { c.Templates = []string{" "} },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestTemplateKinds(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"service", "CLI"} {
		if tpl, err := Template(kind); err != nil || strings.TrimSpace(tpl) == "" {
			t.Fatalf("%s: %v", kind, err)
		}
	}
	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
