package main

import (
	"flag"
	"log"

	"github.com/danmuck/dictwire/internal/config"
)

func defaultPath(kind string) string {
	switch kind {
	case "service":
		return "dictwire.toml"
	case "cli":
		return "cmd/dictctl/config.toml"
	}
	log.Fatalf("unknown kind: %s", kind)
	return ""
}

func main() {
	kind := flag.String("kind", "service", "config kind: service|cli")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing service config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		if *kind != "service" {
			log.Fatalf("validation supports kind service only; run dictctl with -config to check %s", path)
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s (%d dictionaries, %d template files)",
			*kind, path, len(cfg.Dictionaries), len(cfg.Templates))
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
