package main

import (
	"context"
	"fmt"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/dictionary/validate"
	"github.com/maruel/subcommands"
)

const validateUsage = "validate [-rules fix|fast] [-config file] <dict.xml>..."

var cmdValidate = &subcommands.Command{
	UsageLine: validateUsage,
	ShortDesc: "checks dictionary documents",
	LongDesc: `Loads every dictionary in parallel, checking it against the document
schema, then runs the structural checks and the optional codec rule set.
Without arguments the configured dictionaries are checked.`,
	CommandRun: func() subcommands.CommandRun {
		r := &validateRun{}
		r.registerBaseFlags()
		r.Flags.StringVar(&r.rules, "rules", "", "codec rule set to apply: fix or fast")
		return r
	},
}

type validateRun struct {
	baseRun
	rules string
}

func (r *validateRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if r.rules != "" && r.rules != "fix" && r.rules != "fast" {
		return r.argErr(a, validateUsage, "unknown rule set %q", r.rules)
	}
	cfg, err := r.config()
	if err != nil {
		return r.done(a, err)
	}
	paths := args
	if len(paths) == 0 {
		paths = cfg.Dictionaries
	}
	if len(paths) == 0 {
		return r.argErr(a, validateUsage, "no dictionaries given")
	}

	dicts, err := catalog.LoadDictionaryFiles(context.Background(), paths...)
	if err != nil {
		return r.done(a, err)
	}
	failed := 0
	for i, d := range dicts {
		errs := validate.Validate(d)
		switch r.rules {
		case "fix":
			errs = append(errs, validate.FIXRules(d)...)
		case "fast":
			errs = append(errs, validate.FASTRules(d)...)
		}
		if len(errs) == 0 {
			fmt.Fprintf(a.GetOut(), "%s: %s ok\n", paths[i], d.Namespace())
			continue
		}
		failed++
		for _, e := range errs {
			fmt.Fprintf(a.GetOut(), "%s: %v\n", paths[i], e)
		}
	}
	if failed > 0 {
		return r.done(a, fmt.Errorf("%d of %d dictionaries failed validation", failed, len(dicts)))
	}
	return 0
}
