package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/maruel/subcommands"
)

const diffUsage = "diff [-order] [-by-first] [-deep] [-typed] [-json] <a.xml> <b.xml>"

var cmdDiff = &subcommands.Command{
	UsageLine: diffUsage,
	ShortDesc: "compares two dictionaries",
	LongDesc: `Prints every distinction between two dictionaries. Flags override the
configured diff settings. Exits 1 when the dictionaries differ.`,
	CommandRun: func() subcommands.CommandRun {
		r := &diffRun{}
		r.registerBaseFlags()
		r.Flags.Var(&r.order, "order", "report fields declared at different positions")
		r.Flags.Var(&r.byFirst, "by-first", "only consider names present in the first dictionary")
		r.Flags.Var(&r.deep, "deep", "compare schema contents, not just presence")
		r.Flags.Var(&r.typed, "typed", "compare default and enum values after typed casts")
		r.Flags.BoolVar(&r.json, "json", false, "print distinctions as JSON lines")
		return r
	},
}

// optBool is a bool flag that remembers whether it was set.
type optBool struct {
	set, value bool
}

func (b *optBool) String() string { return fmt.Sprint(b.value) }

func (b *optBool) Set(v string) error {
	switch v {
	case "true", "1":
		b.value = true
	case "false", "0":
		b.value = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	b.set = true
	return nil
}

func (b *optBool) IsBoolFlag() bool { return true }

func (b *optBool) apply(dst *bool) {
	if b.set {
		*dst = b.value
	}
}

type diffRun struct {
	baseRun
	order, byFirst, deep, typed optBool
	json                        bool
}

func (r *diffRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 2 {
		return r.argErr(a, diffUsage, "expected two dictionaries, got %d", len(args))
	}
	cfg, err := r.config()
	if err != nil {
		return r.done(a, err)
	}
	opts := cfg.Diff.Options()
	r.order.apply(&opts.CompareFieldOrder)
	r.byFirst.apply(&opts.CheckByFirst)
	r.deep.apply(&opts.DeepCheck)
	r.typed.apply(&opts.TypedCheck)

	dicts, err := catalog.LoadDictionaryFiles(context.Background(), args...)
	if err != nil {
		return r.done(a, err)
	}

	count := 0
	enc := json.NewEncoder(a.GetOut())
	diff.Compare(func(path diff.Path, kind diff.Kind, x, y any) {
		count++
		d := diff.Distinction{Path: path, Kind: kind, A: x, B: y}
		if r.json {
			_ = enc.Encode(d)
			return
		}
		fmt.Fprintln(a.GetOut(), d)
	}, dicts[0], dicts[1], opts)

	if count > 0 {
		fmt.Fprintf(a.GetErr(), "%d distinctions\n", count)
		return 1
	}
	return 0
}
