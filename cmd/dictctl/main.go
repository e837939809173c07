// Command dictctl validates and compares dictionaries, runs the codecs over
// files and serves the codec service.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/observability"
	"github.com/maruel/subcommands"
)

var application = &subcommands.DefaultApplication{
	Name:  "dictctl",
	Title: "Dictionary validation, comparison and codec tool.",
	// Keep in alphabetical order of their name.
	Commands: []*subcommands.Command{
		cmdDiff,
		cmdFASTDecode,
		cmdFASTEncode,
		cmdFIXDecode,
		cmdFIXEncode,
		subcommands.CmdHelp,
		cmdServe,
		cmdValidate,
	},
}

func main() {
	observability.InitLogger("dictctl")
	os.Exit(subcommands.Run(application, nil))
}

// pathList collects a repeatable path flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// baseRun carries the flags shared by every subcommand.
type baseRun struct {
	subcommands.CommandRunBase
	configPath string
	dicts      pathList
	templates  pathList
}

func (r *baseRun) registerBaseFlags() {
	r.Flags.StringVar(&r.configPath, "config", "", "dictctl config file")
}

func (r *baseRun) registerCatalogFlags() {
	r.registerBaseFlags()
	r.Flags.Var(&r.dicts, "dict", "dictionary XML file, repeatable; added to the configured dictionaries")
	r.Flags.Var(&r.templates, "templates", "template XML file, repeatable; added to the configured templates")
}

func (r *baseRun) config() (config.Config, error) {
	cfg, err := loadCLIConfig(r.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Dictionaries = append(cfg.Dictionaries, r.dicts...)
	cfg.Templates = append(cfg.Templates, r.templates...)
	return cfg, nil
}

func (r *baseRun) catalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	return catalog.FromConfig(ctx, cfg)
}

// done prints err and maps it to an exit code.
func (r *baseRun) done(a subcommands.Application, err error) int {
	if err != nil {
		fmt.Fprintf(a.GetErr(), "%s: %v\n", a.GetName(), err)
		return 1
	}
	return 0
}

func (r *baseRun) argErr(a subcommands.Application, usage string, format string, args ...any) int {
	fmt.Fprintf(a.GetErr(), "%s: %s\nusage: %s\n", a.GetName(), fmt.Sprintf(format, args...), usage)
	return 2
}
