package main

import (
	"context"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/server"
	"github.com/maruel/subcommands"
)

var cmdServe = &subcommands.Command{
	UsageLine: "serve [-service file] [-addr addr] [-dict file]... [-templates file]...",
	ShortDesc: "runs the codec service",
	LongDesc: `Serves the validator, differ and both codecs over HTTP. -service reads
a dictwire.toml service config; otherwise the dictctl config is used.`,
	CommandRun: func() subcommands.CommandRun {
		r := &serveRun{}
		r.registerCatalogFlags()
		r.Flags.StringVar(&r.servicePath, "service", "", "service config file (dictwire.toml)")
		r.Flags.StringVar(&r.addr, "addr", "", "listen address override")
		return r
	},
}

type serveRun struct {
	baseRun
	servicePath string
	addr        string
}

func (r *serveRun) serviceConfig() (config.Config, error) {
	if r.servicePath == "" {
		return r.config()
	}
	cfg, err := config.Load(r.servicePath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Dictionaries = append(cfg.Dictionaries, r.dicts...)
	cfg.Templates = append(cfg.Templates, r.templates...)
	return cfg, nil
}

func (r *serveRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	cfg, err := r.serviceConfig()
	if err != nil {
		return r.done(a, err)
	}
	if r.addr != "" {
		cfg.Addr = r.addr
	}
	cat, err := catalog.FromConfig(context.Background(), cfg)
	if err != nil {
		return r.done(a, err)
	}
	return r.done(a, server.Appear(cfg, cat).Serve())
}
