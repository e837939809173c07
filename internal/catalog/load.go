package catalog

import (
	"context"
	"runtime"

	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/dictionary/xmldict"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FromConfig builds a catalog from the settings in cfg and loads its
// dictionaries and templates.
func FromConfig(ctx context.Context, cfg config.Config) (*Catalog, error) {
	cs, err := cfg.FIX.ParseCharset()
	if err != nil {
		return nil, err
	}
	unit, err := cfg.FAST.Unit()
	if err != nil {
		return nil, err
	}
	c := New(Options{
		Charset:     cs,
		KeepDerived: cfg.FIX.KeepDerived,
		Unit:        unit,
		Limits:      cfg.FAST.Limits(),
	})
	if err := c.LoadTemplates(ctx, cfg.Templates...); err != nil {
		return nil, err
	}
	if err := c.LoadDictionaries(ctx, cfg.Dictionaries...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDictionaries reads the dictionary documents at paths in parallel and
// registers them in path order. Nothing is registered if any load fails.
func (c *Catalog) LoadDictionaries(ctx context.Context, paths ...string) error {
	dicts, err := LoadDictionaryFiles(ctx, paths...)
	if err != nil {
		return err
	}
	for i, d := range dicts {
		if _, err := c.Register(paths[i], d); err != nil {
			return err
		}
	}
	log.Info().Msgf("catalog: loaded %d dictionaries", len(dicts))
	return nil
}

// LoadTemplates reads the template documents at paths in parallel and merges
// them with the current registry.
func (c *Catalog) LoadTemplates(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	regs := make([]*template.Registry, len(paths)+1)
	regs[0] = c.Templates()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reg, err := template.LoadFile(p)
			if err != nil {
				return err
			}
			regs[i+1] = reg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	merged, err := template.Merge(regs...)
	if err != nil {
		return err
	}
	c.SetTemplates(merged)
	log.Info().Msgf("catalog: loaded %d templates from %d files", len(merged.Templates()), len(paths))
	return nil
}

// LoadDictionaryFiles reads every path in parallel. The result is in path
// order.
func LoadDictionaryFiles(ctx context.Context, paths ...string) ([]*dictionary.Dictionary, error) {
	out := make([]*dictionary.Dictionary, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := xmldict.LoadFile(p)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
