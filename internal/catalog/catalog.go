// Package catalog holds the dictionaries and templates a process serves,
// keyed by namespace, with ready codecs for each dictionary.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/dictwire/internal/dictionary"
	"github.com/danmuck/dictwire/internal/fast"
	"github.com/danmuck/dictwire/internal/fast/template"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/fix"
	"github.com/danmuck/dictwire/internal/scalar"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound           = errors.New("catalog: dictionary not found")
	ErrDuplicateNamespace = errors.New("catalog: duplicate namespace")
)

// Options configures the codecs built for every entry.
type Options struct {
	Charset     fix.Charset
	KeepDerived bool
	Unit        scalar.Unit
	Limits      wire.Limits
}

// Entry is one dictionary and its codecs.
type Entry struct {
	Path       string
	Dictionary *dictionary.Dictionary
	FIX        *fix.Codec
	FAST       *fast.Codec
	Loaded     time.Time
}

func (e *Entry) Namespace() string { return e.Dictionary.Namespace() }

// Catalog stores entries by namespace.
type Catalog struct {
	opts      Options
	templates *template.Registry

	repo map[string]*Entry
	mu   sync.RWMutex
}

func New(opts Options) *Catalog {
	if opts.Limits.MaxPayloadBytes == 0 {
		opts.Limits = wire.DefaultLimits()
	}
	templates, _ := template.NewRegistry()
	return &Catalog{
		opts:      opts,
		templates: templates,
		repo:      make(map[string]*Entry),
	}
}

func (c *Catalog) Options() Options { return c.opts }

// Register adds d under its namespace. A namespace can be registered once.
func (c *Catalog) Register(path string, d *dictionary.Dictionary) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns := d.Namespace()
	if prev, ok := c.repo[ns]; ok {
		return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateNamespace, ns, prev.Path, path)
	}
	e := &Entry{Path: path, Dictionary: d, Loaded: time.Now()}
	c.bind(e)
	c.repo[ns] = e
	log.Debug().Msgf("catalog.Register namespace=%s path=%s messages=%d", ns, path, len(d.Messages()))
	return e, nil
}

// SetTemplates replaces the template registry and rebinds every entry's
// binary codec to it.
func (c *Catalog) SetTemplates(reg *template.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = reg
	for _, e := range c.repo {
		c.bind(e)
	}
}

func (c *Catalog) bind(e *Entry) {
	e.FIX = fix.NewCodec(e.Dictionary, c.opts.Charset, c.opts.KeepDerived)
	e.FAST = fast.NewCodec(e.Dictionary, c.templates, fast.WithUnit(c.opts.Unit), fast.WithLimits(c.opts.Limits))
}

func (c *Catalog) Templates() *template.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.templates
}

func (c *Catalog) Get(namespace string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.repo[namespace]
	return e, ok
}

// Lookup is Get with ErrNotFound.
func (c *Catalog) Lookup(namespace string) (*Entry, error) {
	e, ok := c.Get(namespace)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, namespace)
	}
	return e, nil
}

// All returns a snapshot of the entries ordered by namespace.
func (c *Catalog) All() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0, len(c.repo))
	for _, e := range c.repo {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Namespace() < out[j].Namespace()
	})
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.repo)
}
