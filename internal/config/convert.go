package config

import (
	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/danmuck/dictwire/internal/fast/wire"
	"github.com/danmuck/dictwire/internal/fix"
	"github.com/danmuck/dictwire/internal/scalar"
)

// ParseCharset resolves the configured charset name. Empty is ISO-8859-1.
func (c FIXConfig) ParseCharset() (fix.Charset, error) {
	return fix.ParseCharset(c.Charset)
}

func (c FASTConfig) Unit() (scalar.Unit, error) {
	return scalar.ParseUnit(c.DateTimeUnit)
}

func (c FASTConfig) Limits() wire.Limits {
	if c.MaxPayloadBytes == 0 {
		return wire.DefaultLimits()
	}
	return wire.Limits{MaxPayloadBytes: c.MaxPayloadBytes}
}

func (c DiffConfig) Options() diff.Options {
	return diff.Options{
		CompareFieldOrder: c.CompareFieldOrder,
		CheckByFirst:      c.CheckByFirst,
		DeepCheck:         c.DeepCheck,
		TypedCheck:        c.TypedCheck,
	}
}
