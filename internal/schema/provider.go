package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Source produces a Discovery. Implementations may do I/O; they are only
// called at setup and on explicit refresh, never during translation.
type Source interface {
	Discover(ctx context.Context) (Discovery, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Discovery, error)

// Discover calls f.
func (f SourceFunc) Discover(ctx context.Context) (Discovery, error) {
	return f(ctx)
}

// Provider publishes the current Context. It is safe for concurrent use:
// readers call Current without locking and always get a complete snapshot.
type Provider struct {
	opts    Options
	current atomic.Pointer[Context]
}

// NewProvider creates a Provider with no published snapshot. opts is used
// by Refresh when building new Contexts.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts.withDefaults()}
}

// Current returns the published Context, or nil before the first Publish.
func (p *Provider) Current() *Context {
	return p.current.Load()
}

// Publish atomically replaces the current snapshot.
func (p *Provider) Publish(c *Context) {
	if c == nil {
		return
	}
	prev := p.current.Swap(c)
	if prev == nil || prev.Fingerprint() != c.Fingerprint() {
		slog.Info("schema published",
			"main_table", c.MainTable(),
			"fingerprint", shortFingerprint(c.Fingerprint()),
			"fields", len(c.columnSQL),
			"metadata_fields", len(c.metadataFields),
			"navigation_tables", len(c.navigation))
	}
}

// Refresh discovers and builds a new snapshot, then publishes it. On any
// error the previously published snapshot stays current.
func (p *Provider) Refresh(ctx context.Context, src Source) (*Context, error) {
	d, err := src.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover schema: %w", err)
	}
	c, err := Build(d, p.opts)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	p.Publish(c)
	return c, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
