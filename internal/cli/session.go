package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/gclql/internal/config"
	"github.com/roach88/gclql/internal/querysql"
	"github.com/roach88/gclql/internal/schema"
	"github.com/roach88/gclql/internal/store"
)

// session is a published schema snapshot and a planner reading it.
type session struct {
	provider *schema.Provider
	planner  *querysql.Planner

	// schemaPath is set when the snapshot came from a file.
	schemaPath string

	// origin describes where the snapshot came from.
	origin string

	closers []func() error
}

// openSession loads the schema from the first configured source:
// schemaFlag, then schema.path, then the latest stored snapshot, then
// live discovery over database.dsn.
func openSession(ctx context.Context, cfg *config.Config, schemaFlag string) (*session, error) {
	s := &session{provider: schema.NewProvider(cfg.SchemaOptions())}

	src, err := s.source(ctx, cfg, schemaFlag)
	if err != nil {
		s.Close()
		return nil, err
	}
	if _, err := s.provider.Refresh(ctx, src); err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	s.planner = querysql.NewPlanner(s.provider, cfg.PlannerOptions()...)
	slog.Debug("schema loaded", "origin", s.origin, "fingerprint", s.provider.Current().Fingerprint())
	return s, nil
}

func (s *session) source(ctx context.Context, cfg *config.Config, schemaFlag string) (schema.Source, error) {
	path := schemaFlag
	if path == "" {
		path = cfg.Schema.Path
	}
	if path != "" {
		s.schemaPath = path
		s.origin = "file:" + path
		return schema.FileSource{Path: path}, nil
	}

	if cfg.Store.Path != "" {
		if cfg.MainTable == "" {
			return nil, NewExitError(ExitCommandError, "main_table is required to read the snapshot store")
		}
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open snapshot store", err)
		}
		s.closers = append(s.closers, st.Close)
		s.origin = "store:" + cfg.Store.Path
		return st.Source(cfg.MainTable), nil
	}

	if cfg.Database.DSN != "" {
		disc, err := newDiscoverer(ctx, cfg, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, disc.DB.Close)
		s.origin = "database"
		return disc, nil
	}

	return nil, NewExitError(ExitCommandError,
		"no schema source: pass --schema or configure schema.path, store.path or database.dsn")
}

// Close releases the session's store or database handles.
func (s *session) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// newDiscoverer connects to Postgres for live schema discovery.
func newDiscoverer(ctx context.Context, cfg *config.Config, dsn string) (*schema.PostgresDiscoverer, error) {
	if cfg.MainTable == "" {
		return nil, NewExitError(ExitCommandError, "main_table is required for schema discovery")
	}
	db, err := schema.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect to database", err)
	}
	return &schema.PostgresDiscoverer{
		DB:          db,
		MainTable:   cfg.MainTable,
		TableSchema: cfg.Database.TableSchema,
		Options:     cfg.SchemaOptions(),
	}, nil
}

// describe is a one-line summary of a snapshot.
func describe(sc *schema.Context) string {
	return fmt.Sprintf("%s (%d columns, %d navigation tables, %d metadata fields, fingerprint %s)",
		sc.MainTable(), len(sc.Columns()), len(sc.Navigation()), len(sc.MetadataFields()), shortFingerprint(sc.Fingerprint()))
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
