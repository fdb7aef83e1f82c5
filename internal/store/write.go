package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/gclql/internal/schema"
)

// Save records sc as the newest snapshot of its main table. If the latest
// stored snapshot for that table has the same fingerprint, nothing is
// written and the existing row is returned with created=false.
//
// source describes where the discovery came from, for example a DSN
// without credentials or a file path.
func (s *Store) Save(ctx context.Context, sc *schema.Context, source string) (Snapshot, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	latest, err := latestIn(ctx, tx, sc.MainTable())
	switch {
	case err == nil && latest.Fingerprint == sc.Fingerprint():
		return latest, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	discovery, err := marshalDiscovery(sc.Discovery())
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	snap := Snapshot{
		ID:          s.newID(),
		MainTable:   sc.MainTable(),
		Fingerprint: sc.Fingerprint(),
		Source:      source,
		CreatedAt:   s.now().UTC(),
		Discovery:   sc.Discovery(),
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, main_table, fingerprint, source, discovery, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.MainTable,
		snap.Fingerprint,
		snap.Source,
		discovery,
		formatTime(snap.CreatedAt),
	)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}
	if snap.Seq, err = res.LastInsertId(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	slog.Info("schema snapshot saved",
		"id", snap.ID,
		"main_table", snap.MainTable,
		"seq", snap.Seq,
	)
	return snap, true, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
