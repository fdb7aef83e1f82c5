package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gclql/internal/schema"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored schema discovery.
type Snapshot struct {
	ID          string           `json:"id"`
	Seq         int64            `json:"seq"`
	MainTable   string           `json:"main_table"`
	Fingerprint string           `json:"fingerprint"`
	Source      string           `json:"source"`
	CreatedAt   time.Time        `json:"created_at"`
	Discovery   schema.Discovery `json:"discovery"`
}

const snapshotColumns = `seq, id, main_table, fingerprint, source, discovery, created_at`

// Latest returns the newest snapshot of mainTable.
func (s *Store) Latest(ctx context.Context, mainTable string) (Snapshot, error) {
	return latestIn(ctx, s.db, mainTable)
}

func latestIn(ctx context.Context, q queryer, mainTable string) (Snapshot, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE main_table = ?
		ORDER BY seq DESC
		LIMIT 1
	`, mainTable)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot of %q: %w", mainTable, err)
	}
	return snap, nil
}

// Get returns the snapshot with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE id = ?
	`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", id, err)
	}
	return snap, nil
}

// History returns snapshots of mainTable newest first. A limit of zero or
// less returns all of them.
//
// Returns an empty slice (not nil) when none exist.
func (s *Store) History(ctx context.Context, mainTable string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE main_table = ?
		ORDER BY seq DESC
		LIMIT ?
	`, mainTable, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Source returns a schema.Source that discovers the latest stored
// snapshot of mainTable.
func (s *Store) Source(mainTable string) schema.Source {
	return schema.SourceFunc(func(ctx context.Context) (schema.Discovery, error) {
		snap, err := s.Latest(ctx, mainTable)
		if err != nil {
			return schema.Discovery{}, err
		}
		return snap.Discovery, nil
	})
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (Snapshot, error) {
	var (
		snap      Snapshot
		discovery string
		createdAt string
	)
	err := sc.Scan(&snap.Seq, &snap.ID, &snap.MainTable, &snap.Fingerprint, &snap.Source, &discovery, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}

	if snap.Discovery, err = unmarshalDiscovery(discovery); err != nil {
		return Snapshot{}, err
	}
	if snap.CreatedAt, err = parseTime(createdAt); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
