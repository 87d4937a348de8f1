package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pipewright/pipewright/internal/pipeline"
)

// ErrNotFound is returned by lookups that match no pipeline.
var ErrNotFound = errors.New("pipeline not found")

// Record is one stored pipeline revision.
type Record struct {
	ID        string
	Name      string
	Flavor    pipeline.Flavor
	Wire      string // canonical JSON stage array
	Hash      string // content-addressed pipeline ID
	CreatedAt time.Time
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var flavor, createdAt string
	if err := row.Scan(&rec.ID, &rec.Name, &flavor, &rec.Wire, &rec.Hash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	switch flavor {
	case "aggregation":
		rec.Flavor = pipeline.FlavorAggregation
	case "update":
		rec.Flavor = pipeline.FlavorUpdate
	default:
		return Record{}, fmt.Errorf("corrupt flavor %q for pipeline %s", flavor, rec.ID)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("corrupt created_at %q for pipeline %s: %w", createdAt, rec.ID, err)
	}
	rec.CreatedAt = ts

	return rec, nil
}

const recordColumns = "id, name, flavor, wire, content_hash, created_at"

// Get returns one revision by its UUID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM pipelines WHERE id = ?", id))
	if err != nil {
		return Record{}, fmt.Errorf("get pipeline %s: %w", id, err)
	}
	return rec, nil
}

// Latest returns the newest revision stored under the name.
// rowid breaks created_at ties deterministically.
func (s *Store) Latest(ctx context.Context, name string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+` FROM pipelines
		WHERE name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, name))
	if err != nil {
		return Record{}, fmt.Errorf("latest pipeline %q: %w", name, err)
	}
	return rec, nil
}

// History returns every revision stored under the name, newest first.
// rowid breaks created_at ties deterministically.
func (s *Store) History(ctx context.Context, name string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+` FROM pipelines
		WHERE name = ?
		ORDER BY created_at DESC, rowid DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("history for %q: %w", name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history for %q: %w", name, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history for %q: %w", name, err)
	}
	return records, nil
}

// List returns the latest revision of every named pipeline, ordered by
// name for deterministic output.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM pipelines
		WHERE rowid IN (
			SELECT max(rowid) FROM pipelines GROUP BY name
		)
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list pipelines: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return records, nil
}
