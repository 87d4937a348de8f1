package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/wire"
)

// Save pushes a pipeline revision under the given name.
// Returns the stored record and whether a new row was inserted.
//
// Uses ON CONFLICT(name, content_hash) DO NOTHING for idempotency: the
// wire bytes are canonical, so pushing an unchanged pipeline returns the
// existing record with inserted=false.
func (s *Store) Save(ctx context.Context, name string, p pipeline.Pipeline) (Record, bool, error) {
	if name == "" {
		return Record{}, false, fmt.Errorf("save pipeline: name is required")
	}

	wireJSON, err := wire.Marshal(p)
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: %w", name, err)
	}
	hash, err := wire.ID(p)
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: %w", name, err)
	}

	// Transaction makes insert-or-select atomic.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, flavor, wire, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name, content_hash) DO NOTHING
	`,
		uuid.NewString(),
		name,
		p.Flavor().String(),
		string(wireJSON),
		hash,
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: insert: %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: rows affected: %w", name, err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT id, name, flavor, wire, content_hash, created_at
		FROM pipelines
		WHERE name = ? AND content_hash = ?
	`, name, hash))
	if err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: read back: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, false, fmt.Errorf("save pipeline %q: commit: %w", name, err)
	}

	return rec, rowsAffected > 0, nil
}
