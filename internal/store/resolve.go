package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/queryir"
	"github.com/roach88/pagesel/internal/querysql"
)

// Resolution is a descriptor evaluated against the collection.
type Resolution struct {
	Fingerprint string        `json:"fingerprint"`
	Descriptor  ir.Descriptor `json:"descriptor"`
	Total       int           `json:"total"`
	Count       int           `json:"count"`
	IDs         []ir.RecordID `json:"ids"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// Resolve evaluates a descriptor: the number of matching records and, in
// collection order, the ids of at most limit of them. limit <= 0 lists
// every match.
func (s *Store) Resolve(ctx context.Context, d ir.Descriptor, limit int) (Resolution, error) {
	d = d.Normalize()
	fingerprint, err := ir.DescriptorFingerprint(d)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: %w", err)
	}

	filter := queryir.FromDescriptor(d)
	compiler := querysql.NewSQLCompiler()

	countSQL, countParams, err := compiler.Compile(queryir.Count{From: "records", Filter: filter})
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: %w", err)
	}
	listSQL, listParams, err := compiler.Compile(queryir.Select{
		From:    "records",
		Columns: []string{"id"},
		Filter:  filter,
		Limit:   max(limit, 0),
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: begin tx: %w", err)
	}
	defer tx.Rollback() // Read-only; never committed

	res := Resolution{Fingerprint: fingerprint, Descriptor: d, IDs: []ir.RecordID{}}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&res.Total); err != nil {
		return Resolution{}, fmt.Errorf("resolve: total: %w", err)
	}
	if err := tx.QueryRowContext(ctx, countSQL, countParams...).Scan(&res.Count); err != nil {
		return Resolution{}, fmt.Errorf("resolve: count: %w", err)
	}

	rows, err := tx.QueryContext(ctx, listSQL, listParams...)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Resolution{}, fmt.Errorf("resolve: scan: %w", err)
		}
		res.IDs = append(res.IDs, ir.RecordID(id))
	}
	if err := rows.Err(); err != nil {
		return Resolution{}, fmt.Errorf("resolve: iterate: %w", err)
	}

	res.Truncated = len(res.IDs) < res.Count
	return res, nil
}

// RecordResolution logs a resolution under its fingerprint.
// Returns inserted=false when the fingerprint was already logged; the first
// write wins.
func (s *Store) RecordResolution(ctx context.Context, res Resolution) (inserted bool, err error) {
	descJSON, err := ir.MarshalCanonical(res.Descriptor.Canonical())
	if err != nil {
		return false, fmt.Errorf("record resolution: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (fingerprint, descriptor, total, count, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM resolutions))
		ON CONFLICT(fingerprint) DO NOTHING
	`, res.Fingerprint, string(descJSON), res.Total, res.Count)
	if err != nil {
		return false, fmt.Errorf("record resolution: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record resolution: rows affected: %w", err)
	}
	return n > 0, nil
}

// LoggedResolution is one row of the resolution log.
type LoggedResolution struct {
	Seq         int64
	Fingerprint string
	Descriptor  string
	Total       int
	Count       int
}

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ReadResolution returns the logged resolution for a fingerprint.
func (s *Store) ReadResolution(ctx context.Context, fingerprint string) (LoggedResolution, error) {
	var r LoggedResolution
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, fingerprint, descriptor, total, count
		FROM resolutions
		WHERE fingerprint = ?
	`, fingerprint).Scan(&r.Seq, &r.Fingerprint, &r.Descriptor, &r.Total, &r.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return LoggedResolution{}, fmt.Errorf("resolution %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return LoggedResolution{}, fmt.Errorf("read resolution: %w", err)
	}
	return r, nil
}
