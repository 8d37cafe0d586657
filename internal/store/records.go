package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/pagesel/internal/ir"
)

// Seed replaces the collection with n records: ids "1".."n" at positions
// 0..n-1, labelled "Record 1".."Record n".
func (s *Store) Seed(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("seed: negative record count %d", n)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("seed: clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (id, position, label) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("seed: prepare: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		id := strconv.Itoa(i + 1)
		if _, err := stmt.ExecContext(ctx, id, i, "Record "+id); err != nil {
			return fmt.Errorf("seed: insert record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

// AppendRecords adds records after the current last position and returns
// them with their assigned positions. Incoming positions are ignored.
// Ids must be new and non-empty.
func (s *Store) AppendRecords(ctx context.Context, records []ir.Record) ([]ir.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&next); err != nil {
		return nil, fmt.Errorf("append records: count: %w", err)
	}

	out := make([]ir.Record, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("append records: empty record id")
		}
		rec.Position = next
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, position, label) VALUES (?, ?, ?)`,
			string(rec.ID), rec.Position, rec.Label)
		if err != nil {
			return nil, fmt.Errorf("append records: insert %s: %w", rec.ID, err)
		}
		out = append(out, rec)
		next++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append records: commit: %w", err)
	}
	return out, nil
}

// Truncate keeps the first keep records and deletes the rest.
// Returns how many records were deleted.
func (s *Store) Truncate(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE position >= ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("truncate: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("truncate: rows affected: %w", err)
	}
	return n, nil
}

// Count returns the collection size.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// FetchRange returns up to limit records starting at offset, in collection
// order, together with the collection size at the time of the read.
//
// Returns an empty (not nil) record slice past the end.
func (s *Store) FetchRange(ctx context.Context, offset, limit int) (ir.Page, error) {
	if offset < 0 {
		return ir.Page{}, fmt.Errorf("fetch range: negative offset %d", offset)
	}
	if limit <= 0 {
		return ir.Page{}, fmt.Errorf("fetch range: limit must be positive, got %d", limit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Page{}, fmt.Errorf("fetch range: begin tx: %w", err)
	}
	defer tx.Rollback() // Read-only; never committed

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&total); err != nil {
		return ir.Page{}, fmt.Errorf("fetch range: count: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, position, label
		FROM records
		ORDER BY position ASC, id ASC COLLATE BINARY
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return ir.Page{}, fmt.Errorf("fetch range: query: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return ir.Page{}, fmt.Errorf("fetch range: %w", err)
	}

	return ir.Page{Records: records, TotalRecords: total}, nil
}

// Lookup returns the record with the given id. Returns ErrNotFound when the
// collection has no such record.
func (s *Store) Lookup(ctx context.Context, id ir.RecordID) (ir.Record, error) {
	var rec ir.Record
	var rawID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, position, label FROM records WHERE id = ?`, string(id),
	).Scan(&rawID, &rec.Position, &rec.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Record{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Record{}, fmt.Errorf("lookup record %s: %w", id, err)
	}
	rec.ID = ir.RecordID(rawID)
	return rec, nil
}

// FetchPage serves one page of the record source contract.
func (s *Store) FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error) {
	if req.Page < 0 || req.PageSize <= 0 {
		return ir.Page{}, fmt.Errorf("fetch page: invalid request page=%d page_size=%d", req.Page, req.PageSize)
	}
	return s.FetchRange(ctx, req.Offset(), req.PageSize)
}

func scanRecords(rows *sql.Rows) ([]ir.Record, error) {
	records := []ir.Record{}
	for rows.Next() {
		var rec ir.Record
		var id string
		if err := rows.Scan(&id, &rec.Position, &rec.Label); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.ID = ir.RecordID(id)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
