// Package sqlite provides a durable Store backed by SQLite through
// database/sql. Entities are stored as JSON documents keyed by ID; query
// evaluation runs through the in-core matcher over a scan, which keeps the
// matching semantics identical to the memory store byte for byte.
//
// The connection enables WAL mode and foreign keys, and initializes the
// schema on open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/google/uuid"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS vouchers (
	id   TEXT PRIMARY KEY,
	date TEXT,
	doc  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vouchers_date ON vouchers(date);
CREATE TABLE IF NOT EXISTS assets (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS amortizeds (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);
`

// Store is a SQLite-backed storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SelectVoucher returns the voucher with the given ID, or nil when absent.
func (s *Store) SelectVoucher(ctx context.Context, id string) (*entity.Voucher, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM vouchers WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeVoucher(doc)
}

// SelectVouchers scans vouchers in date order (undated first) and filters
// them through the query matcher.
func (s *Store) SelectVouchers(ctx context.Context, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM vouchers ORDER BY date IS NOT NULL, date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Voucher
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		v, err := decodeVoucher(doc)
		if err != nil {
			return nil, err
		}
		if query.VoucherMatches(v, q) {
			out = append(out, v)
		}
	}
	return out, rows.Err()
}

// UpsertVoucher persists the voucher, assigning a fresh UUID when it has no
// ID yet, and reports whether a new row was created.
func (s *Store) UpsertVoucher(ctx context.Context, v *entity.Voucher) (bool, error) {
	created := v.ID == ""
	if created {
		v.ID = uuid.NewString()
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to encode voucher %s: %w", v.ID, err)
	}
	var date any
	if v.Date != nil {
		date = v.Date.Format("2006-01-02")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vouchers (id, date, doc) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET date = excluded.date, doc = excluded.doc`,
		v.ID, date, string(doc))
	if err != nil {
		return false, err
	}
	return created, nil
}

// DeleteVoucher removes a voucher by ID and reports whether it existed.
func (s *Store) DeleteVoucher(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vouchers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteVouchers removes every voucher matching the query and returns the
// count removed.
func (s *Store) DeleteVouchers(ctx context.Context, q query.Query[query.VoucherAtom]) (int, error) {
	vouchers, err := s.SelectVouchers(ctx, q)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, v := range vouchers {
		ok, err := s.DeleteVoucher(ctx, v.ID)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func decodeVoucher(doc string) (*entity.Voucher, error) {
	var v entity.Voucher
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return nil, fmt.Errorf("failed to decode voucher: %w", err)
	}
	return &v, nil
}
