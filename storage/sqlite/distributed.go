package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
)

// SelectAsset returns an asset by ID, or nil when absent.
func (s *Store) SelectAsset(ctx context.Context, id string) (*entity.Asset, error) {
	doc, err := s.selectDoc(ctx, "assets", id)
	if err != nil || doc == "" {
		return nil, err
	}
	var a entity.Asset
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", id, err)
	}
	return &a, nil
}

// SelectAssets scans every asset and filters through the matcher.
func (s *Store) SelectAssets(ctx context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Asset, error) {
	docs, err := s.selectDocs(ctx, "assets")
	if err != nil {
		return nil, err
	}
	var out []*entity.Asset
	for _, doc := range docs {
		var a entity.Asset
		if err := json.Unmarshal([]byte(doc), &a); err != nil {
			return nil, fmt.Errorf("failed to decode asset: %w", err)
		}
		if query.DistributedMatches(&a, q) {
			out = append(out, &a)
		}
	}
	return out, nil
}

// UpsertAsset persists an asset, assigning a fresh UUID when absent.
func (s *Store) UpsertAsset(ctx context.Context, a *entity.Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return s.upsertDoc(ctx, "assets", a.ID, a)
}

// DeleteAsset removes an asset by ID and reports whether it existed.
func (s *Store) DeleteAsset(ctx context.Context, id string) (bool, error) {
	return s.deleteDoc(ctx, "assets", id)
}

// SelectAmortized returns an amortization by ID, or nil when absent.
func (s *Store) SelectAmortized(ctx context.Context, id string) (*entity.Amortized, error) {
	doc, err := s.selectDoc(ctx, "amortizeds", id)
	if err != nil || doc == "" {
		return nil, err
	}
	var a entity.Amortized
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("failed to decode amortization %s: %w", id, err)
	}
	return &a, nil
}

// SelectAmortizeds scans every amortization and filters through the matcher.
func (s *Store) SelectAmortizeds(ctx context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Amortized, error) {
	docs, err := s.selectDocs(ctx, "amortizeds")
	if err != nil {
		return nil, err
	}
	var out []*entity.Amortized
	for _, doc := range docs {
		var a entity.Amortized
		if err := json.Unmarshal([]byte(doc), &a); err != nil {
			return nil, fmt.Errorf("failed to decode amortization: %w", err)
		}
		if query.DistributedMatches(&a, q) {
			out = append(out, &a)
		}
	}
	return out, nil
}

// UpsertAmortized persists an amortization, assigning a fresh UUID when
// absent.
func (s *Store) UpsertAmortized(ctx context.Context, a *entity.Amortized) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return s.upsertDoc(ctx, "amortizeds", a.ID, a)
}

// DeleteAmortized removes an amortization by ID and reports whether it
// existed.
func (s *Store) DeleteAmortized(ctx context.Context, id string) (bool, error) {
	return s.deleteDoc(ctx, "amortizeds", id)
}

func (s *Store) selectDoc(ctx context.Context, table, id string) (string, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM `+table+` WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return doc, err
}

func (s *Store) selectDocs(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) upsertDoc(ctx context.Context, table, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", table, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, doc) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		id, string(doc))
	return err
}

func (s *Store) deleteDoc(ctx context.Context, table, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
