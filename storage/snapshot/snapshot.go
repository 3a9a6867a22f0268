// Package snapshot loads and saves a whole book as a single JSON document.
// It backs the memory store for CLI runs and for the web server, which
// re-loads the snapshot whenever the file changes on disk.
//
// The snapshot format is a plain JSON object with three arrays:
//
//	{
//	  "vouchers":     [ ... ],
//	  "assets":       [ ... ],
//	  "amortizeds":   [ ... ]
//	}
//
// Asset schedules encode their item variants as a tagged union with a
// "kind" discriminant (see entity.AssetSchedule).
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/storage/memory"
)

// Book is the on-disk shape of a snapshot.
type Book struct {
	Vouchers   []*entity.Voucher   `json:"vouchers,omitempty"`
	Assets     []*entity.Asset     `json:"assets,omitempty"`
	Amortizeds []*entity.Amortized `json:"amortizeds,omitempty"`
}

// Load reads a snapshot file into a fresh memory store.
func Load(ctx context.Context, path string) (*memory.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	store := memory.New()
	for _, v := range book.Vouchers {
		if _, err := store.UpsertVoucher(ctx, v); err != nil {
			return nil, err
		}
	}
	for _, a := range book.Assets {
		if err := store.UpsertAsset(ctx, a); err != nil {
			return nil, err
		}
	}
	for _, a := range book.Amortizeds {
		if err := store.UpsertAmortized(ctx, a); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Save writes the whole store back to a snapshot file.
func Save(ctx context.Context, path string, store *memory.Store) error {
	vouchers, err := store.SelectVouchers(ctx, nil)
	if err != nil {
		return err
	}
	assets, err := store.SelectAssets(ctx, nil)
	if err != nil {
		return err
	}
	amortizeds, err := store.SelectAmortizeds(ctx, nil)
	if err != nil {
		return err
	}
	book := Book{Vouchers: vouchers, Assets: assets, Amortizeds: amortizeds}
	data, err := json.MarshalIndent(&book, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}
