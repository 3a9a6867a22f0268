package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/subtotal"
)

func TestParseRange(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		rng, err := parseRange("", "")
		assert.NoError(t, err)
		assert.Zero(t, rng.Start)
		assert.Zero(t, rng.End)
		assert.True(t, rng.Nullable)
	})

	t.Run("StartExcludesUndated", func(t *testing.T) {
		rng, err := parseRange("2024-01-01", "")
		assert.NoError(t, err)
		assert.False(t, rng.Nullable)
		assert.True(t, rng.Contains(entity.MustDate("2024-06-01")))
		assert.False(t, rng.Contains(nil))
	})

	t.Run("Bad", func(t *testing.T) {
		_, err := parseRange("not-a-date", "")
		assert.Error(t, err)
	})
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels("title, month")
	assert.NoError(t, err)
	assert.Equal(t, []subtotal.Level{subtotal.LevelTitle, subtotal.LevelMonth}, levels)

	_, err = parseLevels("bogus")
	assert.Error(t, err)
}

func TestOpenBookSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "book.json")
	globals := &Globals{Snapshot: path}

	// A missing snapshot opens as an empty book.
	b, err := globals.openBook(ctx)
	assert.NoError(t, err)

	v := &entity.Voucher{
		Date: entity.MustDate("2024-01-01"),
		Details: []*entity.VoucherDetail{
			{Title: 6601, Fund: entity.FundPtr(10)},
			{Title: 1001, Fund: entity.FundPtr(-10)},
		},
	}
	_, err = b.session.Upsert(ctx, v)
	assert.NoError(t, err)
	assert.NoError(t, b.close(ctx))

	// Closing wrote the snapshot; reopening sees the voucher.
	_, err = os.Stat(path)
	assert.NoError(t, err)

	b, err = globals.openBook(ctx)
	assert.NoError(t, err)
	stored, err := b.session.Store().SelectVoucher(ctx, v.ID)
	assert.NoError(t, err)
	assert.NotZero(t, stored)
	assert.NoError(t, b.close(ctx))
}

func TestOpenBookRequiresTarget(t *testing.T) {
	globals := &Globals{}
	_, err := globals.openBook(context.Background())
	assert.Error(t, err)
}
