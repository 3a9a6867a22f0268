package memory_test

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
	"github.com/zhanghe-dev/accountant/storage/memory"
	"github.com/zhanghe-dev/accountant/subtotal"
)

func voucher(date string, title int, fund float64) *entity.Voucher {
	return &entity.Voucher{
		Date: entity.MustDate(date),
		Details: []*entity.VoucherDetail{
			{Title: title, Fund: entity.FundPtr(fund)},
			{Title: 1001, Fund: entity.FundPtr(-fund)},
		},
	}
}

func TestSelectVoucherAbsentIsNilNil(t *testing.T) {
	s := memory.New()
	v, err := s.SelectVoucher(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Zero(t, v)
}

func TestUpsertVoucherAssignsID(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	v := voucher("2024-01-01", 6601, 10)
	created, err := s.UpsertVoucher(ctx, v)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "", v.ID)

	v.Details[0].Fund = entity.FundPtr(20)
	created, err = s.UpsertVoucher(ctx, v)
	assert.NoError(t, err)
	assert.False(t, created)

	stored, err := s.SelectVoucher(ctx, v.ID)
	assert.NoError(t, err)
	assert.True(t, entity.FundEqual(20, stored.Details[0].FundOf()))
}

func TestStoredVouchersDoNotAliasCallerState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	v := voucher("2024-01-01", 6601, 10)
	_, err := s.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	// Mutating the caller's voucher after the upsert must not leak in.
	v.Details[0].Fund = entity.FundPtr(999)
	stored, err := s.SelectVoucher(ctx, v.ID)
	assert.NoError(t, err)
	assert.True(t, entity.FundEqual(10, stored.Details[0].FundOf()))

	// Mutating a returned voucher must not leak back either.
	stored.Details[0].Fund = entity.FundPtr(-1)
	again, err := s.SelectVoucher(ctx, v.ID)
	assert.NoError(t, err)
	assert.True(t, entity.FundEqual(10, again.Details[0].FundOf()))
}

func TestSelectVouchersSortsUndatedFirst(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	late := voucher("2024-03-01", 6601, 1)
	early := voucher("2024-01-01", 6601, 2)
	undated := &entity.Voucher{Details: []*entity.VoucherDetail{
		{Title: 1001, Fund: entity.FundPtr(3)},
		{Title: 4101, Fund: entity.FundPtr(-3)},
	}}
	for _, v := range []*entity.Voucher{late, early, undated} {
		_, err := s.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	out, err := s.SelectVouchers(ctx, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(out))
	assert.Zero(t, out[0].Date)
	assert.Equal(t, early.ID, out[1].ID)
	assert.Equal(t, late.ID, out[2].ID)
}

func TestDeleteVouchersByQuery(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	keep := voucher("2024-01-01", 6601, 1)
	drop1 := voucher("2024-02-01", 6602, 2)
	drop2 := voucher("2024-02-15", 6602, 3)
	for _, v := range []*entity.Voucher{keep, drop1, drop2} {
		_, err := s.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	q := query.Atom(&query.VoucherAtom{
		Details: query.Atom(&query.DetailAtom{Title: entity.IntPtr(6602)}),
	})
	count, err := s.DeleteVouchers(ctx, q)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	out, err := s.SelectVouchers(ctx, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))
	assert.Equal(t, keep.ID, out[0].ID)

	existed, err := s.DeleteVoucher(ctx, keep.ID)
	assert.NoError(t, err)
	assert.True(t, existed)
	existed, err = s.DeleteVoucher(ctx, keep.ID)
	assert.NoError(t, err)
	assert.False(t, existed)
}

func TestAssetRoundTripIsDeep(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &entity.Asset{
		Name:   "laptop",
		Date:   entity.MustDate("2023-06-01"),
		Value:  1200,
		Life:   1,
		Method: entity.StraightLine,
		Schedule: entity.AssetSchedule{
			&entity.AcquisitionItem{
				ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2023-06-01")},
				OrigValue:        1200,
			},
		},
	}
	assert.NoError(t, s.UpsertAsset(ctx, a))
	assert.NotEqual(t, "", a.ID)

	a.Schedule[0].Base().VoucherID = "local-only"
	stored, err := s.SelectAsset(ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, "", stored.Schedule[0].Base().VoucherID)

	absent, err := s.SelectAsset(ctx, "missing")
	assert.NoError(t, err)
	assert.Zero(t, absent)
}

func TestSelectAmortizedsByName(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	rent := &entity.Amortized{Name: "rent", Date: entity.MustDate("2024-01-01")}
	insurance := &entity.Amortized{Name: "insurance", Date: entity.MustDate("2024-02-01")}
	assert.NoError(t, s.UpsertAmortized(ctx, rent))
	assert.NoError(t, s.UpsertAmortized(ctx, insurance))

	out, err := s.SelectAmortizeds(ctx, query.Atom(&query.DistributedAtom{Name: entity.StringPtr("rent")}))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))
	assert.Equal(t, rent.ID, out[0].ID)
}

func TestGroupedSelectMatchesManualBuild(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for _, v := range []*entity.Voucher{
		voucher("2024-01-05", 6601, 100),
		voucher("2024-01-20", 6601, 50),
		voucher("2024-02-10", 6602, 30),
	} {
		_, err := s.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	gq := storage.GroupedQuery{
		Details:  query.Atom(&query.DetailAtom{Title: entity.IntPtr(6601)}),
		Subtotal: &subtotal.Spec{Levels: []subtotal.Level{subtotal.LevelMonth}},
	}
	root, err := s.SelectVoucherDetailsGrouped(ctx, gq)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(root.Items))
	assert.True(t, entity.FundEqual(150, root.Items[0].Fund))
	assert.True(t, entity.FundEqual(150, root.Fund))
}
