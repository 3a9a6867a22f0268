package distributed_test

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zhanghe-dev/accountant/distributed"
	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage/memory"
)

func rentTemplate() *entity.Voucher {
	return &entity.Voucher{
		Details: []*entity.VoucherDetail{
			{Title: 6602, Content: entity.StringPtr("rent"), Fund: entity.FundPtr(1)},
			{Title: 1532, Fund: entity.FundPtr(-1)},
		},
	}
}

func rentVoucher(date string, amount float64) *entity.Voucher {
	v := &entity.Voucher{
		Date: entity.MustDate(date),
		Type: entity.Amortization,
		Details: []*entity.VoucherDetail{
			{Title: 6602, Content: entity.StringPtr("rent"), Fund: entity.FundPtr(amount)},
			{Title: 1532, Fund: entity.FundPtr(-amount)},
		},
	}
	v.Canonicalize()
	return v
}

func storedAmortized(t *testing.T) (*memory.Store, *distributed.Accountant, *entity.Amortized) {
	t.Helper()
	store := memory.New()
	a := amortized("2024-01-01", 90, 90, entity.LastDayOfMonth)
	a.ID = "amort-1"
	a.Template = rentTemplate()
	assert.NoError(t, distributed.Amortize(a))
	return store, distributed.NewAccountant(store), a
}

func TestRegisterAmortizedBindsUniqueCandidate(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	v := rentVoucher("2024-01-31", 31)
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(remaining))
	assert.Equal(t, v.ID, a.Schedule[0].VoucherID)
	assert.Equal(t, "", a.Schedule[1].VoucherID)
}

func TestRegisterAmortizedAmbiguityReturnsVoucher(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	// Two unbound items forced onto the same day make any match ambiguous.
	a.Schedule[1].Date = a.Schedule[0].Date

	v := rentVoucher("2024-01-31", 31)
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, "", a.Schedule[0].VoucherID)
	assert.Equal(t, "", a.Schedule[1].VoucherID)
}

func TestRegisterAmortizedCompetingVouchersStayUnbound(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	// Two identical vouchers on the same day compete for the single January
	// item; neither side of the tie may be picked silently.
	first := rentVoucher("2024-01-31", 31)
	second := rentVoucher("2024-01-31", 31)
	for _, v := range []*entity.Voucher{first, second} {
		_, err := store.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(remaining))
	for _, item := range a.Schedule {
		assert.Equal(t, "", item.VoucherID)
	}
}

func TestRegisterAmortizedShapeMismatchReturnsVoucher(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	// Same accounts but an extra leg: references the template accounts yet
	// does not pair up with the template shape.
	v := rentVoucher("2024-01-31", 31)
	v.Details = append(v.Details, &entity.VoucherDetail{Title: 2241, Fund: entity.FundPtr(0)})
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, "", a.Schedule[0].VoucherID)
}

func TestRegisterAmortizedSkipsAlreadyLinked(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	v := rentVoucher("2024-01-31", 31)
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)
	a.Schedule[0].VoucherID = v.ID

	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(remaining))
}

func TestRegisterAmortizedRequiresTemplate(t *testing.T) {
	_, acc, a := storedAmortized(t)
	a.Template = nil
	_, err := acc.RegisterAmortized(context.Background(), a, nil, nil)
	assert.Error(t, err)
}

func TestRegisterAmortizedHonorsRange(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	v := rentVoucher("2024-01-31", 31)
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	// A range excluding January leaves no candidate item.
	rng := entity.RangeBetween(entity.MustDate("2024-02-01"), nil, false)
	remaining, err := acc.RegisterAmortized(ctx, a, rng, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, "", a.Schedule[0].VoucherID)
}

func storedAsset(t *testing.T) (*memory.Store, *distributed.Accountant, *entity.Asset) {
	t.Helper()
	store := memory.New()
	a := asset("2023-01-15", 1200, 1, entity.StraightLine)
	assert.NoError(t, distributed.Depreciate(a))
	return store, distributed.NewAccountant(store), a
}

func depreciationVoucher(a *entity.Asset, date string, amount float64) *entity.Voucher {
	v := &entity.Voucher{
		Date: entity.MustDate(date),
		Type: entity.Depreciation,
		Details: []*entity.VoucherDetail{
			{Title: a.DepreciationExpenseTitle, Fund: entity.FundPtr(amount), Remark: entity.StringPtr(a.ID)},
			{Title: a.DepreciationTitle, Fund: entity.FundPtr(-amount), Remark: entity.StringPtr(a.ID)},
		},
	}
	v.Canonicalize()
	return v
}

func TestRegisterAssetBindsDepreciationVoucher(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAsset(t)

	v := depreciationVoucher(a, "2023-03-31", 100)
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAsset(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(remaining))

	// The March item (acquisition first, then the monthly installments) got
	// the voucher; everything else stays unbound.
	bound := 0
	for _, it := range a.Schedule {
		if it.Base().VoucherID == v.ID {
			bound++
			assert.Equal(t, "2023-03-31", it.Base().Date.String())
		}
	}
	assert.Equal(t, 1, bound)
}

func TestRegisterAssetCompetingVouchersStayUnbound(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAsset(t)

	// Two identical depreciation vouchers claim the same March item.
	first := depreciationVoucher(a, "2023-03-31", 100)
	second := depreciationVoucher(a, "2023-03-31", 100)
	for _, v := range []*entity.Voucher{first, second} {
		_, err := store.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	remaining, err := acc.RegisterAsset(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(remaining))
	for _, it := range a.Schedule {
		assert.Equal(t, "", it.Base().VoucherID)
	}
}

func TestRegisterAssetIgnoresUntaggedVouchers(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAsset(t)

	// Right accounts and date, but no asset ID in the remarks.
	v := &entity.Voucher{
		Date: entity.MustDate("2023-03-31"),
		Type: entity.Depreciation,
		Details: []*entity.VoucherDetail{
			{Title: a.DepreciationExpenseTitle, Fund: entity.FundPtr(100)},
			{Title: a.DepreciationTitle, Fund: entity.FundPtr(-100)},
		},
	}
	v.Canonicalize()
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAsset(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(remaining))
	for _, it := range a.Schedule {
		assert.Equal(t, "", it.Base().VoucherID)
	}
}

func TestRegisterAssetWrongDirectionReturnsVoucher(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAsset(t)

	// A debit on the accumulated depreciation account fits no item kind.
	v := &entity.Voucher{
		Date: entity.MustDate("2023-03-31"),
		Details: []*entity.VoucherDetail{
			{Title: a.DepreciationTitle, Fund: entity.FundPtr(100), Remark: entity.StringPtr(a.ID)},
			{Title: 1001, Fund: entity.FundPtr(-100)},
		},
	}
	v.Canonicalize()
	_, err := store.UpsertVoucher(ctx, v)
	assert.NoError(t, err)

	remaining, err := acc.RegisterAsset(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(remaining))
}

func TestRegisterIgnoredEntitiesAreNoops(t *testing.T) {
	ctx := context.Background()
	_, acc, a := storedAmortized(t)
	a.Remark = entity.IgnoranceMark
	remaining, err := acc.RegisterAmortized(ctx, a, nil, nil)
	assert.NoError(t, err)
	assert.Zero(t, remaining)

	_, accA, as := storedAsset(t)
	as.Remark = entity.IgnoranceMark
	remaining2, err := accA.RegisterAsset(ctx, as, nil, nil)
	assert.NoError(t, err)
	assert.Zero(t, remaining2)
}

func TestRegisterAmortizedCallerQueryNarrows(t *testing.T) {
	ctx := context.Background()
	store, acc, a := storedAmortized(t)

	jan := rentVoucher("2024-01-31", 31)
	feb := rentVoucher("2024-02-29", 29)
	for _, v := range []*entity.Voucher{jan, feb} {
		_, err := store.UpsertVoucher(ctx, v)
		assert.NoError(t, err)
	}

	// The caller's query restricts scanning to February.
	febOnly := query.Atom(&query.VoucherAtom{
		Range: entity.RangeBetween(entity.MustDate("2024-02-01"), entity.MustDate("2024-02-29"), false),
	})
	remaining, err := acc.RegisterAmortized(ctx, a, nil, febOnly)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(remaining))
	assert.Equal(t, "", a.Schedule[0].VoucherID)
	assert.Equal(t, feb.ID, a.Schedule[1].VoucherID)
}
