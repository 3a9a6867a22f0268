package distributed

import (
	"context"
	"fmt"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
)

// ResetAmortized severs schedule items from their vouchers within the
// range. Soft clears only dangling links; Mixed also deletes the vouchers
// that still exist. Hard is asset-only and is a configuration error here.
// Items carrying the ignorance mark are never touched. Returns the number
// of links cleared.
func (acc *Accountant) ResetAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, mode ResetMode) (int, error) {
	if mode == ResetHard {
		return 0, fmt.Errorf("amortization %q: hard reset applies to assets only", a.Name)
	}
	return acc.resetBases(ctx, amortBases(a.Schedule), rng, mode)
}

// ResetAsset severs asset schedule items from their vouchers within the
// range. Hard additionally deletes every stored depreciation or devaluation
// voucher tagged with the asset's ID, linked or not.
func (acc *Accountant) ResetAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, mode ResetMode) (int, error) {
	if mode == ResetHard {
		cleared, err := acc.resetBases(ctx, assetBases(a.Schedule), rng, ResetMixed)
		if err != nil {
			return cleared, err
		}
		dep := entity.Depreciation
		dev := entity.Devalue
		q := query.Intersect(
			query.Union(
				query.Atom(&query.VoucherAtom{Type: &dep}),
				query.Atom(&query.VoucherAtom{Type: &dev}),
			),
			assetRefQuery(a),
		)
		if _, err := acc.store.DeleteVouchers(ctx, q); err != nil {
			return cleared, err
		}
		return cleared, nil
	}
	return acc.resetBases(ctx, assetBases(a.Schedule), rng, mode)
}

func (acc *Accountant) resetBases(ctx context.Context, bases []*entity.ScheduleItemBase, rng *entity.DateRange, mode ResetMode) (int, error) {
	switch mode {
	case ResetSoft, ResetMixed:
	default:
		return 0, fmt.Errorf("unknown reset mode %d", mode)
	}
	cleared := 0
	for _, b := range bases {
		if b.VoucherID == "" || b.Ignored() || !rng.Contains(b.Date) {
			continue
		}
		v, err := acc.store.SelectVoucher(ctx, b.VoucherID)
		if err != nil {
			return cleared, err
		}
		switch {
		case v == nil:
			b.VoucherID = ""
			cleared++
		case mode == ResetMixed:
			if _, err := acc.store.DeleteVoucher(ctx, b.VoucherID); err != nil {
				return cleared, err
			}
			b.VoucherID = ""
			cleared++
		}
	}
	return cleared, nil
}
