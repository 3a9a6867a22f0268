package distributed

import (
	"context"

	"github.com/zhanghe-dev/accountant/entity"
)

// UpdateAmortized reconciles every schedule item within the range against
// its linked voucher: existing vouchers are adjusted only where their
// details actually diverge from the expected amounts, missing vouchers are
// generated and linked (unless editOnly), and items that cannot be
// auto-reconciled are collected and returned for manual review. The pass
// never stops at the first problem.
//
// With collapsed set, generated vouchers are left undated.
func (acc *Accountant) UpdateAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, collapsed, editOnly bool) ([]*entity.AmortItem, error) {
	if a.Ignored() {
		return nil, nil
	}
	var failed []*entity.AmortItem
	for _, item := range a.Schedule {
		if item.Ignored() || !rng.Contains(item.Date) {
			continue
		}
		expected, err := amortVoucher(a, item, collapsed)
		if err != nil {
			return nil, err
		}
		ok, err := acc.updateItem(ctx, &item.ScheduleItemBase, expected, editOnly)
		if err != nil {
			return nil, err
		}
		if !ok {
			failed = append(failed, item)
		}
	}
	return failed, nil
}

// UpdateAsset is UpdateAmortized's counterpart for asset schedules.
// Acquisition items are always entered by hand and are skipped.
func (acc *Accountant) UpdateAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, collapsed, editOnly bool) ([]entity.AssetItem, error) {
	if a.Ignored() {
		return nil, nil
	}
	var failed []entity.AssetItem
	for _, item := range a.Schedule {
		base := item.Base()
		if base.Ignored() || !rng.Contains(base.Date) {
			continue
		}
		expected, err := assetVoucher(a, item, collapsed)
		if err != nil {
			return nil, err
		}
		if expected == nil {
			continue
		}
		ok, err := acc.updateItem(ctx, base, expected, editOnly)
		if err != nil {
			return nil, err
		}
		if !ok {
			failed = append(failed, item)
		}
	}
	return failed, nil
}

// updateItem reconciles one schedule item against its expected voucher.
// It reports false when the item needs manual attention; errors are
// reserved for storage failures.
func (acc *Accountant) updateItem(ctx context.Context, item *entity.ScheduleItemBase, expected *entity.Voucher, editOnly bool) (bool, error) {
	if item.VoucherID == "" {
		if editOnly {
			return false, nil
		}
		expected.Canonicalize()
		if _, err := acc.store.UpsertVoucher(ctx, expected); err != nil {
			return false, err
		}
		item.VoucherID = expected.ID
		return true, nil
	}

	v, err := acc.store.SelectVoucher(ctx, item.VoucherID)
	if err != nil {
		return false, err
	}
	if v == nil {
		// Dangling link; Reset is the tool for those.
		return false, nil
	}

	modified := false
	if !entity.SameDay(v.Date, expected.Date) {
		if !editOnly {
			return false, nil
		}
		v.Date = expected.Date
		modified = true
	}
	if v.Type != expected.Type {
		v.Type = expected.Type
		modified = true
	}
	for _, ed := range expected.Details {
		ok, changed := updateDetail(v, ed)
		if !ok {
			return false, nil
		}
		modified = modified || changed
	}
	if modified {
		v.Canonicalize()
		if _, err := acc.store.UpsertVoucher(ctx, v); err != nil {
			return false, err
		}
	}
	return true, nil
}

// updateDetail reconciles one expected detail against the voucher's actual
// legs. Exactly one same-shape leg may be adjusted in place; a missing leg
// is added only when the intended amount is non-zero; more than one
// same-shape candidate is ambiguous and fails hard rather than guessing.
func updateDetail(v *entity.Voucher, expected *entity.VoucherDetail) (ok, modified bool) {
	var match *entity.VoucherDetail
	for _, d := range v.Details {
		if d.SameShape(expected) {
			if match != nil {
				return false, false
			}
			match = d
		}
	}
	want := expected.FundOf()
	if match == nil {
		if entity.IsZero(want) {
			return true, false
		}
		v.Details = append(v.Details, expected.Clone())
		return true, true
	}
	if match.Fund != nil && entity.FundEqual(*match.Fund, want) {
		return true, false
	}
	match.Fund = entity.FundPtr(want)
	return true, true
}
