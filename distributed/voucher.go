package distributed

import (
	"fmt"

	"github.com/zhanghe-dev/accountant/entity"
)

// amortVoucher builds the voucher an amortization item is expected to be
// registered against: the template with every fund scaled so that the sum
// of its positive legs equals the item's amount. With collapsed set the
// voucher is left undated.
func amortVoucher(a *entity.Amortized, item *entity.AmortItem, collapsed bool) (*entity.Voucher, error) {
	if a.Template == nil {
		return nil, fmt.Errorf("amortization %q has no template voucher", a.Name)
	}
	var positive float64
	for _, d := range a.Template.Details {
		if d.Fund == nil {
			return nil, fmt.Errorf("amortization %q: template detail without a fund", a.Name)
		}
		if entity.IsNonNegative(*d.Fund) {
			positive += *d.Fund
		}
	}
	if entity.IsZero(positive) {
		return nil, fmt.Errorf("amortization %q: template has no positive leg", a.Name)
	}

	v := a.Template.Clone()
	v.ID = ""
	v.Type = entity.Amortization
	v.Date = item.Date
	if collapsed {
		v.Date = nil
	}
	scale := item.Amount / positive
	for _, d := range v.Details {
		f := *d.Fund * scale
		d.Fund = &f
	}
	v.Canonicalize()
	return v, nil
}

// assetVoucher builds the voucher an asset schedule item is expected to be
// registered against, or nil for acquisition items, which are always
// entered by hand. Every generated leg carries the asset's ID as its
// remark; that is how stored vouchers are tied back to the asset.
func assetVoucher(a *entity.Asset, item entity.AssetItem, collapsed bool) (*entity.Voucher, error) {
	date := item.Base().Date
	if collapsed {
		date = nil
	}
	leg := func(title, subTitle int, fund float64) *entity.VoucherDetail {
		d := &entity.VoucherDetail{
			User:     a.User,
			Currency: a.Currency,
			Title:    title,
			Fund:     entity.FundPtr(fund),
			Remark:   entity.StringPtr(a.ID),
		}
		if subTitle != 0 {
			d.SubTitle = entity.IntPtr(subTitle)
		}
		return d
	}

	var voucher *entity.Voucher
	switch v := item.(type) {
	case *entity.AcquisitionItem:
		return nil, nil
	case *entity.DepreciateItem:
		voucher = &entity.Voucher{
			Date:     date,
			Type:     entity.Depreciation,
			Currency: a.Currency,
			Details: []*entity.VoucherDetail{
				leg(a.DepreciationExpenseTitle, a.DepreciationExpenseSub, v.Amount),
				leg(a.DepreciationTitle, 0, -v.Amount),
			},
		}
	case *entity.DevalueItem:
		voucher = &entity.Voucher{
			Date:     date,
			Type:     entity.Devalue,
			Currency: a.Currency,
			Details: []*entity.VoucherDetail{
				leg(a.DevaluationExpenseTitle, a.DevaluationExpenseSub, v.Amount),
				leg(a.DevaluationTitle, 0, -v.Amount),
			},
		}
	case *entity.DispositionItem:
		orig, dep, dev := accumulatedBefore(a, item)
		voucher = &entity.Voucher{
			Date:     date,
			Type:     entity.Ordinary,
			Currency: a.Currency,
			Details: []*entity.VoucherDetail{
				leg(a.Title, 0, -orig),
				leg(a.DepreciationTitle, 0, dep),
				leg(a.DevaluationTitle, 0, dev),
				leg(entity.DispositionClearingTitle, 0, orig-dep-dev),
			},
		}
	default:
		return nil, fmt.Errorf("asset %q: unknown schedule item kind %T", a.Name, item)
	}
	voucher.Canonicalize()
	return voucher, nil
}

// accumulatedBefore sums acquisitions, depreciations and devaluations over
// the schedule up to (excluding) the given item. The disposition voucher
// reverses exactly these balances.
func accumulatedBefore(a *entity.Asset, until entity.AssetItem) (orig, dep, dev float64) {
	for _, it := range a.Schedule {
		if it == until {
			break
		}
		switch v := it.(type) {
		case *entity.AcquisitionItem:
			orig += v.OrigValue
		case *entity.DepreciateItem:
			dep += v.Amount
		case *entity.DevalueItem:
			dev += v.Amount
		case *entity.DispositionItem:
			orig, dep, dev = 0, 0, 0
		}
	}
	return orig, dep, dev
}
