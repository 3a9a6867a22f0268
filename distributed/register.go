package distributed

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
)

// RegisterAmortized scans stored vouchers that match the caller's query and
// reference the amortization's template accounts, and binds each one whose
// details structurally match the template (field by field, funds ignored)
// to the single unbound schedule item sharing its date within the range.
//
// Binding happens only for one-to-one pairs. Vouchers with zero or several
// candidate items, several vouchers competing for the same item, and
// vouchers whose shape diverges from the template are all returned for
// manual resolution instead of being bound by guesswork.
func (acc *Accountant) RegisterAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	if a.Template == nil {
		return nil, fmt.Errorf("amortization %q has no template voucher", a.Name)
	}
	if a.Ignored() {
		return nil, nil
	}

	// Stored vouchers are canonicalized (currencies filled in, details
	// sorted); bring the template to the same form before comparing shapes.
	template := a.Template.Clone()
	template.Canonicalize()

	vouchers, err := acc.store.SelectVouchers(ctx, query.Intersect(q, templateRefQuery(template)))
	if err != nil {
		return nil, err
	}

	linked := linkedVoucherIDs(amortBases(a.Schedule))
	var remaining []*entity.Voucher
	var pairings []voucherCandidates
	for _, v := range vouchers {
		if linked[v.ID] {
			continue
		}
		if !sameTemplateShape(template, v) {
			remaining = append(remaining, v)
			continue
		}
		var items []*entity.ScheduleItemBase
		for _, item := range a.Schedule {
			if item.VoucherID != "" || item.Ignored() {
				continue
			}
			if rng.Contains(item.Date) && entity.SameDay(item.Date, v.Date) {
				items = append(items, &item.ScheduleItemBase)
			}
		}
		pairings = append(pairings, voucherCandidates{voucher: v, items: items})
	}
	return append(remaining, bindOneToOne(pairings)...), nil
}

// RegisterAsset binds stored vouchers to asset schedule items. A voucher
// qualifies for an item kind through the leg it carries against the asset's
// accounts (tagged with the asset's ID in the remark): the asset title with
// a positive fund for acquisitions and a negative one for dispositions, the
// accumulated depreciation or devaluation titles for the periodic items.
// As with RegisterAmortized, only one-to-one pairings are bound.
func (acc *Accountant) RegisterAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	if a.Ignored() {
		return nil, nil
	}
	vouchers, err := acc.store.SelectVouchers(ctx, query.Intersect(q, assetRefQuery(a)))
	if err != nil {
		return nil, err
	}

	linked := linkedVoucherIDs(assetBases(a.Schedule))
	var pairings []voucherCandidates
	for _, v := range vouchers {
		if linked[v.ID] {
			continue
		}
		var items []*entity.ScheduleItemBase
		for _, item := range a.Schedule {
			base := item.Base()
			if base.VoucherID != "" || base.Ignored() {
				continue
			}
			if !rng.Contains(base.Date) || !entity.SameDay(base.Date, v.Date) {
				continue
			}
			if voucherFitsAssetItem(a, v, item) {
				items = append(items, base)
			}
		}
		pairings = append(pairings, voucherCandidates{voucher: v, items: items})
	}
	return bindOneToOne(pairings), nil
}

// voucherCandidates pairs an unlinked voucher with every schedule item it
// could bind to.
type voucherCandidates struct {
	voucher *entity.Voucher
	items   []*entity.ScheduleItemBase
}

// bindOneToOne links each voucher whose pairing is unique in both directions:
// exactly one candidate item, and that item claimed by no other voucher.
// Every other voucher is returned unbound.
func bindOneToOne(pairings []voucherCandidates) []*entity.Voucher {
	claims := make(map[*entity.ScheduleItemBase]int)
	for _, p := range pairings {
		for _, item := range p.items {
			claims[item]++
		}
	}
	var remaining []*entity.Voucher
	for _, p := range pairings {
		if len(p.items) == 1 && claims[p.items[0]] == 1 {
			p.items[0].VoucherID = p.voucher.ID
			continue
		}
		remaining = append(remaining, p.voucher)
	}
	return remaining
}

// templateRefQuery matches vouchers carrying at least one leg on any of the
// template's accounts, with the template's content and remark tags.
func templateRefQuery(template *entity.Voucher) query.Query[query.VoucherAtom] {
	var atoms []query.Query[query.VoucherAtom]
	for _, d := range template.Details {
		da := &query.DetailAtom{Title: entity.IntPtr(d.Title)}
		if d.SubTitle != nil {
			da.SubTitle = entity.IntPtr(*d.SubTitle)
		} else {
			// Absent subtitle on the template means the leg must have none.
			da.SubTitle = entity.IntPtr(0)
		}
		if d.Content != nil {
			da.Content = entity.StringPtr(*d.Content)
		} else {
			da.Content = entity.StringPtr("")
		}
		atoms = append(atoms, query.Atom(&query.VoucherAtom{Details: query.Atom(da)}))
	}
	return query.Union(atoms...)
}

// assetRefQuery matches vouchers with a leg on any of the asset's accounts
// whose remark carries the asset's ID.
func assetRefQuery(a *entity.Asset) query.Query[query.VoucherAtom] {
	titles := []int{a.Title, a.DepreciationTitle, a.DevaluationTitle}
	var atoms []query.Query[query.VoucherAtom]
	for _, title := range titles {
		atoms = append(atoms, query.Atom(&query.VoucherAtom{
			Details: query.Atom(&query.DetailAtom{
				Title:  entity.IntPtr(title),
				Remark: entity.StringPtr(a.ID),
			}),
		}))
	}
	return query.Union(atoms...)
}

// voucherFitsAssetItem reports whether the voucher carries the leg an item
// of this kind would have generated.
func voucherFitsAssetItem(a *entity.Asset, v *entity.Voucher, item entity.AssetItem) bool {
	hasLeg := func(title int, wantDebit bool) bool {
		for _, d := range v.Details {
			if d.Title != title || d.Fund == nil {
				continue
			}
			if d.Remark == nil || *d.Remark != a.ID {
				continue
			}
			if wantDebit == entity.IsNonNegative(*d.Fund) {
				return true
			}
		}
		return false
	}
	switch item.(type) {
	case *entity.AcquisitionItem:
		return hasLeg(a.Title, true)
	case *entity.DepreciateItem:
		return hasLeg(a.DepreciationTitle, false)
	case *entity.DevalueItem:
		return hasLeg(a.DevaluationTitle, false)
	case *entity.DispositionItem:
		return hasLeg(a.Title, false)
	default:
		return false
	}
}

// sameTemplateShape reports whether the voucher's details pair up one to
// one with the template's by shape, fund values ignored.
func sameTemplateShape(template, v *entity.Voucher) bool {
	if len(template.Details) != len(v.Details) {
		return false
	}
	ts := sortedByShape(template.Details)
	vs := sortedByShape(v.Details)
	for i := range ts {
		if !ts[i].SameShape(vs[i]) {
			return false
		}
	}
	return true
}

func sortedByShape(details []*entity.VoucherDetail) []*entity.VoucherDetail {
	out := make([]*entity.VoucherDetail, len(details))
	copy(out, details)
	slices.SortStableFunc(out, entity.CompareDetails)
	return out
}

func amortBases(schedule []*entity.AmortItem) []*entity.ScheduleItemBase {
	out := make([]*entity.ScheduleItemBase, len(schedule))
	for i, item := range schedule {
		out[i] = &item.ScheduleItemBase
	}
	return out
}

func assetBases(schedule []entity.AssetItem) []*entity.ScheduleItemBase {
	out := make([]*entity.ScheduleItemBase, len(schedule))
	for i, item := range schedule {
		out[i] = item.Base()
	}
	return out
}

func linkedVoucherIDs(bases []*entity.ScheduleItemBase) map[string]bool {
	linked := make(map[string]bool)
	for _, b := range bases {
		if b.VoucherID != "" {
			linked[b.VoucherID] = true
		}
	}
	return linked
}
