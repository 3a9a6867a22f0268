package query

import (
	"github.com/zhanghe-dev/accountant/entity"
)

// Direction constrains the sign of a detail's fund.
type Direction int

const (
	// AnyDirection leaves the fund sign unconstrained.
	AnyDirection Direction = 0
	// DebitOnly requires a fund that is not meaningfully negative.
	DebitOnly Direction = 1
	// CreditOnly requires a fund that is not meaningfully positive.
	CreditOnly Direction = -1
)

// DetailAtom is a sparse conjunctive pattern over voucher details: only the
// fields set on the filter side are checked, so a zero-valued atom matches
// every detail.
//
// Two fields carry special encodings:
//   - SubTitle set to 0 means "the detail must have no subtitle", not a
//     literal subtitle of zero.
//   - Content or Remark set to the empty string means "must be absent on
//     the detail", distinguishing "don't care" (nil) from "must be empty".
type DetailAtom struct {
	User     *string
	Currency *string
	Title    *int
	SubTitle *int
	Content  *string
	Remark   *string
	Fund     *float64
	Dir      Direction
}

// MatchDetail reports whether a detail satisfies the atom. A nil atom
// matches everything.
func MatchDetail(d *entity.VoucherDetail, a *DetailAtom) bool {
	if a == nil {
		return true
	}
	if a.User != nil && d.User != *a.User {
		return false
	}
	if a.Currency != nil && d.CurrencyOf("") != *a.Currency {
		return false
	}
	if a.Title != nil && d.Title != *a.Title {
		return false
	}
	if a.SubTitle != nil {
		if *a.SubTitle == 0 {
			// "No subtitle", not subtitle zero.
			if d.SubTitle != nil {
				return false
			}
		} else if d.SubTitle == nil || *d.SubTitle != *a.SubTitle {
			return false
		}
	}
	if !matchOptionalString(d.Content, a.Content) {
		return false
	}
	if !matchOptionalString(d.Remark, a.Remark) {
		return false
	}
	if a.Fund != nil {
		if d.Fund == nil || !entity.FundEqual(*d.Fund, *a.Fund) {
			return false
		}
	}
	switch a.Dir {
	case AnyDirection:
	case DebitOnly:
		if d.Fund == nil || !entity.IsNonNegative(*d.Fund) {
			return false
		}
	case CreditOnly:
		if d.Fund == nil || !entity.IsNonPositive(*d.Fund) {
			return false
		}
	}
	return true
}

// VoucherAtom is a sparse pattern over whole vouchers, optionally combined
// with a detail-level query. ForAll switches the detail quantification from
// "at least one detail matches" (the default) to "every detail matches".
type VoucherAtom struct {
	ID     *string
	Type   *entity.VoucherType
	Remark *string
	Range  *entity.DateRange

	Details Query[DetailAtom]
	ForAll  bool
}

// MatchVoucher reports whether a voucher satisfies the atom. A nil atom
// matches everything.
//
// Filtering by the General pseudo-type matches every voucher except Carry
// and AnnualCarry entries; any other type requires exact equality.
func MatchVoucher(v *entity.Voucher, a *VoucherAtom) bool {
	if a == nil {
		return true
	}
	if a.ID != nil && v.ID != *a.ID {
		return false
	}
	if a.Type != nil {
		if *a.Type == entity.General {
			if v.Type == entity.Carry || v.Type == entity.AnnualCarry {
				return false
			}
		} else if v.Type != *a.Type {
			return false
		}
	}
	if !matchOptionalString(v.Remark, a.Remark) {
		return false
	}
	if !a.Range.Contains(v.Date) {
		return false
	}
	if a.Details != nil {
		if a.ForAll {
			for _, d := range v.Details {
				if !Eval(a.Details, func(da *DetailAtom) bool { return MatchDetail(d, da) }) {
					return false
				}
			}
		} else {
			found := false
			for _, d := range v.Details {
				if Eval(a.Details, func(da *DetailAtom) bool { return MatchDetail(d, da) }) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// DistributedAtom is a sparse pattern over assets and amortizations.
type DistributedAtom struct {
	IDs    []string
	Name   *string
	Remark *string
	User   *string
	Range  *entity.DateRange
}

// MatchDistributed reports whether a distributed entity satisfies the atom.
// A nil atom matches everything.
func MatchDistributed(e entity.Distributed, a *DistributedAtom) bool {
	if a == nil {
		return true
	}
	if len(a.IDs) > 0 {
		found := false
		for _, id := range a.IDs {
			if e.Ident() == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if a.Name != nil {
		if *a.Name == "" {
			if e.DisplayName() != "" {
				return false
			}
		} else if e.DisplayName() != *a.Name {
			return false
		}
	}
	if a.Remark != nil {
		if *a.Remark == "" {
			if e.RemarkOf() != "" {
				return false
			}
		} else if e.RemarkOf() != *a.Remark {
			return false
		}
	}
	if a.User != nil && e.UserOf() != *a.User {
		return false
	}
	return a.Range.Contains(e.DateOf())
}

// VoucherMatches evaluates a whole voucher query against a voucher.
func VoucherMatches(v *entity.Voucher, q Query[VoucherAtom]) bool {
	return Eval(q, func(a *VoucherAtom) bool { return MatchVoucher(v, a) })
}

// DetailMatches evaluates a whole detail query against a detail.
func DetailMatches(d *entity.VoucherDetail, q Query[DetailAtom]) bool {
	return Eval(q, func(a *DetailAtom) bool { return MatchDetail(d, a) })
}

// DistributedMatches evaluates a whole distributed query against an entity.
func DistributedMatches(e entity.Distributed, q Query[DistributedAtom]) bool {
	return Eval(q, func(a *DistributedAtom) bool { return MatchDistributed(e, a) })
}

// matchOptionalString applies the empty-versus-nil filter convention:
// nil means "don't care" and "" means "must be absent on the entity".
func matchOptionalString(value *string, filter *string) bool {
	if filter == nil {
		return true
	}
	if *filter == "" {
		return value == nil || *value == ""
	}
	return value != nil && *value == *filter
}
