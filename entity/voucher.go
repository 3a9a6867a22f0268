// Package entity defines the bookkeeping data model: vouchers (double-entry
// journal entries), their detail legs, aggregation result rows, and the
// distributed entities (assets and amortizations) whose schedules generate
// vouchers over time.
//
// All monetary amounts are IEEE doubles; comparisons against zero go through
// the Tolerance helpers in this package, never through raw equality.
package entity

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// BaseCurrency is the currency assumed when a detail leaves its currency
// unspecified.
const BaseCurrency = "BASE"

// IgnoranceMark is the sentinel remark that opts an entity or schedule item
// out of automatic reconciliation. Anything carrying it is considered
// manually managed and is never regenerated, rebound or deleted by the
// distributed accountant.
const IgnoranceMark = "ignored"

// VoucherType classifies a voucher by its bookkeeping role.
type VoucherType string

const (
	// Ordinary is a plain, manually entered journal entry.
	Ordinary VoucherType = "Ordinary"
	// General is a query pseudo-type: it matches every voucher except
	// carry-forward entries. It is never stored on a voucher itself.
	General VoucherType = "General"
	// Amortization marks vouchers generated by an amortization schedule.
	Amortization VoucherType = "Amortization"
	// AnnualCarry marks year-end carry-forward entries.
	AnnualCarry VoucherType = "AnnualCarry"
	// Carry marks month-end carry-forward entries.
	Carry VoucherType = "Carry"
	// Depreciation marks vouchers generated by an asset depreciation schedule.
	Depreciation VoucherType = "Depreciation"
	// Devalue marks vouchers generated by an asset devaluation.
	Devalue VoucherType = "Devalue"
	// Uncertain marks entries awaiting classification.
	Uncertain VoucherType = "Uncertain"
)

// VoucherDetail is one leg of a voucher: an account (title/subtitle), an
// optional content tag, a signed fund amount and an optional remark.
//
// Optional fields are pointers so that "unset" is distinguishable from the
// zero value; a SubTitle of 0 still means a concrete subtitle is absent on
// the chart of accounts side, which the query layer special-cases.
type VoucherDetail struct {
	User     string   `json:"user,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Title    int      `json:"title"`
	SubTitle *int     `json:"subtitle,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Fund     *float64 `json:"fund,omitempty"`
	Remark   *string  `json:"remark,omitempty"`
}

// Voucher is a double-entry journal entry: a dated, typed, ordered set of
// detail legs whose funds sum to zero once balanced. ID is empty until the
// voucher is persisted.
type Voucher struct {
	ID       string           `json:"id,omitempty"`
	Date     *Date            `json:"date,omitempty"`
	Type     VoucherType      `json:"type,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Remark   *string          `json:"remark,omitempty"`
	Details  []*VoucherDetail `json:"details"`
}

// StringPtr is a convenience for building optional string fields.
func StringPtr(s string) *string { return &s }

// IntPtr is a convenience for building optional int fields.
func IntPtr(i int) *int { return &i }

// FundPtr is a convenience for building optional fund fields.
func FundPtr(f float64) *float64 { return &f }

// FundOf returns the detail's fund, or zero when it is unset.
func (d *VoucherDetail) FundOf() float64 {
	if d.Fund == nil {
		return 0
	}
	return *d.Fund
}

// CurrencyOf returns the detail's currency, falling back to the voucher
// currency and then the base currency. Currencies are uppercase by
// convention; Canonicalize enforces that.
func (d *VoucherDetail) CurrencyOf(fallback string) string {
	if d.Currency != "" {
		return d.Currency
	}
	if fallback != "" {
		return fallback
	}
	return BaseCurrency
}

// SameShape reports whether two details carry the same account, content,
// remark, currency and user. Fund values are deliberately not compared;
// shape identity is what voucher-template matching is defined over.
func (d *VoucherDetail) SameShape(o *VoucherDetail) bool {
	return d.User == o.User &&
		d.Currency == o.Currency &&
		d.Title == o.Title &&
		equalIntPtr(d.SubTitle, o.SubTitle) &&
		equalStringPtr(d.Content, o.Content) &&
		equalStringPtr(d.Remark, o.Remark)
}

// Clone returns a deep copy of the detail.
func (d *VoucherDetail) Clone() *VoucherDetail {
	c := *d
	c.SubTitle = cloneIntPtr(d.SubTitle)
	c.Content = cloneStringPtr(d.Content)
	c.Fund = cloneFloatPtr(d.Fund)
	c.Remark = cloneStringPtr(d.Remark)
	return &c
}

// Clone returns a deep copy of the voucher, details included.
func (v *Voucher) Clone() *Voucher {
	c := *v
	if v.Date != nil {
		d := *v.Date
		c.Date = &d
	}
	c.Remark = cloneStringPtr(v.Remark)
	c.Details = make([]*VoucherDetail, len(v.Details))
	for i, d := range v.Details {
		c.Details[i] = d.Clone()
	}
	return &c
}

// Canonicalize normalizes a voucher for persistence: defaults the type to
// Ordinary, uppercases currencies and fills unset ones from the voucher
// currency, then sorts the details by the canonical total order
// (currency, title, subtitle, content, remark, fund) so that structurally
// equal vouchers compare equal.
func (v *Voucher) Canonicalize() {
	if v.Type == "" {
		v.Type = Ordinary
	}
	v.Currency = strings.ToUpper(v.Currency)
	for _, d := range v.Details {
		d.Currency = strings.ToUpper(d.CurrencyOf(v.Currency))
	}
	slices.SortStableFunc(v.Details, CompareDetails)
}

// ResolvePlug fills in the single unset fund with the negated sum of the
// others, balancing the voucher. At most one detail may have an unset fund;
// a second one is an error because the plug would be ambiguous.
func (v *Voucher) ResolvePlug() error {
	var plug *VoucherDetail
	var sum float64
	for _, d := range v.Details {
		if d.Fund == nil {
			if plug != nil {
				return fmt.Errorf("voucher has more than one detail without a fund")
			}
			plug = d
			continue
		}
		sum += *d.Fund
	}
	if plug != nil {
		f := -sum
		plug.Fund = &f
	}
	return nil
}

// IsBalanced reports whether the voucher's funds sum to zero within
// Tolerance. Details without a fund count as zero.
func (v *Voucher) IsBalanced() bool {
	var sum float64
	for _, d := range v.Details {
		sum += d.FundOf()
	}
	return IsZero(sum)
}

// CompareDetails is the canonical total order over details:
// currency, then title, subtitle, content, remark, and finally fund.
// Unset optional fields order before set ones.
func CompareDetails(a, b *VoucherDetail) int {
	if c := strings.Compare(a.Currency, b.Currency); c != 0 {
		return c
	}
	if a.Title != b.Title {
		if a.Title < b.Title {
			return -1
		}
		return 1
	}
	if c := compareIntPtr(a.SubTitle, b.SubTitle); c != 0 {
		return c
	}
	if c := compareStringPtr(a.Content, b.Content); c != 0 {
		return c
	}
	if c := compareStringPtr(a.Remark, b.Remark); c != 0 {
		return c
	}
	return compareFloatPtr(a.Fund, b.Fund)
}

func compareIntPtr(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func compareStringPtr(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return strings.Compare(*a, *b)
	}
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func equalIntPtr(a, b *int) bool    { return compareIntPtr(a, b) == 0 }
func equalStringPtr(a, b *string) bool {
	return compareStringPtr(a, b) == 0
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
