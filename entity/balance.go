package entity

// Balance is one row of an aggregation result. A dimension field is populated
// only when that dimension participates in the active subtotal's grouping
// levels; everything else stays nil. Balances are produced by flattening
// (voucher, detail) pairs or by the subtotal builder; they are never persisted.
type Balance struct {
	Date     *Date    `json:"date,omitempty"`
	Title    *int     `json:"title,omitempty"`
	SubTitle *int     `json:"subtitle,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Remark   *string  `json:"remark,omitempty"`
	Currency *string  `json:"currency,omitempty"`
	User     *string  `json:"user,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Fund     float64  `json:"fund"`
}

// BalanceOf flattens one (voucher, detail) pair into a Balance row carrying
// every dimension value plus the detail's signed fund. The subtotal builder
// later blanks out the dimensions it does not group by.
func BalanceOf(v *Voucher, d *VoucherDetail) *Balance {
	currency := d.CurrencyOf(v.Currency)
	b := &Balance{
		Date:     v.Date,
		Title:    IntPtr(d.Title),
		SubTitle: cloneIntPtr(d.SubTitle),
		Content:  cloneStringPtr(d.Content),
		Remark:   cloneStringPtr(d.Remark),
		Currency: &currency,
		Fund:     d.FundOf(),
	}
	if d.User != "" {
		b.User = StringPtr(d.User)
	}
	return b
}
