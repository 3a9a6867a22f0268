package entity_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zhanghe-dev/accountant/entity"
)

func TestCanonicalizeDefaultsAndSorts(t *testing.T) {
	v := &entity.Voucher{
		Date:     entity.MustDate("2024-03-01"),
		Currency: "usd",
		Details: []*entity.VoucherDetail{
			{Title: 6601, Fund: entity.FundPtr(100)},
			{Title: 1001, Fund: entity.FundPtr(-100)},
		},
	}
	v.Canonicalize()

	// Type defaults to Ordinary, details inherit the uppercased currency.
	assert.Equal(t, entity.Ordinary, v.Type)
	assert.Equal(t, "USD", v.Currency)
	for _, d := range v.Details {
		assert.Equal(t, "USD", d.Currency)
	}

	// Details are sorted by title within the same currency.
	assert.Equal(t, 1001, v.Details[0].Title)
	assert.Equal(t, 6601, v.Details[1].Title)
}

func TestCanonicalizeOrdersByCurrencyFirst(t *testing.T) {
	v := &entity.Voucher{
		Details: []*entity.VoucherDetail{
			{Title: 1001, Currency: "usd", Fund: entity.FundPtr(1)},
			{Title: 9999, Currency: "eur", Fund: entity.FundPtr(-1)},
		},
	}
	v.Canonicalize()

	// EUR sorts before USD even though its title is larger.
	assert.Equal(t, "EUR", v.Details[0].Currency)
	assert.Equal(t, "USD", v.Details[1].Currency)
}

func TestResolvePlugFillsSingleMissingFund(t *testing.T) {
	v := &entity.Voucher{
		Details: []*entity.VoucherDetail{
			{Title: 6601, Fund: entity.FundPtr(70)},
			{Title: 6602, Fund: entity.FundPtr(30)},
			{Title: 1001},
		},
	}
	assert.NoError(t, v.ResolvePlug())
	assert.NotZero(t, v.Details[2].Fund)
	assert.Equal(t, -100.0, *v.Details[2].Fund)
	assert.True(t, v.IsBalanced())
}

func TestResolvePlugRejectsTwoMissingFunds(t *testing.T) {
	v := &entity.Voucher{
		Details: []*entity.VoucherDetail{
			{Title: 6601, Fund: entity.FundPtr(70)},
			{Title: 1001},
			{Title: 1002},
		},
	}
	assert.Error(t, v.ResolvePlug())
}

func TestIsBalancedUsesTolerance(t *testing.T) {
	// 0.1+0.2-0.3 is not exactly zero in IEEE doubles but must balance.
	v := &entity.Voucher{
		Details: []*entity.VoucherDetail{
			{Title: 6601, Fund: entity.FundPtr(0.1)},
			{Title: 6602, Fund: entity.FundPtr(0.2)},
			{Title: 1001, Fund: entity.FundPtr(-0.3)},
		},
	}
	assert.True(t, v.IsBalanced())

	v.Details[0].Fund = entity.FundPtr(0.11)
	assert.False(t, v.IsBalanced())
}

func TestSameShapeIgnoresFund(t *testing.T) {
	a := &entity.VoucherDetail{Title: 1001, SubTitle: entity.IntPtr(2), Fund: entity.FundPtr(10)}
	b := &entity.VoucherDetail{Title: 1001, SubTitle: entity.IntPtr(2), Fund: entity.FundPtr(-55)}
	assert.True(t, a.SameShape(b))

	b.SubTitle = nil
	assert.False(t, a.SameShape(b))
}

func TestCloneIsDeep(t *testing.T) {
	v := &entity.Voucher{
		Date:    entity.MustDate("2024-06-15"),
		Remark:  entity.StringPtr("rent"),
		Details: []*entity.VoucherDetail{{Title: 1001, Fund: entity.FundPtr(5)}},
	}
	c := v.Clone()
	*c.Details[0].Fund = 99
	c.Details[0].Title = 42
	*c.Remark = "changed"

	assert.Equal(t, 5.0, *v.Details[0].Fund)
	assert.Equal(t, 1001, v.Details[0].Title)
	assert.Equal(t, "rent", *v.Remark)
}

func TestCompareDetailsUnsetOrdersFirst(t *testing.T) {
	withSub := &entity.VoucherDetail{Title: 1001, SubTitle: entity.IntPtr(1)}
	without := &entity.VoucherDetail{Title: 1001}
	assert.True(t, entity.CompareDetails(without, withSub) < 0)
	assert.True(t, entity.CompareDetails(withSub, without) > 0)
	assert.Equal(t, 0, entity.CompareDetails(without, without))
}

func TestCurrencyOfFallbacks(t *testing.T) {
	d := &entity.VoucherDetail{Title: 1001}
	assert.Equal(t, entity.BaseCurrency, d.CurrencyOf(""))
	assert.Equal(t, "CNY", d.CurrencyOf("CNY"))

	d.Currency = "JPY"
	assert.Equal(t, "JPY", d.CurrencyOf("CNY"))
}
