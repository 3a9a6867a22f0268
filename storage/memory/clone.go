package memory

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/zhanghe-dev/accountant/entity"
)

func cloneAsset(a *entity.Asset) *entity.Asset {
	c := *a
	if a.Date != nil {
		d := *a.Date
		c.Date = &d
	}
	c.Schedule = make([]entity.AssetItem, len(a.Schedule))
	for i, it := range a.Schedule {
		c.Schedule[i] = cloneAssetItem(it)
	}
	return &c
}

func cloneAssetItem(it entity.AssetItem) entity.AssetItem {
	switch v := it.(type) {
	case *entity.AcquisitionItem:
		c := *v
		c.Date = cloneDate(v.Date)
		return &c
	case *entity.DepreciateItem:
		c := *v
		c.Date = cloneDate(v.Date)
		return &c
	case *entity.DevalueItem:
		c := *v
		c.Date = cloneDate(v.Date)
		return &c
	case *entity.DispositionItem:
		c := *v
		c.Date = cloneDate(v.Date)
		return &c
	default:
		return it
	}
}

func cloneAmortized(a *entity.Amortized) *entity.Amortized {
	c := *a
	if a.Date != nil {
		d := *a.Date
		c.Date = &d
	}
	if a.Template != nil {
		c.Template = a.Template.Clone()
	}
	c.Schedule = make([]*entity.AmortItem, len(a.Schedule))
	for i, it := range a.Schedule {
		item := *it
		item.Date = cloneDate(it.Date)
		c.Schedule[i] = &item
	}
	return &c
}

func cloneDate(d *entity.Date) *entity.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func sortVouchers(vouchers []*entity.Voucher) {
	slices.SortStableFunc(vouchers, func(a, b *entity.Voucher) int {
		if c := entity.CompareDates(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// sortDistributed orders entities by date (undated first) and then ID.
func sortDistributed[T any](items []T, key func(T) (string, *entity.Date)) {
	slices.SortStableFunc(items, func(x, y T) int {
		idX, dateX := key(x)
		idY, dateY := key(y)
		if c := entity.CompareDates(dateX, dateY); c != 0 {
			return c
		}
		return strings.Compare(idX, idY)
	})
}
