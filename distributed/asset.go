package distributed

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/zhanghe-dev/accountant/entity"
)

// RegularizeAsset re-sorts the asset schedule chronologically, snaps
// depreciation and devaluation dates to month end, synthesizes a leading
// acquisition from the asset's own date and value when the schedule does
// not start with one, and recomputes each item's running book value:
// acquisitions raise it, depreciations and devaluations lower it, and a
// disposition resets it to zero.
//
// A devaluation whose fair value is already at or above the current book
// value is moot; unless manually pinned with the ignorance mark it prunes
// itself. Pruning is a two-pass filter over the schedule, never an in-place
// removal during iteration.
func RegularizeAsset(a *entity.Asset) error {
	if a.Ignored() {
		return nil
	}

	for _, it := range a.Schedule {
		switch it.(type) {
		case *entity.DepreciateItem, *entity.DevalueItem:
			if d := it.Base().Date; d != nil {
				it.Base().Date = d.MonthEnd()
			}
		}
	}
	sortAssetSchedule(a.Schedule)

	if len(a.Schedule) == 0 || !isAcquisition(a.Schedule[0]) {
		lead := &entity.AcquisitionItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: a.Date},
			OrigValue:        a.Value,
		}
		a.Schedule = append([]entity.AssetItem{lead}, a.Schedule...)
	}

	kept := make([]entity.AssetItem, 0, len(a.Schedule))
	var bookValue float64
	for _, it := range a.Schedule {
		switch v := it.(type) {
		case *entity.AcquisitionItem:
			bookValue += v.OrigValue
		case *entity.DepreciateItem:
			bookValue -= v.Amount
		case *entity.DevalueItem:
			if v.Ignored() {
				bookValue -= v.Amount
			} else {
				amount := bookValue - v.FairValue
				if entity.IsNonPositive(amount) {
					continue
				}
				v.Amount = amount
				bookValue = v.FairValue
			}
		case *entity.DispositionItem:
			bookValue = 0
		default:
			return fmt.Errorf("asset %q: unknown schedule item kind %T", a.Name, it)
		}
		it.Base().Value = bookValue
		kept = append(kept, it)
	}
	a.Schedule = kept
	return nil
}

// Depreciate regenerates the asset's automatic depreciation items according
// to its method, preserving acquisitions, devaluations, dispositions and
// manually-pinned depreciation items, then regularizes the schedule.
func Depreciate(a *entity.Asset) error {
	if a.Ignored() {
		return nil
	}
	switch a.Method {
	case entity.NoDepreciation:
		return RegularizeAsset(a)
	case entity.StraightLine:
		return depreciateStraightLine(a)
	case entity.SumOfTheYears:
		return depreciateSumOfTheYears(a)
	case entity.DoubleDecliningBalance:
		return fmt.Errorf("asset %q: double declining balance depreciation is not implemented", a.Name)
	default:
		return fmt.Errorf("asset %q: unknown depreciation method %q", a.Name, a.Method)
	}
}

// depreciateStraightLine writes off equal monthly installments at month end
// from the acquisition month through Life years later. Whenever an
// acquisition, devaluation or disposition interrupts the timeline, the
// installment re-anchors to the remaining book value over the remaining
// months; months covered by pinned items are skipped. The final month
// absorbs the residual down to salvage.
func depreciateStraightLine(a *entity.Asset) error {
	if a.Date == nil {
		return fmt.Errorf("asset %q has no acquisition date", a.Name)
	}
	if a.Life <= 0 {
		return fmt.Errorf("asset %q has non-positive life %d", a.Name, a.Life)
	}

	if err := RegularizeAsset(a); err != nil {
		return err
	}
	kept := stripAutoDepreciation(a.Schedule)

	months := 12 * a.Life
	var bookValue float64
	installment := 0.0
	applied := 0 // index into kept

	// Apply undated items up front; they anchor the opening book value.
	for applied < len(kept) && kept[applied].Base().Date == nil {
		bookValue = applyAssetItem(kept[applied], bookValue)
		applied++
	}

	var generated []entity.AssetItem
	disposed := false
	for m := 0; m < months && !disposed; m++ {
		monthEnd := entity.DateOf(a.Date.Year(), a.Date.Month()+time.Month(m), 1).MonthEnd()

		pinnedThisMonth := false
		reanchor := m == 0
		for applied < len(kept) && entity.CompareDates(kept[applied].Base().Date, monthEnd) <= 0 {
			it := kept[applied]
			bookValue = applyAssetItem(it, bookValue)
			switch it.(type) {
			case *entity.AcquisitionItem, *entity.DevalueItem:
				reanchor = true
			case *entity.DispositionItem:
				disposed = true
			case *entity.DepreciateItem:
				pinnedThisMonth = true
			}
			applied++
		}
		if disposed {
			break
		}
		if reanchor {
			installment = (bookValue - a.Salvage) / float64(months-m)
		}
		if pinnedThisMonth {
			continue
		}

		amount := installment
		if m == months-1 {
			amount = bookValue - a.Salvage
		}
		if entity.IsZero(amount) {
			continue
		}
		generated = append(generated, &entity.DepreciateItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: monthEnd},
			Amount:           amount,
		})
		bookValue -= amount
	}

	a.Schedule = append(kept, generated...)
	return RegularizeAsset(a)
}

// depreciateSumOfTheYears writes off declining yearly fractions
// (n-year+1)/Σ1..n of the depreciable base, pro-rated across calendar years
// by the acquisition month. One item is emitted per calendar year at year
// end (the trailing partial year ends at its last covered month); the last
// item absorbs the residual. Calendar years holding a pinned depreciation
// item are skipped.
func depreciateSumOfTheYears(a *entity.Asset) error {
	if a.Date == nil {
		return fmt.Errorf("asset %q has no acquisition date", a.Name)
	}
	if a.Life <= 0 {
		return fmt.Errorf("asset %q has non-positive life %d", a.Name, a.Life)
	}

	if err := RegularizeAsset(a); err != nil {
		return err
	}
	kept := stripAutoDepreciation(a.Schedule)

	pinnedYears := make(map[int]bool)
	for _, it := range kept {
		if dep, ok := it.(*entity.DepreciateItem); ok && dep.Date != nil {
			pinnedYears[dep.Date.Year()] = true
		}
	}

	n := a.Life
	base := a.Value - a.Salvage
	syd := float64(n * (n + 1) / 2)
	annual := func(k int) float64 {
		return base * float64(n-k+1) / syd
	}
	m := int(a.Date.Month())
	headFraction := float64(13-m) / 12
	tailFraction := float64(m-1) / 12

	var amounts []float64
	for j := 0; j <= n; j++ {
		switch {
		case j == 0:
			amounts = append(amounts, annual(1)*headFraction)
		case j == n:
			amounts = append(amounts, annual(n)*tailFraction)
		default:
			amounts = append(amounts, annual(j)*tailFraction+annual(j+1)*headFraction)
		}
	}

	var generated []entity.AssetItem
	var booked float64
	lastOffset := -1
	for j := n; j >= 0; j-- {
		if !entity.IsZero(amounts[j]) {
			lastOffset = j
			break
		}
	}
	for j, amount := range amounts {
		if entity.IsZero(amount) {
			continue
		}
		year := a.Date.Year() + j
		if pinnedYears[year] {
			booked += amount
			continue
		}
		if j == lastOffset {
			amount = base - booked
		}
		date := entity.DateOf(year, time.December, 31)
		if j == n && m > 1 {
			date = entity.DateOf(year, time.Month(m-1), 1).MonthEnd()
		}
		generated = append(generated, &entity.DepreciateItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: date},
			Amount:           amount,
		})
		booked += amount
	}

	a.Schedule = append(kept, generated...)
	return RegularizeAsset(a)
}

// applyAssetItem folds one schedule item into a running book value.
func applyAssetItem(it entity.AssetItem, bookValue float64) float64 {
	switch v := it.(type) {
	case *entity.AcquisitionItem:
		return bookValue + v.OrigValue
	case *entity.DepreciateItem:
		return bookValue - v.Amount
	case *entity.DevalueItem:
		// A pinned devaluation keeps its manual amount; an automatic one
		// writes the book value down to fair value, whatever the generated
		// depreciation around it turns out to be.
		if v.Ignored() {
			return bookValue - v.Amount
		}
		return v.FairValue
	case *entity.DispositionItem:
		return 0
	default:
		return bookValue
	}
}

// stripAutoDepreciation drops every depreciation item that is not manually
// pinned, leaving the rest of the schedule intact.
func stripAutoDepreciation(schedule []entity.AssetItem) []entity.AssetItem {
	kept := make([]entity.AssetItem, 0, len(schedule))
	for _, it := range schedule {
		if dep, ok := it.(*entity.DepreciateItem); ok && !dep.Ignored() {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// sortAssetSchedule orders items chronologically; within one day
// acquisitions come first and dispositions last so that the running book
// value is well defined. A devaluation orders before a same-day depreciation
// because the generators apply every interrupting item before booking the
// month's installment.
func sortAssetSchedule(schedule []entity.AssetItem) {
	slices.SortStableFunc(schedule, func(x, y entity.AssetItem) int {
		if c := entity.CompareDates(x.Base().Date, y.Base().Date); c != 0 {
			return c
		}
		return kindRank(x) - kindRank(y)
	})
}

func kindRank(it entity.AssetItem) int {
	switch it.(type) {
	case *entity.AcquisitionItem:
		return 0
	case *entity.DevalueItem:
		return 1
	case *entity.DepreciateItem:
		return 2
	case *entity.DispositionItem:
		return 3
	default:
		return 4
	}
}

func isAcquisition(it entity.AssetItem) bool {
	_, ok := it.(*entity.AcquisitionItem)
	return ok
}
