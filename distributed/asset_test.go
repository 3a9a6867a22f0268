package distributed_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/zhanghe-dev/accountant/distributed"
	"github.com/zhanghe-dev/accountant/entity"
)

func asset(date string, value float64, life int, method entity.DepreciationMethod) *entity.Asset {
	return &entity.Asset{
		ID:                       "asset-1",
		Name:                     "laptop",
		Date:                     entity.MustDate(date),
		Value:                    value,
		Life:                     life,
		Method:                   method,
		Title:                    1601,
		DepreciationTitle:        1602,
		DevaluationTitle:         1603,
		DepreciationExpenseTitle: 6602,
		DevaluationExpenseTitle:  6701,
	}
}

func depreciationItems(a *entity.Asset) []*entity.DepreciateItem {
	var out []*entity.DepreciateItem
	for _, it := range a.Schedule {
		if dep, ok := it.(*entity.DepreciateItem); ok {
			out = append(out, dep)
		}
	}
	return out
}

func depreciationSum(a *entity.Asset) float64 {
	var sum float64
	for _, dep := range depreciationItems(a) {
		sum += dep.Amount
	}
	return sum
}

func TestRegularizeSynthesizesLeadingAcquisition(t *testing.T) {
	a := asset("2024-01-15", 1200, 1, entity.NoDepreciation)
	assert.NoError(t, distributed.RegularizeAsset(a))

	assert.Equal(t, 1, len(a.Schedule))
	acq, ok := a.Schedule[0].(*entity.AcquisitionItem)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15", acq.Date.String())
	assert.Equal(t, 1200.0, acq.OrigValue)
	assert.Equal(t, 1200.0, acq.Value)
}

func TestRegularizeSnapsDepreciationToMonthEnd(t *testing.T) {
	a := asset("2024-01-01", 1000, 1, entity.NoDepreciation)
	a.Schedule = entity.AssetSchedule{
		&entity.DepreciateItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2024-02-10")},
			Amount:           100,
		},
	}
	assert.NoError(t, distributed.RegularizeAsset(a))

	assert.Equal(t, 2, len(a.Schedule))
	assert.Equal(t, "2024-02-29", a.Schedule[1].Base().Date.String())
	assert.Equal(t, 900.0, a.Schedule[1].Base().Value)
}

func TestRegularizeDevalue(t *testing.T) {
	a := asset("2024-01-01", 1000, 1, entity.NoDepreciation)
	a.Schedule = entity.AssetSchedule{
		&entity.DevalueItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2024-03-10")},
			FairValue:        600,
		},
	}
	assert.NoError(t, distributed.RegularizeAsset(a))

	// The write-down amount is derived from the running book value.
	dev, ok := a.Schedule[1].(*entity.DevalueItem)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-31", dev.Date.String())
	assert.Equal(t, 400.0, dev.Amount)
	assert.Equal(t, 600.0, dev.Value)
}

func TestRegularizePrunesMootDevalue(t *testing.T) {
	a := asset("2024-01-01", 1000, 1, entity.NoDepreciation)
	a.Schedule = entity.AssetSchedule{
		&entity.DevalueItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2024-03-10")},
			FairValue:        1500,
		},
	}
	assert.NoError(t, distributed.RegularizeAsset(a))

	// A devaluation above the book value writes nothing down and disappears.
	assert.Equal(t, 1, len(a.Schedule))

	// Pinned with the ignorance mark it survives untouched.
	pinned := asset("2024-01-01", 1000, 1, entity.NoDepreciation)
	pinned.Schedule = entity.AssetSchedule{
		&entity.DevalueItem{
			ScheduleItemBase: entity.ScheduleItemBase{
				Date:   entity.MustDate("2024-03-10"),
				Remark: entity.IgnoranceMark,
			},
			FairValue: 1500,
			Amount:    50,
		},
	}
	assert.NoError(t, distributed.RegularizeAsset(pinned))
	assert.Equal(t, 2, len(pinned.Schedule))
	assert.Equal(t, 950.0, pinned.Schedule[1].Base().Value)
}

func TestRegularizeIdempotent(t *testing.T) {
	a := asset("2024-01-15", 1200, 1, entity.NoDepreciation)
	a.Schedule = entity.AssetSchedule{
		&entity.DepreciateItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2024-02-10"), Remark: entity.IgnoranceMark},
			Amount:           100,
		},
		&entity.DevalueItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2024-06-01")},
			FairValue:        800,
		},
	}
	assert.NoError(t, distributed.RegularizeAsset(a))

	snapshot := make([]string, 0, len(a.Schedule))
	for _, it := range a.Schedule {
		snapshot = append(snapshot, it.Base().Date.String())
	}
	values := make([]float64, 0, len(a.Schedule))
	for _, it := range a.Schedule {
		values = append(values, it.Base().Value)
	}

	assert.NoError(t, distributed.RegularizeAsset(a))
	for i, it := range a.Schedule {
		assert.Equal(t, snapshot[i], it.Base().Date.String())
		assert.True(t, entity.FundEqual(values[i], it.Base().Value))
	}
}

func TestStraightLineTwelveInstallments(t *testing.T) {
	a := asset("2023-01-15", 1200, 1, entity.StraightLine)
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	assert.Equal(t, 12, len(deps))
	assert.Equal(t, "2023-01-31", deps[0].Date.String())
	assert.Equal(t, "2023-12-31", deps[11].Date.String())
	for _, dep := range deps {
		assert.True(t, entity.FundEqual(100, dep.Amount))
	}

	// Book value runs down to salvage by the final installment.
	last := a.Schedule[len(a.Schedule)-1]
	assert.True(t, entity.FundEqual(0, last.Base().Value))
}

func TestStraightLineFinalInstallmentAbsorbsResidual(t *testing.T) {
	a := asset("2023-01-01", 1000, 1, entity.StraightLine)
	a.Salvage = 100
	assert.NoError(t, distributed.Depreciate(a))

	assert.True(t, entity.FundEqual(900, depreciationSum(a)))
	last := a.Schedule[len(a.Schedule)-1]
	assert.True(t, entity.FundEqual(100, last.Base().Value))
}

func TestStraightLineReanchorsAfterDevalue(t *testing.T) {
	a := asset("2023-01-15", 1200, 1, entity.StraightLine)
	a.Schedule = entity.AssetSchedule{
		&entity.DevalueItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2023-06-10")},
			FairValue:        300,
		},
	}
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	// Five full installments before the June devaluation, seven after.
	assert.Equal(t, 12, len(deps))
	for i := 0; i < 5; i++ {
		assert.True(t, entity.FundEqual(100, deps[i].Amount))
	}
	for i := 5; i < 12; i++ {
		assert.True(t, entity.FundEqual(300.0/7, deps[i].Amount))
	}

	// Depreciation plus the write-down consumes the whole value.
	var dev *entity.DevalueItem
	for _, it := range a.Schedule {
		if d, ok := it.(*entity.DevalueItem); ok {
			dev = d
		}
	}
	assert.NotZero(t, dev)
	assert.True(t, entity.FundEqual(400, dev.Amount))
	assert.True(t, entity.FundEqual(1200, depreciationSum(a)+dev.Amount))
	assert.True(t, entity.FundEqual(0, a.Schedule[len(a.Schedule)-1].Base().Value))
}

func TestStraightLineStopsAtDisposition(t *testing.T) {
	a := asset("2023-01-15", 1200, 1, entity.StraightLine)
	a.Schedule = entity.AssetSchedule{
		&entity.DispositionItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2023-06-10")},
		},
	}
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	assert.Equal(t, 5, len(deps))
	assert.Equal(t, "2023-05-31", deps[4].Date.String())
	assert.True(t, entity.FundEqual(0, a.Schedule[len(a.Schedule)-1].Base().Value))
}

func TestStraightLineSkipsPinnedMonths(t *testing.T) {
	a := asset("2023-01-15", 1200, 1, entity.StraightLine)
	a.Schedule = entity.AssetSchedule{
		&entity.DepreciateItem{
			ScheduleItemBase: entity.ScheduleItemBase{Date: entity.MustDate("2023-03-05"), Remark: entity.IgnoranceMark},
			Amount:           100,
		},
	}
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	assert.Equal(t, 12, len(deps))
	marchCount := 0
	for _, dep := range deps {
		if dep.Date.String() == "2023-03-31" {
			marchCount++
			assert.Equal(t, entity.IgnoranceMark, dep.Remark)
		}
	}
	// March keeps only the manual installment.
	assert.Equal(t, 1, marchCount)
	assert.True(t, entity.FundEqual(1200, depreciationSum(a)))
}

func TestSumOfTheYearsJanuaryAcquisition(t *testing.T) {
	a := asset("2023-01-01", 6000, 3, entity.SumOfTheYears)
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	assert.Equal(t, 3, len(deps))
	assert.Equal(t, "2023-12-31", deps[0].Date.String())
	assert.True(t, entity.FundEqual(3000, deps[0].Amount))
	assert.Equal(t, "2024-12-31", deps[1].Date.String())
	assert.True(t, entity.FundEqual(2000, deps[1].Amount))
	assert.Equal(t, "2025-12-31", deps[2].Date.String())
	assert.True(t, entity.FundEqual(1000, deps[2].Amount))
	assert.True(t, entity.FundEqual(6000, depreciationSum(a)))
}

func TestSumOfTheYearsMidYearProRates(t *testing.T) {
	a := asset("2023-07-01", 6000, 3, entity.SumOfTheYears)
	assert.NoError(t, distributed.Depreciate(a))

	deps := depreciationItems(a)
	assert.Equal(t, 4, len(deps))
	assert.True(t, entity.FundEqual(1500, deps[0].Amount)) // half of year 1
	assert.True(t, entity.FundEqual(2500, deps[1].Amount)) // half of 1 + half of 2
	assert.True(t, entity.FundEqual(1500, deps[2].Amount))
	assert.True(t, entity.FundEqual(500, deps[3].Amount)) // trailing half of year 3
	assert.Equal(t, "2026-06-30", deps[3].Date.String())

	// Yearly amounts decline monotonically after the first full year.
	for i := 2; i < len(deps); i++ {
		assert.True(t, deps[i].Amount < deps[i-1].Amount+entity.Tolerance)
	}
	assert.True(t, entity.FundEqual(6000, depreciationSum(a)))
}

func TestDepreciateDoubleDecliningBalanceErrors(t *testing.T) {
	a := asset("2023-01-01", 1000, 2, entity.DoubleDecliningBalance)
	assert.Error(t, distributed.Depreciate(a))
}

func TestDepreciateUnknownMethodErrors(t *testing.T) {
	a := asset("2023-01-01", 1000, 2, entity.DepreciationMethod("Units"))
	assert.Error(t, distributed.Depreciate(a))
}

func TestDepreciateIgnoredAssetUntouched(t *testing.T) {
	a := asset("2023-01-01", 1000, 2, entity.StraightLine)
	a.Remark = entity.IgnoranceMark
	assert.NoError(t, distributed.Depreciate(a))
	assert.Equal(t, 0, len(a.Schedule))
}

func TestDepreciateRejectsBadConfiguration(t *testing.T) {
	noDate := asset("2023-01-01", 1000, 1, entity.StraightLine)
	noDate.Date = nil
	assert.Error(t, distributed.Depreciate(noDate))

	noLife := asset("2023-01-01", 1000, 0, entity.StraightLine)
	assert.Error(t, distributed.Depreciate(noLife))
}
