package distributed

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/zhanghe-dev/accountant/entity"
)

// Amortize regenerates the amortization schedule from scratch. The schedule
// walks forward from the start date by the configured interval, booking a
// straight-line amount of Value/TotalDays per covered day; the final period
// absorbs the residual so that the schedule sums exactly to Value despite
// floating-point division. Zero-amount periods are dropped.
//
// The last item's date is the first interval date at or after the
// theoretical end date, so it is always >= Date + TotalDays - 1.
func Amortize(a *entity.Amortized) error {
	if a.Date == nil {
		return fmt.Errorf("amortization %q has no start date", a.Name)
	}
	if a.TotalDays <= 0 {
		return fmt.Errorf("amortization %q has non-positive total days %d", a.Name, a.TotalDays)
	}
	if _, err := thisAmortDate(a.Interval, a.Date); err != nil {
		return err
	}

	perDay := a.Value / float64(a.TotalDays)
	endDate := a.Date.AddDays(a.TotalDays - 1)

	var schedule []*entity.AmortItem
	var amortized float64
	periodStart := a.Date
	cur, _ := thisAmortDate(a.Interval, a.Date)
	for {
		if entity.CompareDates(cur, endDate) >= 0 {
			amount := a.Value - amortized
			if !entity.IsZero(amount) {
				schedule = append(schedule, &entity.AmortItem{
					ScheduleItemBase: entity.ScheduleItemBase{Date: cur},
					Amount:           amount,
				})
			}
			break
		}
		days := daysBetween(periodStart, cur) + 1
		amount := perDay * float64(days)
		if !entity.IsZero(amount) {
			schedule = append(schedule, &entity.AmortItem{
				ScheduleItemBase: entity.ScheduleItemBase{Date: cur},
				Amount:           amount,
			})
		}
		amortized += amount
		periodStart = cur.AddDays(1)
		next, err := nextAmortDate(a.Interval, cur)
		if err != nil {
			return err
		}
		cur = next
	}

	a.Schedule = schedule
	RegularizeAmortized(a)
	return nil
}

// RegularizeAmortized re-sorts the schedule chronologically and recomputes
// each item's running Value, the residual left after the item's amount is
// amortized, walking down from the entity's total Value. An ignorance mark
// on the entity short-circuits regularization entirely.
//
// Regularization is idempotent: without intervening mutation a second call
// reproduces the same dates and values.
func RegularizeAmortized(a *entity.Amortized) {
	if a.Ignored() {
		return
	}
	slices.SortStableFunc(a.Schedule, func(x, y *entity.AmortItem) int {
		return entity.CompareDates(x.Date, y.Date)
	})
	value := a.Value
	for _, item := range a.Schedule {
		value -= item.Amount
		item.Value = value
	}
}

// thisAmortDate returns the first amortization date for a period starting
// at date: the date itself for same-day intervals, or the end of the
// enclosing week, month or year for last-day intervals.
func thisAmortDate(interval entity.AmortInterval, date *entity.Date) (*entity.Date, error) {
	switch interval {
	case entity.EveryDay, entity.SameDayOfWeek, entity.SameDayOfMonth, entity.SameDayOfYear:
		return date, nil
	case entity.LastDayOfWeek:
		return weekEnd(date), nil
	case entity.LastDayOfMonth:
		return date.MonthEnd(), nil
	case entity.LastDayOfYear:
		return date.YearEnd(), nil
	default:
		return nil, fmt.Errorf("unknown amortization interval %q", interval)
	}
}

// nextAmortDate advances one amortization date to the next. Day-of-month
// and day-of-year overflow (a 31st in a 30-day month, Feb 29 off leap
// years) rolls to the 1st of the following period rather than silently
// shifting the anchor day.
func nextAmortDate(interval entity.AmortInterval, date *entity.Date) (*entity.Date, error) {
	switch interval {
	case entity.EveryDay:
		return date.AddDays(1), nil
	case entity.SameDayOfWeek, entity.LastDayOfWeek:
		return date.AddDays(7), nil
	case entity.SameDayOfMonth:
		year, month := date.Year(), date.Month()+1
		if date.Day() > daysInMonth(year, month) {
			return entity.DateOf(year, month+1, 1), nil
		}
		return entity.DateOf(year, month, date.Day()), nil
	case entity.LastDayOfMonth:
		return entity.DateOf(date.Year(), date.Month()+2, 1).AddDays(-1), nil
	case entity.SameDayOfYear:
		if date.Month() == time.February && date.Day() == 29 && daysInMonth(date.Year()+1, time.February) < 29 {
			return entity.DateOf(date.Year()+1, time.March, 1), nil
		}
		return entity.DateOf(date.Year()+1, date.Month(), date.Day()), nil
	case entity.LastDayOfYear:
		return entity.DateOf(date.Year()+1, time.December, 31), nil
	default:
		return nil, fmt.Errorf("unknown amortization interval %q", interval)
	}
}

func weekEnd(d *entity.Date) *entity.Date {
	// Weeks end on Sunday.
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDays(offset)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysBetween(from, to *entity.Date) int {
	return int(to.Sub(from.Time) / (24 * time.Hour))
}
