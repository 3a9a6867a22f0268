// Package subtotal builds recursive, multi-level aggregation trees over
// flattened voucher rows.
//
// A subtotal is described by an ordered list of grouping levels (account
// title, subtitle, content, remark, currency, user, or a date granularity),
// an aggregation applied at the deepest level (plain sum, changed-day
// running totals, or a dense every-day running series) and a gathering mode
// that controls zero suppression or row counting.
//
// The builder partitions the row set by the first level's key, recurses into
// each group with the remaining levels, and sums children upward, so the
// root node's fund is always the grand total and every internal node's fund
// equals the sum of its children's.
package subtotal

import (
	"fmt"
	"sort"
	"time"

	"github.com/zhanghe-dev/accountant/entity"
)

// Level is one grouping dimension.
type Level int

const (
	// LevelTitle groups by account title.
	LevelTitle Level = iota
	// LevelSubTitle groups by account subtitle.
	LevelSubTitle
	// LevelContent groups by content tag.
	LevelContent
	// LevelRemark groups by remark.
	LevelRemark
	// LevelCurrency groups by currency.
	LevelCurrency
	// LevelUser groups by owning user.
	LevelUser
	// LevelDay groups by calendar day.
	LevelDay
	// LevelWeek groups by calendar week (Monday start).
	LevelWeek
	// LevelMonth groups by calendar month.
	LevelMonth
	// LevelYear groups by calendar year.
	LevelYear
)

// Aggregation selects the leaf-level aggregation semantics.
type Aggregation int

const (
	// AggregateNone sums the leaf rows into a single fund.
	AggregateNone Aggregation = iota
	// AggregateChangedDay emits one node per day that saw a transaction,
	// carrying the cumulative running total up to and including that day.
	AggregateChangedDay
	// AggregateEveryDay emits one node per calendar day across the spec's
	// range, carrying the last known cumulative total into days without
	// transactions.
	AggregateEveryDay
)

// Gather controls which rows participate and what each contributes.
type Gather int

const (
	// GatherAll keeps every row.
	GatherAll Gather = iota
	// GatherNonZero drops rows whose fund is zero within Tolerance before
	// building. Under AggregateChangedDay the filter is skipped: a running
	// total must see every contributing transaction even when a single
	// day's net is near zero.
	GatherNonZero
	// GatherCount counts rows instead of summing funds.
	GatherCount
)

// Spec describes one subtotal run.
type Spec struct {
	Levels      []Level
	Aggregation Aggregation
	Gather      Gather

	// Range bounds the EveryDay series. Open ends default to the first and
	// last transaction dates present in the row set.
	Range *entity.DateRange
}

// Node is one node of the result tree. Exactly one dimension field of the
// embedded Balance is populated, the one the node's level groups by; the
// root is a sentinel with none set whose Fund is the grand total.
type Node struct {
	entity.Balance
	Items []*Node
}

// Build aggregates the rows according to the spec and returns the root of
// the result tree.
func Build(rows []*entity.Balance, spec *Spec) (*Node, error) {
	if spec == nil {
		spec = &Spec{}
	}
	if spec.Gather == GatherNonZero && spec.Aggregation != AggregateChangedDay {
		kept := make([]*entity.Balance, 0, len(rows))
		for _, r := range rows {
			if !entity.IsZero(r.Fund) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return build(rows, spec, 0)
}

func build(rows []*entity.Balance, spec *Spec, depth int) (*Node, error) {
	if depth == len(spec.Levels) {
		return buildLeaf(rows, spec)
	}

	level := spec.Levels[depth]
	node := &Node{}
	groups, order, err := partition(rows, level)
	if err != nil {
		return nil, err
	}
	for _, key := range order {
		child, err := build(groups[key], spec, depth+1)
		if err != nil {
			return nil, err
		}
		if err := stamp(child, level, groups[key][0]); err != nil {
			return nil, err
		}
		node.Items = append(node.Items, child)
		node.Fund += child.Fund
	}
	return node, nil
}

func buildLeaf(rows []*entity.Balance, spec *Spec) (*Node, error) {
	switch spec.Aggregation {
	case AggregateNone:
		node := &Node{}
		for _, r := range rows {
			node.Fund += contribution(r, spec)
		}
		return node, nil
	case AggregateChangedDay:
		return aggregateChangedDay(rows, spec)
	case AggregateEveryDay:
		return aggregateEveryDay(rows, spec)
	default:
		return nil, fmt.Errorf("subtotal: unknown aggregation %d", spec.Aggregation)
	}
}

// aggregateChangedDay folds the rows into a sparse cumulative series: one
// child per distinct transaction day, each carrying the running total up to
// and including that day. Undated rows form a dateless leading child that
// seeds the series.
func aggregateChangedDay(rows []*entity.Balance, spec *Spec) (*Node, error) {
	days, order := groupByDay(rows)
	node := &Node{}
	var running float64
	for _, key := range order {
		group := days[key]
		for _, r := range group {
			running += contribution(r, spec)
		}
		child := &Node{}
		child.Date = group[0].Date
		child.Fund = running
		node.Items = append(node.Items, child)
	}
	node.Fund = running
	return node, nil
}

// aggregateEveryDay produces a dense daily series over the spec's range,
// carrying the last cumulative value into days without transactions. Rows
// before the range start (and undated rows) fold into the opening balance.
func aggregateEveryDay(rows []*entity.Balance, spec *Spec) (*Node, error) {
	days, order := groupByDay(rows)

	var first, last *entity.Date
	for _, key := range order {
		d := days[key][0].Date
		if d == nil {
			continue
		}
		if first == nil {
			first = d
		}
		last = d
	}

	start, end := first, last
	if spec.Range != nil {
		if spec.Range.Start != nil {
			start = spec.Range.Start
		}
		if spec.Range.End != nil {
			end = spec.Range.End
		}
	}
	node := &Node{}
	if start == nil || end == nil || entity.CompareDates(start, end) > 0 {
		// Nothing dated to walk over.
		for _, r := range rows {
			node.Fund += contribution(r, spec)
		}
		return node, nil
	}

	daySum := func(d *entity.Date) float64 {
		group, ok := days[dayKey(d)]
		if !ok {
			return 0
		}
		var sum float64
		for _, r := range group {
			sum += contribution(r, spec)
		}
		return sum
	}

	// Opening balance: undated rows plus everything strictly before start.
	var running float64
	for _, key := range order {
		d := days[key][0].Date
		if d == nil || entity.CompareDates(d, start) < 0 {
			for _, r := range days[key] {
				running += contribution(r, spec)
			}
		}
	}

	for cursor := start; entity.CompareDates(cursor, end) <= 0; cursor = cursor.AddDays(1) {
		running += daySum(cursor)
		child := &Node{}
		child.Date = cursor
		child.Fund = running
		node.Items = append(node.Items, child)
	}
	node.Fund = running
	return node, nil
}

func contribution(r *entity.Balance, spec *Spec) float64 {
	if spec.Gather == GatherCount {
		return 1
	}
	return r.Fund
}

func groupByDay(rows []*entity.Balance) (map[string][]*entity.Balance, []string) {
	groups := make(map[string][]*entity.Balance)
	for _, r := range rows {
		key := dayKey(r.Date)
		groups[key] = append(groups[key], r)
	}
	order := make([]string, 0, len(groups))
	for key := range groups {
		order = append(order, key)
	}
	sort.Slice(order, func(i, j int) bool {
		return entity.CompareDates(groups[order[i]][0].Date, groups[order[j]][0].Date) < 0
	})
	return groups, order
}

func dayKey(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

// partition splits rows by the level's key and returns the groups together
// with a deterministic key order.
func partition(rows []*entity.Balance, level Level) (map[string][]*entity.Balance, []string, error) {
	groups := make(map[string][]*entity.Balance)
	for _, r := range rows {
		key, err := levelKey(r, level)
		if err != nil {
			return nil, nil, err
		}
		groups[key] = append(groups[key], r)
	}
	order := make([]string, 0, len(groups))
	for key := range groups {
		order = append(order, key)
	}
	sort.Slice(order, func(i, j int) bool {
		return lessGroup(groups[order[i]][0], groups[order[j]][0], level, order[i], order[j])
	})
	return groups, order, nil
}

func lessGroup(a, b *entity.Balance, level Level, ka, kb string) bool {
	switch level {
	case LevelTitle:
		return compareIntKeys(a.Title, b.Title) < 0
	case LevelSubTitle:
		return compareIntKeys(a.SubTitle, b.SubTitle) < 0
	case LevelDay, LevelWeek, LevelMonth, LevelYear:
		return entity.CompareDates(bucketDate(a.Date, level), bucketDate(b.Date, level)) < 0
	default:
		return ka < kb
	}
}

func compareIntKeys(a, b *int) int {
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

func levelKey(r *entity.Balance, level Level) (string, error) {
	switch level {
	case LevelTitle:
		return intKey(r.Title), nil
	case LevelSubTitle:
		return intKey(r.SubTitle), nil
	case LevelContent:
		return stringKey(r.Content), nil
	case LevelRemark:
		return stringKey(r.Remark), nil
	case LevelCurrency:
		return stringKey(r.Currency), nil
	case LevelUser:
		return stringKey(r.User), nil
	case LevelDay, LevelWeek, LevelMonth, LevelYear:
		return dayKey(bucketDate(r.Date, level)), nil
	default:
		return "", fmt.Errorf("subtotal: unknown level %d", level)
	}
}

func intKey(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%d", *p)
}

func stringKey(p *string) string {
	if p == nil {
		return "\x00"
	}
	return "v" + *p
}

// bucketDate projects a date to the start of its bucket for the given date
// granularity. Undated rows keep their own nil bucket.
func bucketDate(d *entity.Date, level Level) *entity.Date {
	if d == nil {
		return nil
	}
	switch level {
	case LevelDay:
		return d
	case LevelWeek:
		// ISO weeks start on Monday.
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDays(-offset)
	case LevelMonth:
		return entity.DateOf(d.Year(), d.Month(), 1)
	case LevelYear:
		return entity.DateOf(d.Year(), time.January, 1)
	default:
		return d
	}
}

// stamp writes the grouping key's dimension value onto a freshly built
// child node.
func stamp(node *Node, level Level, sample *entity.Balance) error {
	switch level {
	case LevelTitle:
		node.Title = sample.Title
	case LevelSubTitle:
		node.SubTitle = sample.SubTitle
	case LevelContent:
		node.Content = sample.Content
	case LevelRemark:
		node.Remark = sample.Remark
	case LevelCurrency:
		node.Currency = sample.Currency
	case LevelUser:
		node.User = sample.User
	case LevelDay, LevelWeek, LevelMonth, LevelYear:
		node.Date = bucketDate(sample.Date, level)
	default:
		return fmt.Errorf("subtotal: unknown level %d", level)
	}
	return nil
}
