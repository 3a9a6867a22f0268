package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/output"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
	"github.com/zhanghe-dev/accountant/subtotal"
)

// BalanceCmd runs a subtotal over the book and prints the resulting tree.
type BalanceCmd struct {
	Levels      string `help:"Comma-separated grouping levels: title, subtitle, content, remark, currency, user, day, week, month, year." default:"title"`
	Aggregation string `help:"Leaf aggregation: none, changed-day, every-day." enum:"none,changed-day,every-day" default:"none"`
	Gather      string `help:"Gathering: all, non-zero, count." enum:"all,non-zero,count" default:"all"`
	Title       int    `help:"Restrict to one account title." optional:""`
	Start       string `help:"Range start (YYYY-MM-DD)." optional:""`
	End         string `help:"Range end (YYYY-MM-DD)." optional:""`
	Currency    string `help:"Currency used for display precision." default:"BASE"`
}

func (c *BalanceCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	levels, err := parseLevels(c.Levels)
	if err != nil {
		return err
	}
	rng, err := parseRange(c.Start, c.End)
	if err != nil {
		return err
	}

	spec := &subtotal.Spec{
		Levels:      levels,
		Aggregation: parseAggregation(c.Aggregation),
		Gather:      parseGather(c.Gather),
		Range:       rng,
	}
	gq := storage.GroupedQuery{
		Vouchers: query.Atom(&query.VoucherAtom{Range: rng}),
		Subtotal: spec,
	}
	if c.Title != 0 {
		gq.Details = query.Atom(&query.DetailAtom{Title: entity.IntPtr(c.Title)})
	}

	root, err := b.session.Subtotal(ctx, gq)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, output.RenderTree(root, c.Currency))
	return nil
}

func parseLevels(s string) ([]subtotal.Level, error) {
	var levels []subtotal.Level
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "title":
			levels = append(levels, subtotal.LevelTitle)
		case "subtitle":
			levels = append(levels, subtotal.LevelSubTitle)
		case "content":
			levels = append(levels, subtotal.LevelContent)
		case "remark":
			levels = append(levels, subtotal.LevelRemark)
		case "currency":
			levels = append(levels, subtotal.LevelCurrency)
		case "user":
			levels = append(levels, subtotal.LevelUser)
		case "day":
			levels = append(levels, subtotal.LevelDay)
		case "week":
			levels = append(levels, subtotal.LevelWeek)
		case "month":
			levels = append(levels, subtotal.LevelMonth)
		case "year":
			levels = append(levels, subtotal.LevelYear)
		case "":
		default:
			return nil, fmt.Errorf("unknown level %q", name)
		}
	}
	return levels, nil
}

func parseAggregation(s string) subtotal.Aggregation {
	switch s {
	case "changed-day":
		return subtotal.AggregateChangedDay
	case "every-day":
		return subtotal.AggregateEveryDay
	default:
		return subtotal.AggregateNone
	}
}

func parseGather(s string) subtotal.Gather {
	switch s {
	case "non-zero":
		return subtotal.GatherNonZero
	case "count":
		return subtotal.GatherCount
	default:
		return subtotal.GatherAll
	}
}
