package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/zhanghe-dev/accountant/distributed"
	"github.com/zhanghe-dev/accountant/entity"
)

// AmortizeCmd regenerates an amortization schedule from scratch.
type AmortizeCmd struct {
	ID string `arg:"" help:"Amortization ID."`
}

func (c *AmortizeCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	a, err := b.session.Store().SelectAmortized(ctx, c.ID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown amortization %q", c.ID)
	}
	if err := b.session.Amortize(ctx, a); err != nil {
		return err
	}
	printSuccess(os.Stdout, fmt.Sprintf("%s: %d schedule items", a.Name, len(a.Schedule)))
	return nil
}

// DepreciateCmd regenerates an asset depreciation schedule.
type DepreciateCmd struct {
	ID string `arg:"" help:"Asset ID."`
}

func (c *DepreciateCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	a, err := b.session.Store().SelectAsset(ctx, c.ID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown asset %q", c.ID)
	}
	if err := b.session.Depreciate(ctx, a); err != nil {
		return err
	}
	printSuccess(os.Stdout, fmt.Sprintf("%s: %d schedule items", a.Name, len(a.Schedule)))
	return nil
}

// RegisterCmd binds stored vouchers to schedule items, printing the
// vouchers that need manual review.
type RegisterCmd struct {
	Asset string `help:"Asset ID." xor:"target" required:""`
	Amort string `help:"Amortization ID." xor:"target"`
	Start string `help:"Range start (YYYY-MM-DD)." optional:""`
	End   string `help:"Range end (YYYY-MM-DD)." optional:""`
}

func (c *RegisterCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	rng, err := parseRange(c.Start, c.End)
	if err != nil {
		return err
	}

	var remaining []*entity.Voucher
	switch {
	case c.Amort != "":
		a, err := b.session.Store().SelectAmortized(ctx, c.Amort)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("unknown amortization %q", c.Amort)
		}
		remaining, err = b.session.RegisterAmortized(ctx, a, rng, nil)
		if err != nil {
			return err
		}
	default:
		a, err := b.session.Store().SelectAsset(ctx, c.Asset)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("unknown asset %q", c.Asset)
		}
		remaining, err = b.session.RegisterAsset(ctx, a, rng, nil)
		if err != nil {
			return err
		}
	}

	if len(remaining) == 0 {
		printSuccess(os.Stdout, "all matching vouchers registered")
		return nil
	}
	printInfof(os.Stdout, "%d vouchers need manual review:", len(remaining))
	for _, v := range remaining {
		printError(os.Stdout, fmt.Sprintf("  %s %s", v.Date, v.ID))
	}
	return nil
}

// UpdateCmd reconciles schedule items against stored vouchers, printing
// the items that could not be auto-reconciled.
type UpdateCmd struct {
	Asset     string `help:"Asset ID." xor:"target" required:""`
	Amort     string `help:"Amortization ID." xor:"target"`
	Start     string `help:"Range start (YYYY-MM-DD)." optional:""`
	End       string `help:"Range end (YYYY-MM-DD)." optional:""`
	Collapsed bool   `help:"Generate undated vouchers."`
	EditOnly  bool   `help:"Only edit existing vouchers, never create."`
}

func (c *UpdateCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	rng, err := parseRange(c.Start, c.End)
	if err != nil {
		return err
	}

	failed := 0
	switch {
	case c.Amort != "":
		a, err := b.session.Store().SelectAmortized(ctx, c.Amort)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("unknown amortization %q", c.Amort)
		}
		items, err := b.session.UpdateAmortized(ctx, a, rng, c.Collapsed, c.EditOnly)
		if err != nil {
			return err
		}
		for _, item := range items {
			printError(os.Stdout, fmt.Sprintf("  %s amount %.2f", item.Date, item.Amount))
		}
		failed = len(items)
	default:
		a, err := b.session.Store().SelectAsset(ctx, c.Asset)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("unknown asset %q", c.Asset)
		}
		items, err := b.session.UpdateAsset(ctx, a, rng, c.Collapsed, c.EditOnly)
		if err != nil {
			return err
		}
		for _, item := range items {
			printError(os.Stdout, fmt.Sprintf("  %s value %.2f", item.Base().Date, item.Base().Value))
		}
		failed = len(items)
	}

	if failed == 0 {
		printSuccess(os.Stdout, "all schedule items reconciled")
	} else {
		printInfof(os.Stdout, "%d items need manual review", failed)
	}
	return nil
}

// ResetCmd severs schedule items from their vouchers. Mixed and hard
// resets delete stored vouchers, so they ask for confirmation first.
type ResetCmd struct {
	Asset string `help:"Asset ID." xor:"target" required:""`
	Amort string `help:"Amortization ID." xor:"target"`
	Mode  string `help:"Reset mode: soft, mixed, hard." enum:"soft,mixed,hard" default:"soft"`
	Start string `help:"Range start (YYYY-MM-DD)." optional:""`
	End   string `help:"Range end (YYYY-MM-DD)." optional:""`
	Force bool   `help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	mode := distributed.ResetSoft
	switch c.Mode {
	case "mixed":
		mode = distributed.ResetMixed
	case "hard":
		mode = distributed.ResetHard
	}
	if mode != distributed.ResetSoft && !c.Force {
		confirmed, err := promptYesNo(fmt.Sprintf("A %s reset deletes stored vouchers. Continue?", c.Mode))
		if err != nil {
			return err
		}
		if !confirmed {
			printInfof(os.Stdout, "aborted")
			return nil
		}
	}

	b, err := globals.openBook(ctx)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	rng, err := parseRange(c.Start, c.End)
	if err != nil {
		return err
	}

	cleared, err := c.run(ctx, b, rng, mode)
	if err != nil {
		return err
	}
	printSuccess(os.Stdout, fmt.Sprintf("%d links cleared", cleared))
	return nil
}

func (c *ResetCmd) run(ctx context.Context, b *book, rng *entity.DateRange, mode distributed.ResetMode) (int, error) {
	if c.Amort != "" {
		a, err := b.session.Store().SelectAmortized(ctx, c.Amort)
		if err != nil {
			return 0, err
		}
		if a == nil {
			return 0, fmt.Errorf("unknown amortization %q", c.Amort)
		}
		return b.session.ResetAmortized(ctx, a, rng, mode)
	}
	a, err := b.session.Store().SelectAsset(ctx, c.Asset)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, fmt.Errorf("unknown asset %q", c.Asset)
	}
	return b.session.ResetAsset(ctx, a, rng, mode)
}
