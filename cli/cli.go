// Package cli implements the accountant command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/session"
	"github.com/zhanghe-dev/accountant/storage/memory"
	"github.com/zhanghe-dev/accountant/storage/snapshot"
	"github.com/zhanghe-dev/accountant/storage/sqlite"
	"github.com/zhanghe-dev/accountant/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render(successSymbol), message)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render(errorSymbol), errorStyle.Render(message))
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, "%s %s\n", infoStyle.Render(infoSymbol), fmt.Sprintf(format, args...))
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}
	var confirm bool
	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	return confirm, nil
}

func isTerminal() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// book is an open store plus the work needed to flush and release it when
// the command finishes.
type book struct {
	session *session.Session
	close   func(ctx context.Context) error
}

// openBook opens the store named by the global flags: a SQLite database
// when --db is set, otherwise a JSON snapshot file that is written back on
// close.
func (g *Globals) openBook(ctx context.Context) (*book, error) {
	if g.DB != "" {
		store, err := sqlite.Open(g.DB)
		if err != nil {
			return nil, err
		}
		return &book{
			session: session.New(store),
			close:   func(context.Context) error { return store.Close() },
		}, nil
	}
	if g.Snapshot == "" {
		return nil, fmt.Errorf("either --snapshot or --db is required")
	}
	var store *memory.Store
	if _, err := os.Stat(g.Snapshot); os.IsNotExist(err) {
		store = memory.New()
	} else {
		var err error
		store, err = snapshot.Load(ctx, g.Snapshot)
		if err != nil {
			return nil, err
		}
	}
	path := g.Snapshot
	return &book{
		session: session.New(store),
		close:   func(ctx context.Context) error { return snapshot.Save(ctx, path, store) },
	}, nil
}

// commandContext builds the context a command runs under, wiring a timing
// collector when --telemetry is set. The returned report function writes
// collected timings to stderr.
func (g *Globals) commandContext() (context.Context, func()) {
	ctx := context.Background()
	if !g.Telemetry {
		return ctx, func() {}
	}
	collector := telemetry.NewTimingCollector()
	return telemetry.WithCollector(ctx, collector), func() {
		collector.Report(os.Stderr)
	}
}

// parseRange turns optional --start/--end flags into a date range.
func parseRange(start, end string) (*entity.DateRange, error) {
	rng := entity.Unrestricted()
	if start != "" {
		d, err := entity.NewDate(start)
		if err != nil {
			return nil, err
		}
		rng.Start = d
		rng.Nullable = false
	}
	if end != "" {
		d, err := entity.NewDate(end)
		if err != nil {
			return nil, err
		}
		rng.End = d
	}
	return rng, nil
}
