// Package output renders subtotal trees and monetary amounts for the
// terminal.
package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/zhanghe-dev/accountant/subtotal"
)

var (
	amountStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF5FFF", Dark: "#AF5FFF"})
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	totalStyle  = lipgloss.NewStyle().Bold(true)
)

// currencyPrecision maps currency codes to display decimal places.
// Unlisted currencies render with two.
var currencyPrecision = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"BTC": 8,
}

// FormatFund renders a fund value with the currency's display precision.
// Rounding happens in decimal arithmetic so that 0.005 never renders as
// 0.00 or 0.01 depending on the binary representation.
func FormatFund(fund float64, currency string) string {
	prec, ok := currencyPrecision[currency]
	if !ok {
		prec = 2
	}
	return decimal.NewFromFloat(fund).StringFixed(prec)
}

// RenderTree renders a subtotal tree with one line per node, indented by
// depth, labels left and amounts right-aligned into a common column.
func RenderTree(root *subtotal.Node, currency string) string {
	var lines []struct {
		label  string
		amount string
		total  bool
	}
	var walk func(n *subtotal.Node, depth int)
	walk = func(n *subtotal.Node, depth int) {
		label := strings.Repeat("  ", depth) + nodeLabel(n, depth)
		lines = append(lines, struct {
			label  string
			amount string
			total  bool
		}{label, FormatFund(n.Fund, currency), depth == 0})
		for _, child := range n.Items {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	width := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l.label); w > width {
			width = w
		}
	}

	var b strings.Builder
	for _, l := range lines {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(l.label)+2)
		label := labelStyle.Render(l.label)
		amount := amountStyle.Render(l.amount)
		if l.total {
			label = totalStyle.Render(l.label)
			amount = totalStyle.Render(l.amount)
		}
		b.WriteString(label + pad + amount + "\n")
	}
	return b.String()
}

func nodeLabel(n *subtotal.Node, depth int) string {
	if depth == 0 {
		return "total"
	}
	switch {
	case n.Date != nil:
		return n.Date.String()
	case n.Title != nil && n.SubTitle != nil:
		return fmt.Sprintf("%d.%02d", *n.Title, *n.SubTitle)
	case n.SubTitle != nil:
		return fmt.Sprintf(".%02d", *n.SubTitle)
	case n.Title != nil:
		return fmt.Sprintf("%d", *n.Title)
	case n.Content != nil:
		return *n.Content
	case n.Remark != nil:
		return *n.Remark
	case n.Currency != nil:
		return *n.Currency
	case n.User != nil:
		return *n.User
	default:
		return "(none)"
	}
}
