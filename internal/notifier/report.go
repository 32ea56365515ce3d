package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/paperdesk/paperdesk/internal/core"
)

// Report is one cycle's portfolio summary, ready to be formatted for any
// channel.
type Report struct {
	GeneratedAt time.Time
	Funds       core.Funds
	Holdings    []core.Position
	Prices      map[string]float64
	Trades      []core.Transaction
}

// Format renders the report as plain text. Markdown-safe: no channel
// specific syntax beyond emoji.
func (r Report) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📋 Paper Desk Report %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04")))

	sb.WriteString("💰 Funds\n")
	for _, class := range core.AssetClasses {
		sb.WriteString(fmt.Sprintf("  %-6s %12.2f\n", class, r.Funds.Get(class)))
	}
	sb.WriteString(fmt.Sprintf("  %-6s %12.2f\n", "Total", r.Funds.Total()))

	if len(r.Holdings) > 0 {
		sb.WriteString("\n📦 Positions\n")
		var unrealized float64
		for _, pos := range r.Holdings {
			price, ok := r.Prices[pos.Symbol]
			if !ok {
				price = pos.AvgCost
			}
			pl := (price - pos.AvgCost) * pos.Quantity
			unrealized += pl
			sb.WriteString(fmt.Sprintf("  %s %s x%.0f @ %.2f now %.2f (%+.2f, %+.2f%%)\n",
				plEmoji(pl), pos.Symbol, pos.Quantity, pos.AvgCost, price,
				pl, pos.UnrealizedPLPercent(price)))
		}
		sb.WriteString(fmt.Sprintf("  Unrealized P&L: %+.2f\n", unrealized))
	} else {
		sb.WriteString("\n📦 No open positions\n")
	}

	if len(r.Trades) > 0 {
		sb.WriteString("\n🔁 Trades this cycle\n")
		for _, tx := range r.Trades {
			line := fmt.Sprintf("  %s %s x%.0f @ %.2f", tx.Type, tx.Symbol, tx.Quantity, tx.Price)
			if tx.Reason != "" {
				line += " (" + tx.Reason + ")"
			}
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}

func plEmoji(pl float64) string {
	if pl < 0 {
		return "📉"
	}
	return "📈"
}
