package notifier

import (
	"fmt"
	"strings"

	"GoldMirror/internal/strategy"
)

// FormatTradeReport formats one strategy run into a Telegram message.
func FormatTradeReport(symbol string, res *strategy.TradeResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>GoldMirror daily run</b> | %s\n\n", res.Timestamp.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Benchmark: %.2f (%+.2f%%)\n", res.GoldPrice, res.GoldChangeRate*100))
	b.WriteString(fmt.Sprintf("%s price: %.2f\n\n", symbol, res.StockPrice))

	switch res.Action {
	case strategy.ActionBuy:
		b.WriteString(fmt.Sprintf("💰 <b>BUY</b> %.4f shares for ¥%.2f (fee ¥%.2f)\n",
			res.Shares, res.BuyAmount, res.TransactionCost))
	case strategy.ActionSell:
		b.WriteString(fmt.Sprintf("🔔 <b>SELL</b> everything, profit ¥%.2f (%+.2f%%)\n",
			res.TotalProfit, res.TotalProfitRate*100))
		b.WriteString(fmt.Sprintf("   reason: %s\n", res.SellReason))
	default:
		b.WriteString("💤 No trade today\n")
	}

	if res.Holding {
		b.WriteString(fmt.Sprintf("\n📦 Position: %.4f shares, cost ¥%.2f\n",
			res.TotalShares, res.TotalCost))
		b.WriteString(fmt.Sprintf("   market value ¥%.2f, unrealized ¥%.2f (%+.2f%%)\n",
			res.MarketValue, res.UnrealizedProfit, res.UnrealizedRate*100))
		b.WriteString(fmt.Sprintf("   peak profit ¥%.2f\n", res.HistoryMaxProfit))
	} else {
		b.WriteString("\n📦 No open position\n")
	}
	return b.String()
}

// FormatStatus formats the current position for display.
func FormatStatus(symbol string, status strategy.StatusReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s position</b>\n\n", symbol))
	if !status.HasPosition {
		b.WriteString("No open position\n")
	} else {
		b.WriteString(fmt.Sprintf("Shares: %.4f\n", status.TotalShares))
		b.WriteString(fmt.Sprintf("Cost: ¥%.2f\n", status.TotalCost))
		if status.CurrentPrice > 0 {
			b.WriteString(fmt.Sprintf("Market value: ¥%.2f\n", status.MarketValue))
			b.WriteString(fmt.Sprintf("Unrealized: ¥%.2f (%+.2f%%)\n", status.Profit, status.ProfitRate*100))
		}
		b.WriteString(fmt.Sprintf("Peak profit: ¥%.2f\n", status.HistoryMaxProfit))
	}
	b.WriteString(fmt.Sprintf("Completed trades: %d\n", status.TradeCount))
	return b.String()
}

// FormatSummary formats the lifetime trade summary.
func FormatSummary(summary strategy.TradeSummary) string {
	var b strings.Builder
	b.WriteString("📅 <b>Trade summary</b>\n\n")
	b.WriteString(fmt.Sprintf("Round trips: %d\n", summary.TotalTrades))
	b.WriteString(fmt.Sprintf("Wins: %d (%.1f%%)\n", summary.WinTrades, summary.WinRate*100))
	b.WriteString(fmt.Sprintf("Net profit: ¥%.2f\n", summary.TotalNetProfit))
	b.WriteString(fmt.Sprintf("Fees paid: ¥%.2f\n", summary.TotalTransactionCost))
	return b.String()
}
