package strategy

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"GoldMirror/internal/model"
	"GoldMirror/internal/store"
)

// CurvePoint is one day of a backtest equity curve.
type CurvePoint struct {
	Date        time.Time `json:"date"`
	MarketValue float64   `json:"market_value"`
	TotalCost   float64   `json:"total_cost"`
	ProfitRate  float64   `json:"profit_rate"`
	StockPrice  float64   `json:"stock_price"`
	GoldPrice   float64   `json:"gold_price"`
	TradeAction string    `json:"trade_action"`
}

// BacktestResult is the full outcome of a historical replay.
type BacktestResult struct {
	Params      Params               `json:"params"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     time.Time            `json:"end_date"`
	Days        int                  `json:"days"`
	ProfitCurve []CurvePoint         `json:"profit_curve"`
	Summary     TradeSummary         `json:"summary"`
	MaxDrawdown float64              `json:"max_drawdown"`
	FinalLedger model.PositionLedger `json:"final_ledger"`
}

// Backtest replays the strategy over historical benchmark and stock
// bars joined on their common dates. It runs on a private in-memory
// ledger with the daily guard disabled, so live state is untouched and
// every bar can trade.
func Backtest(params Params, gold, stock []model.PriceBar) (*BacktestResult, error) {
	if len(gold) == 0 || len(stock) == 0 {
		return nil, errors.New("backtest needs both benchmark and stock bars")
	}

	stockByDate := make(map[time.Time]float64, len(stock))
	for _, b := range stock {
		stockByDate[dateOnly(b.Date)] = b.Close
	}
	type row struct {
		date        time.Time
		gold, stock float64
	}
	var rows []row
	for _, b := range gold {
		d := dateOnly(b.Date)
		if price, ok := stockByDate[d]; ok {
			rows = append(rows, row{date: d, gold: b.Close, stock: price})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	if len(rows) < 2 {
		return nil, errors.New("fewer than two overlapping trading days")
	}

	engine, err := newEngine(params, store.NewMemoryStore(), "backtest", false)
	if err != nil {
		return nil, err
	}

	curve := make([]CurvePoint, 0, len(rows)-1)
	peakRate, maxDrawdown := 0.0, 0.0
	realized := 0.0
	for i := 1; i < len(rows); i++ {
		r := rows[i]
		result, err := engine.Execute(Snapshot{
			Date:          r.date,
			GoldPrice:     r.gold,
			PrevGoldPrice: rows[i-1].gold,
			StockPrice:    r.stock,
		})
		if err != nil {
			return nil, fmt.Errorf("backtest day %s: %w", r.date.Format("2006-01-02"), err)
		}
		if result.Action == ActionSell {
			realized += result.TotalProfit
		}

		point := CurvePoint{
			Date:        r.date,
			MarketValue: result.MarketValue,
			TotalCost:   result.TotalCost,
			ProfitRate:  result.UnrealizedRate,
			StockPrice:  r.stock,
			GoldPrice:   r.gold,
			TradeAction: result.Action,
		}
		curve = append(curve, point)

		if point.ProfitRate > peakRate {
			peakRate = point.ProfitRate
		}
		if dd := peakRate - point.ProfitRate; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	ledger := engine.Ledger()
	bt := &BacktestResult{
		Params:      params,
		StartDate:   rows[1].date,
		EndDate:     rows[len(rows)-1].date,
		Days:        len(rows) - 1,
		ProfitCurve: curve,
		Summary:     summarize(ledger.TradeHistory),
		MaxDrawdown: maxDrawdown,
		FinalLedger: ledger,
	}
	log.Printf("[INFO] backtest: %d days, %d trades, net profit %.2f (realized %.2f), max drawdown %.2f%%",
		bt.Days, bt.Summary.TotalTrades, bt.Summary.TotalNetProfit, realized, maxDrawdown*100)
	return bt, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
