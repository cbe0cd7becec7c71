package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"GoldMirror/internal/model"
	"GoldMirror/internal/store"
)

func testDate(d int) time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func newTestEngine(t *testing.T, ledger *model.PositionLedger) *Engine {
	t.Helper()
	st := store.NewMemoryStore()
	if ledger != nil {
		if err := st.Save("test", ledger); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}
	e, err := NewEngine(DefaultParams(), st, "test")
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestShouldBuySizing(t *testing.T) {
	e := newTestEngine(t, nil)

	cases := []struct {
		rate   float64
		buy    bool
		amount float64
	}{
		{0.001, false, 0},   // below threshold
		{0.002, true, 100},  // at threshold, floored to the minimum
		{0.01, true, 100},   // 10 would be too small, floored
		{0.15, true, 150},   // proportional sizing
		{0.5, true, 500},    // proportional sizing
		{2.0, true, 1000},   // capped at the base investment
		{-0.05, false, 0},   // falling benchmark never buys
	}
	for _, c := range cases {
		buy, amount := e.ShouldBuy(c.rate)
		if buy != c.buy || amount != c.amount {
			t.Errorf("ShouldBuy(%v) = (%v, %v), want (%v, %v)", c.rate, buy, amount, c.buy, c.amount)
		}
	}
}

func TestShouldSellStopLoss(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:   1000,
		TotalShares: 100,
	})
	// 100 shares at 8.5 = 850, a 15% loss against a 10% stop.
	d := e.ShouldSell(8.5, testDate(0))
	if !d.Sell || d.Reason != ReasonStopLoss {
		t.Fatalf("expected stop loss, got %+v", d)
	}
	// 9.5 is only a 5% loss, position is kept.
	if d := e.ShouldSell(9.5, testDate(0)); d.Sell {
		t.Fatalf("expected hold at a 5%% loss, got %+v", d)
	}
}

func TestShouldSellProfitPullback(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:        1000,
		TotalShares:      100,
		HistoryMaxProfit: 100,
	})
	// Profit 90 is a 10% pullback from the 100 peak, above the 1% limit.
	d := e.ShouldSell(10.9, testDate(0))
	if !d.Sell || d.Reason != ReasonProfitPullback {
		t.Fatalf("expected profit pullback, got %+v", d)
	}
	// Profit 100 matches the peak, no pullback.
	if d := e.ShouldSell(11.0, testDate(0)); d.Sell {
		t.Fatalf("expected hold at the peak, got %+v", d)
	}
}

func TestShouldSellMaxHoldDays(t *testing.T) {
	buyDate := testDate(0)
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:   1000,
		TotalShares: 100,
		OpenPosition: &model.OpenPosition{
			BuyPrice: 10,
			Shares:   100,
			BuyDate:  buyDate,
		},
	})
	d := e.ShouldSell(10.05, buyDate.AddDate(0, 0, 31))
	if !d.Sell || d.Reason != ReasonMaxHoldDays {
		t.Fatalf("expected max hold days after 31 days, got %+v", d)
	}
	if d := e.ShouldSell(10.05, buyDate.AddDate(0, 0, 30)); d.Sell {
		t.Fatalf("expected hold at exactly 30 days, got %+v", d)
	}
}

func TestShouldSellMaxProfit(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:   1000,
		TotalShares: 100,
	})
	// 100 shares at 15.2 = 1520, a 52% gain above the 50% target.
	d := e.ShouldSell(15.2, testDate(0))
	if !d.Sell || d.Reason != ReasonMaxProfit {
		t.Fatalf("expected max profit exit, got %+v", d)
	}
}

func TestShouldSellPrecedence(t *testing.T) {
	// A stop-loss level position that also pulled back from a peak must
	// report the stop loss.
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:        1000,
		TotalShares:      100,
		HistoryMaxProfit: 50,
	})
	d := e.ShouldSell(8.5, testDate(0))
	if !d.Sell || d.Reason != ReasonStopLoss {
		t.Fatalf("stop loss must take precedence, got %+v", d)
	}
}

func TestExecuteBuy(t *testing.T) {
	e := newTestEngine(t, nil)
	res, err := e.Execute(Snapshot{
		Date:          testDate(0),
		GoldPrice:     505,
		PrevGoldPrice: 500, // +1%
		StockPrice:    10,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Action != ActionBuy {
		t.Fatalf("action = %s, want BUY", res.Action)
	}
	if res.BuyAmount != 100 {
		t.Fatalf("buy amount = %v, want 100", res.BuyAmount)
	}
	// Fee 0.1 on 100, shares = 99.9 / 10.
	if math.Abs(res.Shares-9.99) > 1e-9 {
		t.Fatalf("shares = %v, want 9.99", res.Shares)
	}
	if res.TotalCost != 100 {
		t.Fatalf("total cost = %v, want the gross amount 100", res.TotalCost)
	}
	ledger := e.Ledger()
	if ledger.OpenPosition == nil || !ledger.OpenPosition.BuyDate.Equal(testDate(0)) {
		t.Fatalf("open position not recorded: %+v", ledger.OpenPosition)
	}
}

func TestExecuteDailyGuard(t *testing.T) {
	e := newTestEngine(t, nil)
	snap := Snapshot{Date: testDate(0), GoldPrice: 505, PrevGoldPrice: 500, StockPrice: 10}
	if _, err := e.Execute(snap); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	if _, err := e.Execute(snap); !errors.Is(err, ErrTradedToday) {
		t.Fatalf("second Execute = %v, want ErrTradedToday", err)
	}
	// The next day runs again.
	snap.Date = testDate(1)
	snap.PrevGoldPrice, snap.GoldPrice = 505, 504
	if _, err := e.Execute(snap); err != nil {
		t.Fatalf("next-day Execute failed: %v", err)
	}
}

func TestExecuteSellResetsPosition(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:   1000,
		TotalShares: 100,
	})
	res, err := e.Execute(Snapshot{
		Date:          testDate(0),
		GoldPrice:     500,
		PrevGoldPrice: 500, // flat, no buy
		StockPrice:    8.5, // stop loss level
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Action != ActionSell || res.SellReason != ReasonStopLoss {
		t.Fatalf("expected stop loss sell, got %+v", res)
	}
	// 850 gross, 0.85 fee, net 849.15 against 1000 cost.
	if math.Abs(res.TotalProfit-(-150.85)) > 1e-9 {
		t.Fatalf("profit = %v, want -150.85", res.TotalProfit)
	}
	ledger := e.Ledger()
	if ledger.Holding() || ledger.TotalCost != 0 || ledger.OpenPosition != nil {
		t.Fatalf("position not cleared: %+v", ledger)
	}
	if len(ledger.TradeHistory) != 1 {
		t.Fatalf("trade history length = %d, want 1", len(ledger.TradeHistory))
	}
	if ledger.TradeHistory[0].SellReason != ReasonStopLoss {
		t.Fatalf("recorded reason = %s", ledger.TradeHistory[0].SellReason)
	}
}

func TestExecuteHighWaterMarkLifecycle(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:   1000,
		TotalShares: 100,
	})
	// Day 0: flat benchmark, price 10.4 leaves a 40 profit and raises the mark.
	res, err := e.Execute(Snapshot{Date: testDate(0), GoldPrice: 500, PrevGoldPrice: 500, StockPrice: 10.4})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Action != ActionHold || math.Abs(res.HistoryMaxProfit-40) > 1e-9 {
		t.Fatalf("expected mark at 40, got %+v", res)
	}

	// Day 1: profit slips to 20, a 50% pullback, which liquidates below
	// the old peak and therefore resets the mark.
	res, err = e.Execute(Snapshot{Date: testDate(1), GoldPrice: 500, PrevGoldPrice: 500, StockPrice: 10.2})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Action != ActionSell || res.SellReason != ReasonProfitPullback {
		t.Fatalf("expected pullback sell, got %+v", res)
	}
	if res.HistoryMaxProfit != 0 {
		t.Fatalf("mark after a below-peak exit = %v, want 0", res.HistoryMaxProfit)
	}
}

func TestExecuteSellAbovePeakKeepsMark(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TotalCost:        1000,
		TotalShares:      100,
		HistoryMaxProfit: 100,
	})
	// Price 16 realizes roughly 598 profit via the max-profit exit,
	// above the 100 peak, so the mark advances instead of resetting.
	res, err := e.Execute(Snapshot{Date: testDate(0), GoldPrice: 500, PrevGoldPrice: 500, StockPrice: 16})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Action != ActionSell {
		t.Fatalf("expected sell, got %+v", res)
	}
	if res.HistoryMaxProfit <= 100 {
		t.Fatalf("mark = %v, want above the previous 100 peak", res.HistoryMaxProfit)
	}
}

func TestEngineStatePersistsAcrossRestart(t *testing.T) {
	st := store.NewMemoryStore()
	e, err := NewEngine(DefaultParams(), st, "persist")
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := e.Execute(Snapshot{Date: testDate(0), GoldPrice: 505, PrevGoldPrice: 500, StockPrice: 10}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	reloaded, err := NewEngine(DefaultParams(), st, "persist")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	ledger := reloaded.Ledger()
	if !ledger.Holding() || ledger.TotalCost != 100 {
		t.Fatalf("reloaded ledger lost state: %+v", ledger)
	}
}

func TestNormalizeRepairsInconsistentLedger(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{TotalCost: 500}) // cost without shares
	ledger := e.Ledger()
	if ledger.TotalCost != 0 || ledger.TotalShares != 0 {
		t.Fatalf("inconsistent ledger not repaired: %+v", ledger)
	}
}

func TestSummary(t *testing.T) {
	e := newTestEngine(t, &model.PositionLedger{
		TradeHistory: []model.TradeRecord{
			{TotalProfit: 120, TransactionCost: 2},
			{TotalProfit: -50, TransactionCost: 1.5},
			{TotalProfit: 30, TransactionCost: 1},
		},
	})
	s := e.Summary()
	if s.TotalTrades != 3 || s.WinTrades != 2 {
		t.Fatalf("summary counts wrong: %+v", s)
	}
	if math.Abs(s.WinRate-2.0/3) > 1e-9 {
		t.Fatalf("win rate = %v", s.WinRate)
	}
	if math.Abs(s.TotalNetProfit-100) > 1e-9 || math.Abs(s.TotalTransactionCost-4.5) > 1e-9 {
		t.Fatalf("summary totals wrong: %+v", s)
	}
}

func TestExecuteRejectsInvalidPrices(t *testing.T) {
	e := newTestEngine(t, nil)
	if _, err := e.Execute(Snapshot{Date: testDate(0), GoldPrice: 0, PrevGoldPrice: 500, StockPrice: 10}); err == nil {
		t.Fatal("expected error for zero benchmark price")
	}
	if _, err := e.Execute(Snapshot{Date: testDate(0), GoldPrice: 500, PrevGoldPrice: 500, StockPrice: -1}); err == nil {
		t.Fatal("expected error for negative stock price")
	}
}
