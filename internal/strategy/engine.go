package strategy

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"GoldMirror/internal/model"
	"GoldMirror/internal/store"
)

// Trade actions reported by Execute.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Sell reason codes, in decision order.
const (
	ReasonStopLoss       = "stop_loss"
	ReasonProfitPullback = "profit_pullback"
	ReasonMaxHoldDays    = "max_hold_days"
	ReasonMaxProfit      = "max_profit"
)

// ErrTradedToday is returned when the daily trade guard blocks a run.
var ErrTradedToday = errors.New("already traded today")

// Snapshot carries the market inputs for one strategy evaluation.
type Snapshot struct {
	Date          time.Time `json:"date"`
	GoldPrice     float64   `json:"gold_price"`
	PrevGoldPrice float64   `json:"prev_gold_price"`
	StockPrice    float64   `json:"stock_price"`
}

// SellDecision is the outcome of the sell checks.
type SellDecision struct {
	Sell   bool   `json:"sell"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// TradeResult reports what one Execute call did and the resulting
// position state.
type TradeResult struct {
	Timestamp        time.Time `json:"timestamp"`
	GoldPrice        float64   `json:"gold_price"`
	GoldChangeRate   float64   `json:"gold_change_rate"`
	StockPrice       float64   `json:"stock_price"`
	Action           string    `json:"action"`
	BuyAmount        float64   `json:"buy_amount,omitempty"`
	Shares           float64   `json:"shares,omitempty"`
	TransactionCost  float64   `json:"transaction_cost,omitempty"`
	SellReason       string    `json:"sell_reason,omitempty"`
	TotalProfit      float64   `json:"total_profit,omitempty"`
	TotalProfitRate  float64   `json:"total_profit_rate,omitempty"`
	Holding          bool      `json:"holding"`
	TotalShares      float64   `json:"total_shares"`
	TotalCost        float64   `json:"total_cost"`
	MarketValue      float64   `json:"market_value"`
	UnrealizedProfit float64   `json:"unrealized_profit"`
	UnrealizedRate   float64   `json:"unrealized_rate"`
	HistoryMaxProfit float64   `json:"history_max_profit"`
}

// StatusReport summarizes the current position at a given price.
type StatusReport struct {
	HasPosition      bool    `json:"has_position"`
	TotalCost        float64 `json:"total_cost"`
	TotalShares      float64 `json:"total_shares"`
	CurrentPrice     float64 `json:"current_price,omitempty"`
	MarketValue      float64 `json:"market_value,omitempty"`
	Profit           float64 `json:"profit,omitempty"`
	ProfitRate       float64 `json:"profit_rate,omitempty"`
	HistoryMaxProfit float64 `json:"history_max_profit"`
	TradeCount       int     `json:"trade_count"`
}

// TradeSummary aggregates the completed round trips.
type TradeSummary struct {
	TotalTrades          int     `json:"total_trades"`
	WinTrades            int     `json:"win_trades"`
	WinRate              float64 `json:"win_rate"`
	TotalNetProfit       float64 `json:"total_net_profit"`
	TotalTransactionCost float64 `json:"total_transaction_cost"`
}

// Engine runs the benchmark-follower strategy against one position
// ledger. All state changes go through the injected LedgerStore so the
// ledger survives restarts. Safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	params     Params
	store      store.LedgerStore
	key        string
	ledger     *model.PositionLedger
	dailyGuard bool
}

// NewEngine loads (or initializes) the ledger for key and returns a
// live engine with the one-trade-per-day guard enabled.
func NewEngine(params Params, st store.LedgerStore, key string) (*Engine, error) {
	return newEngine(params, st, key, true)
}

func newEngine(params Params, st store.LedgerStore, key string, dailyGuard bool) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy params: %w", err)
	}
	if st == nil {
		return nil, errors.New("ledger store is required")
	}
	ledger, err := st.Load(key)
	if err != nil {
		return nil, fmt.Errorf("load ledger %q: %w", key, err)
	}
	ledger.Normalize()
	log.Printf("[INFO] strategy %s: cost=%.2f shares=%.4f maxProfit=%.2f trades=%d",
		key, ledger.TotalCost, ledger.TotalShares, ledger.HistoryMaxProfit, len(ledger.TradeHistory))
	return &Engine{
		params:     params,
		store:      st,
		key:        key,
		ledger:     ledger,
		dailyGuard: dailyGuard,
	}, nil
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params { return e.params }

// ShouldBuy sizes a buy from the benchmark's daily change rate. Below
// the minimum change threshold nothing is bought; otherwise the amount
// scales with the change, floored at MinBuyAmount and capped at
// BaseInvestment.
func (e *Engine) ShouldBuy(goldChangeRate float64) (bool, float64) {
	if goldChangeRate < e.params.MinGoldChange {
		return false, 0
	}
	amount := e.params.BaseInvestment * goldChangeRate
	if amount < e.params.MinBuyAmount {
		amount = e.params.MinBuyAmount
	}
	if amount > e.params.BaseInvestment {
		amount = e.params.BaseInvestment
	}
	return true, amount
}

// ShouldSell evaluates the exit rules against the current price, in
// fixed precedence: stop loss, profit pullback, maximum hold days,
// maximum profit.
func (e *Engine) ShouldSell(price float64, asOf time.Time) SellDecision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shouldSell(price, asOf)
}

func (e *Engine) shouldSell(price float64, asOf time.Time) SellDecision {
	l := e.ledger
	if !l.Holding() {
		return SellDecision{}
	}
	profit := l.ProfitAt(price)
	rate := l.ProfitRateAt(price)

	if rate <= -e.params.StopLossRate {
		return SellDecision{Sell: true, Reason: ReasonStopLoss,
			Detail: fmt.Sprintf("loss %.2f%% breached the stop at %.2f%%", rate*100, e.params.StopLossRate*100)}
	}
	if l.HistoryMaxProfit > 0 {
		pullback := (l.HistoryMaxProfit - profit) / l.HistoryMaxProfit
		if pullback >= e.params.ProfitCallbackRate {
			return SellDecision{Sell: true, Reason: ReasonProfitPullback,
				Detail: fmt.Sprintf("profit fell %.2f%% from peak %.2f", pullback*100, l.HistoryMaxProfit)}
		}
	}
	if l.OpenPosition != nil {
		held := int(asOf.Sub(l.OpenPosition.BuyDate).Hours() / 24)
		if held > e.params.MaxHoldDays {
			return SellDecision{Sell: true, Reason: ReasonMaxHoldDays,
				Detail: fmt.Sprintf("held %d days, limit %d", held, e.params.MaxHoldDays)}
		}
	}
	if rate > e.params.MaxProfitRate {
		return SellDecision{Sell: true, Reason: ReasonMaxProfit,
			Detail: fmt.Sprintf("profit %.2f%% above the %.2f%% target", rate*100, e.params.MaxProfitRate*100)}
	}
	return SellDecision{}
}

// Execute runs one full strategy step: daily guard, buy sizing, sell
// checks, trade application and persistence. Buying takes precedence
// over selling. Returns ErrTradedToday when the guard blocks.
func (e *Engine) Execute(snap Snapshot) (*TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.PrevGoldPrice <= 0 || snap.GoldPrice <= 0 {
		return nil, fmt.Errorf("invalid benchmark prices: %v -> %v", snap.PrevGoldPrice, snap.GoldPrice)
	}
	if snap.StockPrice <= 0 {
		return nil, fmt.Errorf("invalid stock price: %v", snap.StockPrice)
	}
	if e.dailyGuard && sameDay(e.ledger.LastTradeDate, snap.Date) {
		return nil, ErrTradedToday
	}

	goldChange := (snap.GoldPrice - snap.PrevGoldPrice) / snap.PrevGoldPrice
	result := &TradeResult{
		Timestamp:      snap.Date,
		GoldPrice:      snap.GoldPrice,
		GoldChangeRate: goldChange,
		StockPrice:     snap.StockPrice,
		Action:         ActionHold,
	}

	buy, amount := e.ShouldBuy(goldChange)
	var sell SellDecision
	if !buy && e.ledger.Holding() {
		sell = e.shouldSell(snap.StockPrice, snap.Date)
	}

	switch {
	case buy:
		e.applyBuy(snap, amount, result)
	case sell.Sell:
		e.applySell(snap, sell, result)
	}

	// Raise the profit high-water mark while still holding.
	if e.ledger.Holding() {
		profit := e.ledger.ProfitAt(snap.StockPrice)
		if profit > e.ledger.HistoryMaxProfit {
			e.ledger.HistoryMaxProfit = profit
		}
		result.MarketValue = e.ledger.MarketValue(snap.StockPrice)
		result.UnrealizedProfit = profit
		result.UnrealizedRate = e.ledger.ProfitRateAt(snap.StockPrice)
	}
	result.Holding = e.ledger.Holding()
	result.TotalShares = e.ledger.TotalShares
	result.TotalCost = e.ledger.TotalCost
	result.HistoryMaxProfit = e.ledger.HistoryMaxProfit

	e.ledger.UpdatedAt = snap.Date
	if err := e.store.Save(e.key, e.ledger); err != nil {
		return nil, fmt.Errorf("save ledger %q: %w", e.key, err)
	}
	return result, nil
}

func (e *Engine) applyBuy(snap Snapshot, amount float64, result *TradeResult) {
	cost := amount * e.params.TransactionCostRate
	netAmount := amount - cost
	shares := netAmount / snap.StockPrice

	l := e.ledger
	l.TotalCost += amount
	l.TotalShares += shares
	l.OpenPosition = &model.OpenPosition{
		BuyPrice:  snap.StockPrice,
		Shares:    shares,
		BuyAmount: amount,
		BuyDate:   snap.Date,
	}
	l.LastTradeDate = snap.Date

	result.Action = ActionBuy
	result.BuyAmount = amount
	result.Shares = shares
	result.TransactionCost = cost
	log.Printf("[INFO] strategy %s: BUY %.4f shares for %.2f (fee %.2f) at %.2f",
		e.key, shares, amount, cost, snap.StockPrice)
}

func (e *Engine) applySell(snap Snapshot, decision SellDecision, result *TradeResult) {
	l := e.ledger
	sellAmount := l.TotalShares * snap.StockPrice
	cost := sellAmount * e.params.TransactionCostRate
	netAmount := sellAmount - cost
	profit := netAmount - l.TotalCost
	rate := 0.0
	if l.TotalCost > 0 {
		rate = profit / l.TotalCost
	}

	l.TradeHistory = append(l.TradeHistory, model.TradeRecord{
		SellPrice:       snap.StockPrice,
		Shares:          l.TotalShares,
		SellAmount:      sellAmount,
		NetSellAmount:   netAmount,
		TotalCost:       l.TotalCost,
		TotalProfit:     profit,
		TotalProfitRate: rate,
		TransactionCost: cost,
		SellDate:        snap.Date,
		SellReason:      decision.Reason,
	})

	// The high-water mark only survives liquidation when this exit
	// set a new peak; otherwise the next cycle starts clean.
	if profit > l.HistoryMaxProfit {
		l.HistoryMaxProfit = profit
	} else {
		l.HistoryMaxProfit = 0
	}
	l.LastTotalProfit = profit
	l.LastTradeDate = snap.Date
	l.TotalShares = 0
	l.TotalCost = 0
	l.OpenPosition = nil

	result.Action = ActionSell
	result.SellReason = decision.Reason
	result.TransactionCost = cost
	result.TotalProfit = profit
	result.TotalProfitRate = rate
	log.Printf("[INFO] strategy %s: SELL all at %.2f, profit %.2f (%.2f%%), reason=%s",
		e.key, snap.StockPrice, profit, rate*100, decision.Reason)
}

// Status reports the position at the given price. A non-positive price
// yields a report without valuation fields.
func (e *Engine) Status(price float64) StatusReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.ledger
	report := StatusReport{
		HasPosition:      l.Holding(),
		TotalCost:        l.TotalCost,
		TotalShares:      l.TotalShares,
		HistoryMaxProfit: l.HistoryMaxProfit,
		TradeCount:       len(l.TradeHistory),
	}
	if l.Holding() && price > 0 {
		report.CurrentPrice = price
		report.MarketValue = l.MarketValue(price)
		report.Profit = l.ProfitAt(price)
		report.ProfitRate = l.ProfitRateAt(price)
	}
	return report
}

// Summary aggregates all completed round trips.
func (e *Engine) Summary() TradeSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return summarize(e.ledger.TradeHistory)
}

// Ledger returns a deep copy of the current ledger.
func (e *Engine) Ledger() model.PositionLedger {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := *e.ledger
	cp.TradeHistory = append([]model.TradeRecord(nil), e.ledger.TradeHistory...)
	if e.ledger.OpenPosition != nil {
		pos := *e.ledger.OpenPosition
		cp.OpenPosition = &pos
	}
	return cp
}

func summarize(history []model.TradeRecord) TradeSummary {
	s := TradeSummary{TotalTrades: len(history)}
	for _, tr := range history {
		s.TotalNetProfit += tr.TotalProfit
		s.TotalTransactionCost += tr.TransactionCost
		if tr.TotalProfit > 0 {
			s.WinTrades++
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinTrades) / float64(s.TotalTrades)
	}
	return s
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
