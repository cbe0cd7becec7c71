package model

import (
	"log"
	"time"
)

// OpenPosition is a snapshot of the most recent buy while holding.
type OpenPosition struct {
	BuyPrice  float64   `json:"buy_price"`
	Shares    float64   `json:"shares"`
	BuyAmount float64   `json:"buy_amount"`
	BuyDate   time.Time `json:"buy_date"`
}

// TradeRecord is one completed round trip (full liquidation).
type TradeRecord struct {
	SellPrice       float64   `json:"sell_price"`
	Shares          float64   `json:"shares"`
	SellAmount      float64   `json:"sell_amount"`
	NetSellAmount   float64   `json:"net_sell_amount"`
	TotalCost       float64   `json:"total_cost"`
	TotalProfit     float64   `json:"total_profit"`
	TotalProfitRate float64   `json:"total_profit_rate"`
	TransactionCost float64   `json:"transaction_cost"`
	SellDate        time.Time `json:"sell_date"`
	SellReason      string    `json:"sell_reason"`
}

// PositionLedger is the accumulated trading state for one identity key.
// Repeated buys blend into a single position; a sell always liquidates
// everything, so TotalShares == 0 exactly when TotalCost == 0.
type PositionLedger struct {
	TotalCost        float64       `json:"total_cost"`
	TotalShares      float64       `json:"total_shares"`
	HistoryMaxProfit float64       `json:"history_max_profit"`
	LastTotalProfit  float64       `json:"last_total_profit"`
	LastTradeDate    time.Time     `json:"last_trade_date"`
	TradeHistory     []TradeRecord `json:"trade_history"`
	OpenPosition     *OpenPosition `json:"open_position,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Holding reports whether the ledger has an open position.
func (l *PositionLedger) Holding() bool {
	return l.TotalShares > 0
}

// Normalize repairs an inconsistent ledger (shares and cost must be zero
// together). The repaired ledger is conservative: both cleared.
func (l *PositionLedger) Normalize() {
	if (l.TotalShares == 0) != (l.TotalCost == 0) {
		log.Printf("[WARN] inconsistent ledger (shares=%.4f cost=%.2f), resetting position", l.TotalShares, l.TotalCost)
		l.TotalShares = 0
		l.TotalCost = 0
		l.OpenPosition = nil
	}
}

// MarketValue returns the position's value at the given price.
func (l *PositionLedger) MarketValue(price float64) float64 {
	return l.TotalShares * price
}

// ProfitAt returns the unrealized profit at the given price.
func (l *PositionLedger) ProfitAt(price float64) float64 {
	return l.MarketValue(price) - l.TotalCost
}

// ProfitRateAt returns the unrealized profit rate at the given price,
// or 0 when there is no cost basis.
func (l *PositionLedger) ProfitRateAt(price float64) float64 {
	if l.TotalCost <= 0 {
		return 0
	}
	return l.ProfitAt(price) / l.TotalCost
}
