package strategy

import "fmt"

// Params tunes the benchmark-follower trading strategy. Rates are
// fractions, not percentages.
type Params struct {
	BaseInvestment      float64 `yaml:"base_investment" json:"base_investment"`
	StopLossRate        float64 `yaml:"stop_loss_rate" json:"stop_loss_rate"`
	ProfitCallbackRate  float64 `yaml:"profit_callback_rate" json:"profit_callback_rate"`
	MaxProfitRate       float64 `yaml:"max_profit_rate" json:"max_profit_rate"`
	MinGoldChange       float64 `yaml:"min_gold_change" json:"min_gold_change"`
	MinBuyAmount        float64 `yaml:"min_buy_amount" json:"min_buy_amount"`
	TransactionCostRate float64 `yaml:"transaction_cost_rate" json:"transaction_cost_rate"`
	MaxHoldDays         int     `yaml:"max_hold_days" json:"max_hold_days"`
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		BaseInvestment:      1000,
		StopLossRate:        0.10,
		ProfitCallbackRate:  0.01,
		MaxProfitRate:       0.5,
		MinGoldChange:       0.002,
		MinBuyAmount:        100,
		TransactionCostRate: 0.001,
		MaxHoldDays:         30,
	}
}

// Validate rejects parameter sets that would make the strategy
// degenerate.
func (p Params) Validate() error {
	if p.BaseInvestment <= 0 {
		return fmt.Errorf("base_investment must be positive, got %v", p.BaseInvestment)
	}
	if p.StopLossRate <= 0 || p.StopLossRate >= 1 {
		return fmt.Errorf("stop_loss_rate must be in (0,1), got %v", p.StopLossRate)
	}
	if p.ProfitCallbackRate <= 0 || p.ProfitCallbackRate >= 1 {
		return fmt.Errorf("profit_callback_rate must be in (0,1), got %v", p.ProfitCallbackRate)
	}
	if p.MaxProfitRate <= 0 {
		return fmt.Errorf("max_profit_rate must be positive, got %v", p.MaxProfitRate)
	}
	if p.MinBuyAmount < 0 || p.MinBuyAmount > p.BaseInvestment {
		return fmt.Errorf("min_buy_amount must be in [0, base_investment], got %v", p.MinBuyAmount)
	}
	if p.TransactionCostRate < 0 || p.TransactionCostRate >= 1 {
		return fmt.Errorf("transaction_cost_rate must be in [0,1), got %v", p.TransactionCostRate)
	}
	if p.MaxHoldDays <= 0 {
		return fmt.Errorf("max_hold_days must be positive, got %v", p.MaxHoldDays)
	}
	return nil
}
