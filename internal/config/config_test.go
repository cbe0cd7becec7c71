package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Symbols.Benchmark != "XAU" || cfg.Symbols.Stock != "002155" {
		t.Fatalf("default symbols wrong: %+v", cfg.Symbols)
	}
	if cfg.Strategy.BaseInvestment != 1000 || cfg.Strategy.MaxHoldDays != 30 {
		t.Fatalf("default strategy params wrong: %+v", cfg.Strategy)
	}
	if cfg.Similarity.Correlation != 0.30 {
		t.Fatalf("default similarity weights wrong: %+v", cfg.Similarity)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
symbols:
  benchmark: GOLD
  stock: "600900"
strategy:
  base_investment: 2000
  stop_loss_rate: 0.08
  profit_callback_rate: 0.02
  max_profit_rate: 0.4
  min_gold_change: 0.003
  min_buy_amount: 150
  transaction_cost_rate: 0.0015
  max_hold_days: 20
server:
  listen: ":9000"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("BASE_INVESTMENT", "3000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Symbols.Benchmark != "GOLD" || cfg.Symbols.Stock != "600900" {
		t.Fatalf("file values not applied: %+v", cfg.Symbols)
	}
	// Environment wins over the file.
	if cfg.Server.Listen != ":7000" {
		t.Fatalf("listen = %s, want env override :7000", cfg.Server.Listen)
	}
	if cfg.Strategy.BaseInvestment != 3000 {
		t.Fatalf("base investment = %v, want env override 3000", cfg.Strategy.BaseInvestment)
	}
	if cfg.Strategy.MaxHoldDays != 20 {
		t.Fatalf("max hold days = %v, want file value 20", cfg.Strategy.MaxHoldDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Strategy.StopLossRate = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range stop loss")
	}
}
