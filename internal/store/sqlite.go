package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"GoldMirror/internal/model"
)

// SQLiteStore is the durable LedgerStore. Ledgers live in typed tables:
// one row per key plus a trade_history table, written atomically so a
// crash never leaves a half-saved ledger.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite ledger store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledgers (
			key                TEXT PRIMARY KEY,
			total_cost         REAL NOT NULL,
			total_shares       REAL NOT NULL,
			history_max_profit REAL NOT NULL,
			last_total_profit  REAL NOT NULL,
			last_trade_date    INTEGER,
			buy_price          REAL,
			buy_shares         REAL,
			buy_amount         REAL,
			buy_date           INTEGER,
			updated_at         INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS trade_history (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			key               TEXT NOT NULL,
			sell_price        REAL NOT NULL,
			shares            REAL NOT NULL,
			sell_amount       REAL NOT NULL,
			net_sell_amount   REAL NOT NULL,
			total_cost        REAL NOT NULL,
			total_profit      REAL NOT NULL,
			total_profit_rate REAL NOT NULL,
			transaction_cost  REAL NOT NULL,
			sell_date         INTEGER NOT NULL,
			sell_reason       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_key ON trade_history(key, id)`,

		`CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			stock      TEXT NOT NULL,
			benchmark  TEXT NOT NULL,
			score      REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_stock ON analysis_snapshots(stock, id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Load reads the ledger for key, or returns an empty ledger when the
// key has never been saved.
func (s *SQLiteStore) Load(key string) (*model.PositionLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := &model.PositionLedger{}
	var lastTrade, updatedAt int64
	var buyPrice, buyShares, buyAmount sql.NullFloat64
	var buyDate sql.NullInt64

	err := s.db.QueryRow(`SELECT total_cost, total_shares, history_max_profit,
			last_total_profit, last_trade_date, buy_price, buy_shares, buy_amount,
			buy_date, updated_at
		FROM ledgers WHERE key = ?`, key).Scan(
		&ledger.TotalCost, &ledger.TotalShares, &ledger.HistoryMaxProfit,
		&ledger.LastTotalProfit, &lastTrade, &buyPrice, &buyShares, &buyAmount,
		&buyDate, &updatedAt)
	if err == sql.ErrNoRows {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %q: %w", key, err)
	}

	if lastTrade > 0 {
		ledger.LastTradeDate = time.Unix(lastTrade, 0).UTC()
	}
	if updatedAt > 0 {
		ledger.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	}
	if buyPrice.Valid {
		ledger.OpenPosition = &model.OpenPosition{
			BuyPrice:  buyPrice.Float64,
			Shares:    buyShares.Float64,
			BuyAmount: buyAmount.Float64,
		}
		if buyDate.Valid {
			ledger.OpenPosition.BuyDate = time.Unix(buyDate.Int64, 0).UTC()
		}
	}

	rows, err := s.db.Query(`SELECT sell_price, shares, sell_amount, net_sell_amount,
			total_cost, total_profit, total_profit_rate, transaction_cost, sell_date, sell_reason
		FROM trade_history WHERE key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("load trade history %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr model.TradeRecord
		var sellDate int64
		if err := rows.Scan(&tr.SellPrice, &tr.Shares, &tr.SellAmount, &tr.NetSellAmount,
			&tr.TotalCost, &tr.TotalProfit, &tr.TotalProfitRate, &tr.TransactionCost,
			&sellDate, &tr.SellReason); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		tr.SellDate = time.Unix(sellDate, 0).UTC()
		ledger.TradeHistory = append(ledger.TradeHistory, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return ledger, nil
}

// Save writes the whole ledger in one transaction, replacing the
// previous row and trade history for the key.
func (s *SQLiteStore) Save(key string, ledger *model.PositionLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var lastTrade, updatedAt int64
	if !ledger.LastTradeDate.IsZero() {
		lastTrade = ledger.LastTradeDate.Unix()
	}
	if !ledger.UpdatedAt.IsZero() {
		updatedAt = ledger.UpdatedAt.Unix()
	}
	var buyPrice, buyShares, buyAmount sql.NullFloat64
	var buyDate sql.NullInt64
	if pos := ledger.OpenPosition; pos != nil {
		buyPrice = sql.NullFloat64{Float64: pos.BuyPrice, Valid: true}
		buyShares = sql.NullFloat64{Float64: pos.Shares, Valid: true}
		buyAmount = sql.NullFloat64{Float64: pos.BuyAmount, Valid: true}
		if !pos.BuyDate.IsZero() {
			buyDate = sql.NullInt64{Int64: pos.BuyDate.Unix(), Valid: true}
		}
	}

	if _, err := tx.Exec(`INSERT INTO ledgers (key, total_cost, total_shares,
			history_max_profit, last_total_profit, last_trade_date, buy_price,
			buy_shares, buy_amount, buy_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			total_cost = excluded.total_cost,
			total_shares = excluded.total_shares,
			history_max_profit = excluded.history_max_profit,
			last_total_profit = excluded.last_total_profit,
			last_trade_date = excluded.last_trade_date,
			buy_price = excluded.buy_price,
			buy_shares = excluded.buy_shares,
			buy_amount = excluded.buy_amount,
			buy_date = excluded.buy_date,
			updated_at = excluded.updated_at`,
		key, ledger.TotalCost, ledger.TotalShares, ledger.HistoryMaxProfit,
		ledger.LastTotalProfit, lastTrade, buyPrice, buyShares, buyAmount,
		buyDate, updatedAt); err != nil {
		return fmt.Errorf("save ledger %q: %w", key, err)
	}

	if _, err := tx.Exec(`DELETE FROM trade_history WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear trade history %q: %w", key, err)
	}
	for _, tr := range ledger.TradeHistory {
		if _, err := tx.Exec(`INSERT INTO trade_history (key, sell_price, shares,
				sell_amount, net_sell_amount, total_cost, total_profit,
				total_profit_rate, transaction_cost, sell_date, sell_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, tr.SellPrice, tr.Shares, tr.SellAmount, tr.NetSellAmount,
			tr.TotalCost, tr.TotalProfit, tr.TotalProfitRate, tr.TransactionCost,
			tr.SellDate.Unix(), tr.SellReason); err != nil {
			return fmt.Errorf("save trade for %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
