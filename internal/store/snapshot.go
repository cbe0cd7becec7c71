package store

import (
	"fmt"
	"time"
)

// AnalysisSnapshot is one persisted similarity analysis result.
type AnalysisSnapshot struct {
	ID        int64     `json:"id"`
	Stock     string    `json:"stock"`
	Benchmark string    `json:"benchmark"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisRecorder keeps a history of analysis runs.
type AnalysisRecorder interface {
	RecordAnalysis(snap AnalysisSnapshot) error
	RecentAnalyses(stock string, limit int) ([]AnalysisSnapshot, error)
}

func (s *SQLiteStore) RecordAnalysis(snap AnalysisSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := s.db.Exec(`INSERT INTO analysis_snapshots (stock, benchmark, score, created_at)
		VALUES (?, ?, ?, ?)`,
		snap.Stock, snap.Benchmark, snap.Score, createdAt.Unix()); err != nil {
		return fmt.Errorf("record analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns up to limit snapshots for the stock, newest
// first.
func (s *SQLiteStore) RecentAnalyses(stock string, limit int) ([]AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.Query(`SELECT id, stock, benchmark, score, created_at
		FROM analysis_snapshots WHERE stock = ? ORDER BY id DESC LIMIT ?`, stock, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var snaps []AnalysisSnapshot
	for rows.Next() {
		var snap AnalysisSnapshot
		var createdAt int64
		if err := rows.Scan(&snap.ID, &snap.Stock, &snap.Benchmark, &snap.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		snap.CreatedAt = time.Unix(createdAt, 0).UTC()
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
