package model

import "time"

// Similarity dimension names.
const (
	DimCorrelation = "correlation"
	DimTrend       = "trend"
	DimVolatility  = "volatility"
	DimPattern     = "pattern"
	DimVolume      = "volume"
)

// DimensionScore is one dimension's similarity result, clamped to [0,100].
type DimensionScore struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SimilarityWeights maps the five dimensions to their weights.
// By convention the weights sum to 1.0 but this is not enforced.
type SimilarityWeights struct {
	Correlation float64 `json:"correlation"`
	Trend       float64 `json:"trend"`
	Volatility  float64 `json:"volatility"`
	Pattern     float64 `json:"pattern"`
	Volume      float64 `json:"volume"`
}

// DefaultWeights returns the standard 30/25/20/15/10 configuration.
func DefaultWeights() SimilarityWeights {
	return SimilarityWeights{
		Correlation: 0.30,
		Trend:       0.25,
		Volatility:  0.20,
		Pattern:     0.15,
		Volume:      0.10,
	}
}

// DailyScore is one point of the sliding-window similarity series.
type DailyScore struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// SummaryStats describes the daily similarity series.
type SummaryStats struct {
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Stdev float64 `json:"stdev"`
}

// CompositeSimilarityReport is the full output of a similarity analysis.
// Created fresh per request, never persisted.
type CompositeSimilarityReport struct {
	Score           float64           `json:"score"`
	DimensionScores []DimensionScore  `json:"dimension_scores"`
	Weights         SimilarityWeights `json:"weights"`
	DailySeries     []DailyScore      `json:"daily_series"`
	Summary         SummaryStats      `json:"summary"`
	Commentary      string            `json:"commentary"`
}
