package model

import "time"

// PriceBar represents a single daily candlestick bar.
// Volume is optional: HasVolume distinguishes "no volume column" from a
// genuine zero, because a zero-filled volume would bias volume scoring.
type PriceBar struct {
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	HasVolume bool
}

// PriceSeries holds raw price data for one symbol, ordered by date.
type PriceSeries struct {
	Symbol    string
	Bars      []PriceBar
	FetchedAt time.Time
}

// Closes extracts the close column.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// HasAnyVolume reports whether at least one bar carries a volume value.
func HasAnyVolume(bars []PriceBar) bool {
	for _, b := range bars {
		if b.HasVolume {
			return true
		}
	}
	return false
}
