package collector

import (
	"fmt"
	"log"

	"GoldMirror/internal/model"
)

// Chain tries each source in order until one returns usable bars. When
// every source fails it returns an UpstreamError naming each attempt.
type Chain struct {
	sources []Source
}

// NewChain builds a chain over the given sources, attempted in order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// FetchDailyBars walks the chain for the symbol's daily history.
func (c *Chain) FetchDailyBars(symbol string, months int) ([]model.PriceBar, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("no sources configured for %s", symbol)
	}
	var attempts []AttemptError
	for _, src := range c.sources {
		bars, err := src.FetchDailyBars(symbol, months)
		if err == nil && len(bars) == 0 {
			err = ErrDataUnavailable
		}
		if err != nil {
			log.Printf("[WARN] collector: %s failed for %s: %v", src.Name(), symbol, err)
			attempts = append(attempts, AttemptError{Source: src.Name(), Err: err})
			continue
		}
		log.Printf("[INFO] collector: %s returned %d bars for %s", src.Name(), len(bars), symbol)
		return bars, nil
	}
	return nil, &UpstreamError{Symbol: symbol, Attempts: attempts}
}

// LatestQuote returns the symbol's latest close and the close of the
// bar before it.
func (c *Chain) LatestQuote(symbol string) (current, previous float64, err error) {
	bars, err := c.FetchDailyBars(symbol, 1)
	if err != nil {
		return 0, 0, err
	}
	if len(bars) < 2 {
		return 0, 0, fmt.Errorf("%s: need two closes for a quote, got %d bars: %w",
			symbol, len(bars), ErrDataUnavailable)
	}
	return bars[len(bars)-1].Close, bars[len(bars)-2].Close, nil
}
