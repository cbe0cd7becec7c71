package collector

import (
	"errors"
	"fmt"
	"strings"

	"GoldMirror/internal/model"
)

// Source fetches daily price history for one symbol. Implementations
// return ErrDataUnavailable (possibly wrapped) when the upstream has no
// usable data, so the chain can move on to the next source.
type Source interface {
	FetchDailyBars(symbol string, months int) ([]model.PriceBar, error)
	Name() string
}

// ErrDataUnavailable marks an upstream that answered but had no usable
// data for the symbol.
var ErrDataUnavailable = errors.New("no data available")

// UpstreamError aggregates the failures of every attempted source.
type UpstreamError struct {
	Symbol   string
	Attempts []AttemptError
}

// AttemptError is one failed source attempt.
type AttemptError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Source, a.Err)
	}
	return fmt.Sprintf("all sources failed for %s: %s", e.Symbol, strings.Join(parts, "; "))
}
