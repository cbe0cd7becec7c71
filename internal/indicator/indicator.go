package indicator

import (
	"errors"
	"math"

	"GoldMirror/internal/model"
)

// KDJParams controls the stochastic oscillator calculation.
type KDJParams struct {
	N       int `yaml:"n" json:"n"`
	KSmooth int `yaml:"k_smooth" json:"k_smooth"`
	DSmooth int `yaml:"d_smooth" json:"d_smooth"`
}

// MACDParams controls the MACD calculation.
type MACDParams struct {
	Fast   int `yaml:"fast" json:"fast"`
	Slow   int `yaml:"slow" json:"slow"`
	Signal int `yaml:"signal" json:"signal"`
}

// RSIParams controls the RSI calculation.
type RSIParams struct {
	Periods []int `yaml:"periods" json:"periods"`
}

// Params bundles the parameters for all three indicator families.
type Params struct {
	KDJ  KDJParams  `yaml:"kdj" json:"kdj"`
	MACD MACDParams `yaml:"macd" json:"macd"`
	RSI  RSIParams  `yaml:"rsi" json:"rsi"`
}

// DefaultParams returns the conventional parameter set: KDJ 9/3/3,
// MACD 12/26/9, RSI over 6, 12 and 24 bars.
func DefaultParams() Params {
	return Params{
		KDJ:  KDJParams{N: 9, KSmooth: 3, DSmooth: 3},
		MACD: MACDParams{Fast: 12, Slow: 26, Signal: 9},
		RSI:  RSIParams{Periods: []int{6, 12, 24}},
	}
}

// Merge overlays non-zero override fields on top of p.
func (p Params) Merge(override Params) Params {
	if override.KDJ.N > 0 {
		p.KDJ.N = override.KDJ.N
	}
	if override.KDJ.KSmooth > 0 {
		p.KDJ.KSmooth = override.KDJ.KSmooth
	}
	if override.KDJ.DSmooth > 0 {
		p.KDJ.DSmooth = override.KDJ.DSmooth
	}
	if override.MACD.Fast > 0 {
		p.MACD.Fast = override.MACD.Fast
	}
	if override.MACD.Slow > 0 {
		p.MACD.Slow = override.MACD.Slow
	}
	if override.MACD.Signal > 0 {
		p.MACD.Signal = override.MACD.Signal
	}
	if len(override.RSI.Periods) > 0 {
		p.RSI.Periods = override.RSI.Periods
	}
	return p
}

// Calculate runs KDJ, MACD and RSI over the bars and returns the full
// indicator set. All series are index-aligned with the input bars.
func Calculate(bars []model.PriceBar, p Params) (*model.IndicatorSet, error) {
	if len(bars) == 0 {
		return nil, errors.New("no bars to calculate indicators on")
	}
	kdj, err := CalculateKDJ(bars, p.KDJ)
	if err != nil {
		return nil, err
	}
	macd, err := CalculateMACD(bars, p.MACD)
	if err != nil {
		return nil, err
	}
	rsi, err := CalculateRSI(bars, p.RSI)
	if err != nil {
		return nil, err
	}
	return &model.IndicatorSet{KDJ: *kdj, MACD: *macd, RSI: *rsi}, nil
}

// ewma applies a recursive exponential moving average with the given
// alpha. Output is NaN until the first defined input; later NaN inputs
// repeat the previous value without advancing the state.
func ewma(vals []float64, alpha float64) []float64 {
	out := make([]float64, len(vals))
	state := math.NaN()
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = state
			continue
		}
		if math.IsNaN(state) {
			state = v
		} else {
			state = (1-alpha)*state + alpha*v
		}
		out[i] = state
	}
	return out
}

// crossFlags evaluates the level and edge of fast crossing above slow
// on the final bar. Comparisons against NaN are false.
func crossFlags(fast, slow []float64) (state, event bool) {
	n := len(fast)
	if n == 0 || n != len(slow) {
		return false, false
	}
	state = fast[n-1] > slow[n-1]
	if n < 2 {
		return state, false
	}
	event = state && fast[n-2] <= slow[n-2]
	return state, event
}
