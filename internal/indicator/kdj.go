package indicator

import (
	"errors"
	"math"

	"GoldMirror/internal/model"
)

// CalculateKDJ computes the stochastic K/D/J series. RSV looks back
// p.N bars for the rolling high/low; K and D are exponential averages
// with alpha 1/p.KSmooth and 1/p.DSmooth; J = 3K - 2D. A flat lookback
// window (high == low) yields an undefined RSV for that bar, which the
// smoothing carries over.
func CalculateKDJ(bars []model.PriceBar, p KDJParams) (*model.KDJResult, error) {
	if p.N <= 0 || p.KSmooth <= 0 || p.DSmooth <= 0 {
		return nil, errors.New("kdj parameters must be positive")
	}

	n := len(bars)
	rsv := make([]float64, n)
	for i := range bars {
		if i+1 < p.N {
			rsv[i] = math.NaN()
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for j := i + 1 - p.N; j <= i; j++ {
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
			if bars[j].High > hi {
				hi = bars[j].High
			}
		}
		if hi == lo {
			rsv[i] = math.NaN()
			continue
		}
		rsv[i] = (bars[i].Close - lo) / (hi - lo) * 100
	}

	k := ewma(rsv, 1/float64(p.KSmooth))
	d := ewma(k, 1/float64(p.DSmooth))
	j := make([]float64, n)
	for i := range j {
		j[i] = 3*k[i] - 2*d[i]
	}

	state, event := crossFlags(k, d)
	return &model.KDJResult{
		KEMA:             model.FloatSeries(k),
		DEMA:             model.FloatSeries(d),
		J:                model.FloatSeries(j),
		GoldenCrossState: state,
		GoldenCrossEvent: event,
	}, nil
}
