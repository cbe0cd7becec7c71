package indicator

import (
	"errors"
	"math"

	"GoldMirror/internal/model"
)

// oversoldPeriod and oversoldLevel define the oversold flag: the
// shortest conventional RSI below 20 on the latest bar.
const (
	oversoldPeriod = 6
	oversoldLevel  = 20.0
)

// CalculateRSI computes simple-average RSI series for each configured
// period. Bars without a full lookback, and bars whose lookback holds
// no losses, report 0 rather than an undefined value.
func CalculateRSI(bars []model.PriceBar, p RSIParams) (*model.RSIResult, error) {
	if len(p.Periods) == 0 {
		return nil, errors.New("rsi needs at least one period")
	}
	for _, period := range p.Periods {
		if period <= 0 {
			return nil, errors.New("rsi periods must be positive")
		}
	}

	n := len(bars)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := range bars {
		if i == 0 {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	values := make(map[int]model.FloatSeries, len(p.Periods))
	for _, period := range p.Periods {
		rsi := make([]float64, n)
		for i := range rsi {
			avgGain, okG := trailingMean(gains, i, period)
			avgLoss, okL := trailingMean(losses, i, period)
			if !okG || !okL || avgLoss == 0 {
				rsi[i] = 0
				continue
			}
			rs := avgGain / avgLoss
			rsi[i] = 100 - 100/(1+rs)
		}
		values[period] = model.FloatSeries(rsi)
	}

	oversold := false
	if series, ok := values[oversoldPeriod]; ok && n > 0 {
		oversold = series[n-1] < oversoldLevel
	}
	return &model.RSIResult{
		Periods:  append([]int(nil), p.Periods...),
		Values:   values,
		Oversold: oversold,
	}, nil
}

// trailingMean averages vals[i-period+1 .. i]; reports false when the
// window is incomplete or contains an undefined value.
func trailingMean(vals []float64, i, period int) (float64, bool) {
	if i+1 < period {
		return 0, false
	}
	sum := 0.0
	for j := i + 1 - period; j <= i; j++ {
		if math.IsNaN(vals[j]) {
			return 0, false
		}
		sum += vals[j]
	}
	return sum / float64(period), true
}
