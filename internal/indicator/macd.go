package indicator

import (
	"errors"

	"GoldMirror/internal/model"
)

// CalculateMACD computes DIF (fast EMA minus slow EMA of the close),
// DEA (EMA of DIF over the signal period) and the doubled histogram.
// EMAs use alpha 2/(span+1) and seed with the first close.
func CalculateMACD(bars []model.PriceBar, p MACDParams) (*model.MACDResult, error) {
	if p.Fast <= 0 || p.Slow <= 0 || p.Signal <= 0 {
		return nil, errors.New("macd parameters must be positive")
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	emaFast := ewma(closes, 2/float64(p.Fast+1))
	emaSlow := ewma(closes, 2/float64(p.Slow+1))

	dif := make([]float64, len(bars))
	for i := range dif {
		dif[i] = emaFast[i] - emaSlow[i]
	}
	dea := ewma(dif, 2/float64(p.Signal+1))
	hist := make([]float64, len(bars))
	for i := range hist {
		hist[i] = (dif[i] - dea[i]) * 2
	}

	state, event := crossFlags(dif, dea)
	return &model.MACDResult{
		DIF:              model.FloatSeries(dif),
		DEA:              model.FloatSeries(dea),
		Histogram:        model.FloatSeries(hist),
		GoldenCrossState: state,
		GoldenCrossEvent: event,
	}, nil
}
