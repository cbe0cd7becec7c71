package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// FloatSeries is a float slice whose JSON form maps undefined values
// (NaN, Inf) to null. Warmup bars stay undefined in memory but the
// series still serializes.
type FloatSeries []float64

func (s FloatSeries) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
		} else {
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	}
	return append(buf, ']'), nil
}

func (s *FloatSeries) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FloatSeries, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	*s = out
	return nil
}

// KDJResult holds the final KDJ values for a series plus cross flags.
// GoldenCrossState is the level (K above D today); GoldenCrossEvent is the
// edge (the state became true on the latest bar).
type KDJResult struct {
	KEMA             FloatSeries `json:"k"`
	DEMA             FloatSeries `json:"d"`
	J                FloatSeries `json:"j"`
	GoldenCrossState bool        `json:"golden_cross_state"`
	GoldenCrossEvent bool        `json:"golden_cross_event"`
}

// MACDResult holds DIF/DEA/histogram plus cross flags.
type MACDResult struct {
	DIF              FloatSeries `json:"dif"`
	DEA              FloatSeries `json:"dea"`
	Histogram        FloatSeries `json:"histogram"`
	GoldenCrossState bool        `json:"golden_cross_state"`
	GoldenCrossEvent bool        `json:"golden_cross_event"`
}

// RSIResult holds RSI series per configured period.
type RSIResult struct {
	Periods  []int               `json:"periods"`
	Values   map[int]FloatSeries `json:"values"`
	Oversold bool                `json:"oversold"`
}

// IndicatorSet is the full output of the indicator engine for one series.
type IndicatorSet struct {
	KDJ  KDJResult  `json:"kdj"`
	MACD MACDResult `json:"macd"`
	RSI  RSIResult  `json:"rsi"`
}

// SignalFlags is the fixed signal schema consumed by reporting.
type SignalFlags struct {
	KDJGoldenCross  bool `json:"kdj_golden_cross"`
	MACDGoldenCross bool `json:"macd_golden_cross"`
	RSIOversold     bool `json:"rsi_oversold"`
}

// Signals derives the boolean signal flags from the indicator set.
func (s *IndicatorSet) Signals() SignalFlags {
	return SignalFlags{
		KDJGoldenCross:  s.KDJ.GoldenCrossEvent,
		MACDGoldenCross: s.MACD.GoldenCrossEvent,
		RSIOversold:     s.RSI.Oversold,
	}
}
