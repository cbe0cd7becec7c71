package similarity

import (
	"log"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"GoldMirror/internal/model"
	"GoldMirror/internal/series"
)

// DefaultWindowSize is the sliding-window length for the daily series.
// Each point covers window_size+1 consecutive bars.
const DefaultWindowSize = 5

// Options configures one analysis run.
type Options struct {
	MAWindows     []int
	LagDays       int
	MissingPolicy series.MissingPolicy
	WindowSize    int
}

// WeightPatch carries a partial weight update; nil fields keep the
// current value.
type WeightPatch struct {
	Correlation *float64
	Trend       *float64
	Volatility  *float64
	Pattern     *float64
	Volume      *float64
}

// Analyzer scores how closely an equity tracks a benchmark series
// across five weighted dimensions. Safe for concurrent use.
type Analyzer struct {
	mu      sync.Mutex
	weights model.SimilarityWeights
}

// NewAnalyzer returns an Analyzer with the given weights; a zero value
// falls back to the defaults.
func NewAnalyzer(weights model.SimilarityWeights) *Analyzer {
	if weights == (model.SimilarityWeights{}) {
		weights = model.DefaultWeights()
	}
	return &Analyzer{weights: weights}
}

// Weights returns the current weight configuration.
func (a *Analyzer) Weights() model.SimilarityWeights {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.weights
}

// UpdateWeights overwrites only the dimensions the patch names.
func (a *Analyzer) UpdateWeights(patch WeightPatch) model.SimilarityWeights {
	a.mu.Lock()
	defer a.mu.Unlock()
	if patch.Correlation != nil {
		a.weights.Correlation = *patch.Correlation
	}
	if patch.Trend != nil {
		a.weights.Trend = *patch.Trend
	}
	if patch.Volatility != nil {
		a.weights.Volatility = *patch.Volatility
	}
	if patch.Pattern != nil {
		a.weights.Pattern = *patch.Pattern
	}
	if patch.Volume != nil {
		a.weights.Volume = *patch.Volume
	}
	return a.weights
}

// Analyze runs the full five-dimension comparison of an equity series
// against a benchmark series and builds the daily sliding-window view.
func (a *Analyzer) Analyze(equity, benchmark []model.PriceBar, opts Options) (*model.CompositeSimilarityReport, error) {
	weights := a.Weights()
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}

	pe, pb, avail, err := series.Prepare(equity, benchmark, series.PrepareOptions{
		MAWindows:     opts.MAWindows,
		LagDays:       opts.LagDays,
		MissingPolicy: opts.MissingPolicy,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] similarity: prepared %d equity rows, %d benchmark rows (volume A=%v B=%v)",
		pe.Len(), pb.Len(), avail.A, avail.B)

	dims := scoreDimensions(pe, pb, avail)
	composite := 0.0
	for _, d := range dims {
		composite += d.Value * weightFor(weights, d.Name)
	}
	composite = round2(composite)

	daily, summary := a.dailySeries(pe, pb, avail, weights, opts.WindowSize)

	report := &model.CompositeSimilarityReport{
		Score:           composite,
		DimensionScores: dims,
		Weights:         weights,
		DailySeries:     daily,
		Summary:         summary,
		Commentary:      commentary(composite),
	}
	log.Printf("[INFO] similarity: composite=%.2f daily points=%d", composite, len(daily))
	return report, nil
}

func scoreDimensions(pe, pb *series.Prepared, avail series.VolumeAvailability) []model.DimensionScore {
	return []model.DimensionScore{
		{Name: model.DimCorrelation, Value: correlationScore(pe, pb)},
		{Name: model.DimTrend, Value: trendScore(pe, pb)},
		{Name: model.DimVolatility, Value: volatilityScore(pe, pb)},
		{Name: model.DimPattern, Value: patternScore(pe, pb)},
		{Name: model.DimVolume, Value: volumeScore(pe, pb, avail)},
	}
}

func weightFor(w model.SimilarityWeights, name string) float64 {
	switch name {
	case model.DimCorrelation:
		return w.Correlation
	case model.DimTrend:
		return w.Trend
	case model.DimVolatility:
		return w.Volatility
	case model.DimPattern:
		return w.Pattern
	case model.DimVolume:
		return w.Volume
	}
	return 0
}

// dailySeries slides a window of windowSize+1 rows over the aligned
// series and scores each window with the same dimension set. Windows
// start once windowSize prior rows exist; each point is stamped with
// the date of its last row.
func (a *Analyzer) dailySeries(pe, pb *series.Prepared, avail series.VolumeAvailability, weights model.SimilarityWeights, windowSize int) ([]model.DailyScore, model.SummaryStats) {
	n := pe.Len()
	if pb.Len() < n {
		n = pb.Len()
	}
	we := pe.Window(pe.Len()-n, pe.Len())
	wb := pb.Window(pb.Len()-n, pb.Len())

	var daily []model.DailyScore
	for i := windowSize; i < n; i++ {
		se := we.Window(i-windowSize, i+1)
		sb := wb.Window(i-windowSize, i+1)
		score := 0.0
		for _, d := range scoreDimensions(se, sb, avail) {
			score += d.Value * weightFor(weights, d.Name)
		}
		daily = append(daily, model.DailyScore{Date: we.Dates[i], Score: round2(score)})
	}

	if len(daily) == 0 {
		return nil, model.SummaryStats{}
	}
	vals := make([]float64, len(daily))
	for i, d := range daily {
		vals[i] = d.Score
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	summary := model.SummaryStats{
		Mean:  round2(stat.Mean(vals, nil)),
		Max:   round2(max),
		Min:   round2(min),
		Stdev: round2(stat.PopStdDev(vals, nil)),
	}
	return daily, summary
}

func commentary(score float64) string {
	switch {
	case score >= 80:
		return "highly similar: the two series move almost in lockstep"
	case score >= 60:
		return "moderately similar: the two series share a clear common drift"
	case score >= 40:
		return "weakly similar: only occasional co-movement between the series"
	default:
		return "dissimilar: the two series show little common behavior"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
