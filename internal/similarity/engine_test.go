package similarity

import (
	"math"
	"testing"
	"time"

	"GoldMirror/internal/model"
	"GoldMirror/internal/series"
)

func bars(closes []float64, volumes []float64) []model.PriceBar {
	out := make([]model.PriceBar, len(closes))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.PriceBar{
			Date:  base.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
		if volumes != nil {
			out[i].Volume = volumes[i]
			out[i].HasVolume = true
		}
	}
	return out
}

func wavyCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 5*math.Sin(float64(i)/3) + 0.3*float64(i)
	}
	return out
}

func wavyVolumes(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10000 + 2000*math.Cos(float64(i)/2)
	}
	return out
}

func TestDTWDistanceIdentical(t *testing.T) {
	s := []float64{0.1, 0.4, 0.9, 0.5, 0.2}
	if d := dtwDistance(s, s); d != 0 {
		t.Fatalf("DTW distance of identical sequences = %v, want 0", d)
	}
}

func TestDTWDistanceKnown(t *testing.T) {
	a := []float64{0, 0, 1}
	b := []float64{0, 1, 1}
	// Optimal path matches the single 0 against both leading values and
	// the 1s against each other; accumulated squared cost is 0.
	if d := dtwDistance(a, b); d != 0 {
		t.Fatalf("DTW distance = %v, want 0", d)
	}
	c := []float64{2, 2, 2}
	want := math.Sqrt(4 + 1 + 1)
	if d := dtwDistance(b, c); math.Abs(d-want) > 1e-12 {
		t.Fatalf("DTW distance = %v, want %v", d, want)
	}
}

func TestAnalyzeIdenticalSeries(t *testing.T) {
	n := 60
	closes := wavyCloses(n)
	vols := wavyVolumes(n)
	a := NewAnalyzer(model.DefaultWeights())

	report, err := a.Analyze(bars(closes, vols), bars(closes, vols), Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Score < 99.5 {
		t.Fatalf("composite for identical series = %v, want near 100", report.Score)
	}
	for _, d := range report.DimensionScores {
		if d.Value < 99.5 {
			t.Fatalf("dimension %s = %v, want near 100", d.Name, d.Value)
		}
	}
	if len(report.DailySeries) == 0 {
		t.Fatal("expected a non-empty daily series")
	}
	if report.Summary.Mean < 99 {
		t.Fatalf("daily mean = %v, want near 100", report.Summary.Mean)
	}
}

func TestAnalyzeMirroredSeries(t *testing.T) {
	n := 60
	up := wavyCloses(n)
	down := make([]float64, n)
	for i, v := range up {
		down[i] = 300 - v
	}
	a := NewAnalyzer(model.DefaultWeights())

	report, err := a.Analyze(bars(up, nil), bars(down, nil), Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	var corr, vol model.DimensionScore
	for _, d := range report.DimensionScores {
		switch d.Name {
		case model.DimCorrelation:
			corr = d
		case model.DimVolume:
			vol = d
		}
	}
	if corr.Value > 5 {
		t.Fatalf("correlation for mirrored series = %v, want near 0", corr.Value)
	}
	// Neither side has volume so the dimension stays neutral.
	if vol.Value != 50 {
		t.Fatalf("volume score without volume data = %v, want 50", vol.Value)
	}
}

func TestAnalyzeScaledSeries(t *testing.T) {
	// Doubling every close changes nothing the correlation or pattern
	// dimensions look at: returns are scale free, and min-max
	// normalization removes the factor before DTW.
	n := 30
	closes := wavyCloses(n)
	scaled := make([]float64, n)
	for i, v := range closes {
		scaled[i] = v * 2
	}
	a := NewAnalyzer(model.DefaultWeights())

	report, err := a.Analyze(bars(closes, nil), bars(scaled, nil), Options{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	dims := make(map[string]float64, len(report.DimensionScores))
	for _, d := range report.DimensionScores {
		dims[d.Name] = d.Value
	}
	if dims[model.DimCorrelation] != 100 {
		t.Fatalf("correlation = %v, want 100", dims[model.DimCorrelation])
	}
	if dims[model.DimPattern] != 100 {
		t.Fatalf("pattern = %v, want 100", dims[model.DimPattern])
	}
	if dims[model.DimVolatility] != 100 {
		t.Fatalf("volatility = %v, want 100", dims[model.DimVolatility])
	}
	// Slopes double with the series, so strength halves while the
	// direction still agrees.
	if want := 85.0; dims[model.DimTrend] != want {
		t.Fatalf("trend = %v, want %v", dims[model.DimTrend], want)
	}
	if dims[model.DimVolume] != 50 {
		t.Fatalf("volume without data = %v, want neutral 50", dims[model.DimVolume])
	}
	if want := 91.25; report.Score != want {
		t.Fatalf("composite = %v, want %v", report.Score, want)
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	a := NewAnalyzer(model.DefaultWeights())
	if _, err := a.Analyze(nil, bars(wavyCloses(30), nil), Options{}); err == nil {
		t.Fatal("expected error for empty equity series")
	}
}

func TestUpdateWeightsPartial(t *testing.T) {
	a := NewAnalyzer(model.DefaultWeights())
	newCorr := 0.5
	newVol := 0.0
	got := a.UpdateWeights(WeightPatch{Correlation: &newCorr, Volume: &newVol})
	if got.Correlation != 0.5 || got.Volume != 0 {
		t.Fatalf("patched weights not applied: %+v", got)
	}
	if got.Trend != 0.25 || got.Pattern != 0.15 || got.Volatility != 0.20 {
		t.Fatalf("unpatched weights changed: %+v", got)
	}
}

func TestCorrelationScoreNeedsTwoObservations(t *testing.T) {
	pa := &series.Prepared{Returns: []float64{0.01}}
	pb := &series.Prepared{Returns: []float64{0.01, 0.02}}
	if got := correlationScore(pa, pb); got != 0 {
		t.Fatalf("correlation with one pair = %v, want 0", got)
	}
}

func TestPatternScoreConstantSeries(t *testing.T) {
	pa := &series.Prepared{Close: []float64{5, 5, 5, 5}}
	pb := &series.Prepared{Close: []float64{1, 2, 3, 4}}
	if got := patternScore(pa, pb); got != 0 {
		t.Fatalf("pattern score with constant series = %v, want fallback 0", got)
	}
}

func TestTrendScoreOppositeSlopes(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = float64(i)
		down[i] = float64(30 - i)
	}
	pa := &series.Prepared{MA: map[int][]float64{5: up, 20: up}}
	pb := &series.Prepared{MA: map[int][]float64{5: down, 20: down}}
	// Direction disagrees everywhere; equal magnitudes keep strength at 100.
	want := 0*0.7 + 100*0.3
	if got := trendScore(pa, pb); math.Abs(got-want) > 1e-9 {
		t.Fatalf("trend score = %v, want %v", got, want)
	}
}
