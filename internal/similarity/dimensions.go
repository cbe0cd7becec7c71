package similarity

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"GoldMirror/internal/series"
)

// Fallback scores for dimensions that cannot be computed. Volume falls
// back to a neutral score so a missing volume column does not drag the
// composite down.
const (
	fallbackScore       = 0.0
	neutralVolumeScore  = 50.0
	trendDirWeight      = 0.7
	trendStrengthWeight = 0.3
)

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func dropNaN(col []float64) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// correlationScore maps the Pearson correlation of the daily returns,
// aligned on their most recent observations, from [-1,1] onto [0,100].
func correlationScore(a, b *series.Prepared) float64 {
	ra := dropNaN(a.Returns)
	rb := dropNaN(b.Returns)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	if n < 2 {
		return fallbackScore
	}
	r := stat.Correlation(ra[len(ra)-n:], rb[len(rb)-n:], nil)
	if math.IsNaN(r) {
		return fallbackScore
	}
	return clampScore((r + 1) * 50)
}

// trendScore compares the least-squares slopes of the MA5 and MA20
// columns. Direction agreement dominates, slope magnitude ratio refines.
func trendScore(a, b *series.Prepared) float64 {
	ma5a, ok5a := a.MA[5]
	ma20a, ok20a := a.MA[20]
	ma5b, ok5b := b.MA[5]
	ma20b, ok20b := b.MA[20]
	if !ok5a || !ok20a || !ok5b || !ok20b {
		return fallbackScore
	}

	s5a := slope(dropNaN(ma5a))
	s20a := slope(dropNaN(ma20a))
	s5b := slope(dropNaN(ma5b))
	s20b := slope(dropNaN(ma20b))
	if math.IsNaN(s5a) || math.IsNaN(s20a) || math.IsNaN(s5b) || math.IsNaN(s20b) {
		return fallbackScore
	}

	dir := directionSimilarity(s5a, s5b)*0.6 + directionSimilarity(s20a, s20b)*0.4
	strength := strengthSimilarity(s5a, s5b)*0.6 + strengthSimilarity(s20a, s20b)*0.4
	return clampScore(dir*trendDirWeight + strength*trendStrengthWeight)
}

func slope(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	xs := make([]float64, len(vals))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, vals, nil, false)
	return beta
}

func directionSimilarity(s1, s2 float64) float64 {
	switch {
	case s1*s2 > 0:
		return 100
	case s1 == 0 && s2 == 0:
		return 100
	default:
		return 0
	}
}

func strengthSimilarity(s1, s2 float64) float64 {
	if s1 == 0 && s2 == 0 {
		return 100
	}
	a1, a2 := math.Abs(s1), math.Abs(s2)
	return math.Min(a1, a2) / math.Max(a1, a2) * 100
}

// volatilityScore compares the coefficient of variation of returns and
// the mean rolling volatility between the two series.
func volatilityScore(a, b *series.Prepared) float64 {
	cvA := coefficientOfVariation(dropNaN(a.Returns))
	cvB := coefficientOfVariation(dropNaN(b.Returns))
	cvSim := relativeDiffSimilarity(cvA, cvB)

	volA := stat.Mean(dropNaN(a.Volatility), nil)
	volB := stat.Mean(dropNaN(b.Volatility), nil)
	volSim := relativeDiffSimilarity(volA, volB)

	if math.IsNaN(cvSim) || math.IsNaN(volSim) {
		return fallbackScore
	}
	return clampScore(cvSim*0.6 + volSim*0.4)
}

func coefficientOfVariation(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(vals, nil)
	if mean == 0 {
		return math.NaN()
	}
	return std / math.Abs(mean)
}

// relativeDiffSimilarity maps |x-y|/max(x,y) onto [0,100], higher is
// closer. NaN inputs and non-positive maxima propagate NaN.
func relativeDiffSimilarity(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return math.NaN()
	}
	m := math.Max(x, y)
	if m == 0 {
		return math.NaN()
	}
	return math.Max(0, 100-math.Abs(x-y)/m*100)
}

// patternScore min-max normalizes both close series, truncates to the
// common prefix length and converts the DTW distance into a score
// against the theoretical maximum sqrt(2n).
func patternScore(a, b *series.Prepared) float64 {
	na := minMaxNormalize(a.Close)
	nb := minMaxNormalize(b.Close)
	if na == nil || nb == nil {
		return fallbackScore
	}
	n := len(na)
	if len(nb) < n {
		n = len(nb)
	}
	if n == 0 {
		return fallbackScore
	}
	d := dtwDistance(na[:n], nb[:n])
	if math.IsNaN(d) {
		return fallbackScore
	}
	maxDistance := math.Sqrt(2 * float64(n))
	return clampScore(100 - d/maxDistance*100)
}

func minMaxNormalize(vals []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			return nil
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if len(vals) == 0 || hi == lo {
		return nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// volumeScore compares the volume/|return| correlation and the volume
// coefficient of variation. Without volume on both sides it returns the
// neutral score.
func volumeScore(a, b *series.Prepared, avail series.VolumeAvailability) float64 {
	if !avail.A || !avail.B {
		return neutralVolumeScore
	}

	corrA := volumeReturnCorrelation(a)
	corrB := volumeReturnCorrelation(b)
	if math.IsNaN(corrA) || math.IsNaN(corrB) {
		return neutralVolumeScore
	}
	corrSim := math.Max(0, 100-math.Abs(corrA-corrB)*100)

	cvA := volumeCV(a.Volume)
	cvB := volumeCV(b.Volume)
	cvSim := relativeDiffSimilarity(cvA, cvB)
	if math.IsNaN(cvSim) {
		return neutralVolumeScore
	}
	return clampScore(corrSim*0.7 + cvSim*0.3)
}

// volumeReturnCorrelation is the Pearson correlation between volume and
// absolute returns over rows where both are defined.
func volumeReturnCorrelation(p *series.Prepared) float64 {
	var vols, rets []float64
	for i := range p.Volume {
		if math.IsNaN(p.Volume[i]) || math.IsNaN(p.Returns[i]) {
			continue
		}
		vols = append(vols, p.Volume[i])
		rets = append(rets, math.Abs(p.Returns[i]))
	}
	if len(vols) < 2 {
		return math.NaN()
	}
	return stat.Correlation(vols, rets, nil)
}

func volumeCV(vol []float64) float64 {
	vals := dropNaN(vol)
	if len(vals) < 2 {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(vals, nil)
	if mean == 0 {
		return math.NaN()
	}
	return std / mean
}
