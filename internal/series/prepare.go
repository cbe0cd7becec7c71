package series

import (
	"fmt"
	"math"
	"time"

	"GoldMirror/internal/model"
)

// MissingPolicy controls how null bars are handled before derivation.
type MissingPolicy int

const (
	// MissingNone leaves null values in place.
	MissingNone MissingPolicy = iota
	// MissingDrop removes any bar with a null OHLC field.
	MissingDrop
	// MissingForwardFill propagates the last valid value forward.
	MissingForwardFill
)

// ErrInputData marks preprocessing failures caused by the input itself
// (empty series, no usable close column). It is always surfaced, never
// patched with synthetic values.
type InputDataError struct {
	Reason string
}

func (e *InputDataError) Error() string {
	return fmt.Sprintf("input data error: %s", e.Reason)
}

// PrepareOptions configures preprocessing for one analysis run.
type PrepareOptions struct {
	MAWindows     []int
	LagDays       int
	MissingPolicy MissingPolicy
}

// DefaultMAWindows is the standard moving-average window set.
var DefaultMAWindows = []int{5, 10, 20}

// VolumeAvailability reports which of the two series carries volume data.
type VolumeAvailability struct {
	A bool
	B bool
}

// Prepared is a derived-feature view of one price series. All columns share
// the same row count; NaN marks undefined positions (only possible under
// MissingNone, every remaining row is fully derived otherwise).
type Prepared struct {
	Dates      []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64 // NaN where the bar had no volume
	Returns    []float64
	MA         map[int][]float64
	Volatility []float64
}

// Len returns the number of rows.
func (p *Prepared) Len() int { return len(p.Dates) }

// Window returns a view over rows [i, j) sharing the underlying columns.
func (p *Prepared) Window(i, j int) *Prepared {
	w := &Prepared{
		Dates:      p.Dates[i:j],
		Open:       p.Open[i:j],
		High:       p.High[i:j],
		Low:        p.Low[i:j],
		Close:      p.Close[i:j],
		Volume:     p.Volume[i:j],
		Returns:    p.Returns[i:j],
		Volatility: p.Volatility[i:j],
		MA:         make(map[int][]float64, len(p.MA)),
	}
	for k, col := range p.MA {
		w.MA[k] = col[i:j]
	}
	return w
}

// volatilityWindow is the rolling window for the std-dev of returns.
const volatilityWindow = 5

// Prepare normalizes two raw bar slices into aligned derived-feature tables.
// Series B is lag-shifted by opts.LagDays relative to its own calendar index
// before any derivation (positive shifts values forward in time). Leading
// rows that lack the largest requested moving average are dropped so every
// remaining row has all derived columns populated.
func Prepare(a, b []model.PriceBar, opts PrepareOptions) (*Prepared, *Prepared, VolumeAvailability, error) {
	if len(a) == 0 {
		return nil, nil, VolumeAvailability{}, &InputDataError{Reason: "series A is empty"}
	}
	if len(b) == 0 {
		return nil, nil, VolumeAvailability{}, &InputDataError{Reason: "series B is empty"}
	}
	windows := opts.MAWindows
	if len(windows) == 0 {
		windows = DefaultMAWindows
	}

	fa := newFrame(a)
	fb := newFrame(b)

	if opts.LagDays != 0 {
		fb.shift(opts.LagDays)
	}
	fa.applyPolicy(opts.MissingPolicy)
	fb.applyPolicy(opts.MissingPolicy)

	if fa.allNaN(fa.close) {
		return nil, nil, VolumeAvailability{}, &InputDataError{Reason: "series A has no usable close data"}
	}
	if fb.allNaN(fb.close) {
		return nil, nil, VolumeAvailability{}, &InputDataError{Reason: "series B has no usable close data"}
	}

	avail := VolumeAvailability{A: !fa.allNaN(fa.volume), B: !fb.allNaN(fb.volume)}

	pa := fa.derive(windows)
	pb := fb.derive(windows)
	return pa, pb, avail, nil
}

// frame is the mutable working set before derivation.
type frame struct {
	dates  []time.Time
	open   []float64
	high   []float64
	low    []float64
	close  []float64
	volume []float64
}

func newFrame(bars []model.PriceBar) *frame {
	f := &frame{
		dates:  make([]time.Time, len(bars)),
		open:   make([]float64, len(bars)),
		high:   make([]float64, len(bars)),
		low:    make([]float64, len(bars)),
		close:  make([]float64, len(bars)),
		volume: make([]float64, len(bars)),
	}
	for i, b := range bars {
		f.dates[i] = b.Date
		f.open[i] = b.Open
		f.high[i] = b.High
		f.low[i] = b.Low
		f.close[i] = b.Close
		if b.HasVolume {
			f.volume[i] = b.Volume
		} else {
			f.volume[i] = math.NaN()
		}
	}
	return f
}

// shift moves the value columns by k rows along the date index. Positive k
// shifts forward in time (earlier values land on later dates); vacated
// positions become NaN.
func (f *frame) shift(k int) {
	for _, col := range [][]float64{f.open, f.high, f.low, f.close, f.volume} {
		shifted := make([]float64, len(col))
		for i := range shifted {
			src := i - k
			if src < 0 || src >= len(col) {
				shifted[i] = math.NaN()
			} else {
				shifted[i] = col[src]
			}
		}
		copy(col, shifted)
	}
}

func (f *frame) applyPolicy(policy MissingPolicy) {
	switch policy {
	case MissingDrop:
		f.dropNullRows()
	case MissingForwardFill:
		for _, col := range [][]float64{f.open, f.high, f.low, f.close, f.volume} {
			forwardFill(col)
		}
	}
}

// dropNullRows removes rows where any OHLC field is NaN. Volume is not
// consulted: a missing volume column must not discard price data.
func (f *frame) dropNullRows() {
	keep := 0
	for i := range f.dates {
		if math.IsNaN(f.open[i]) || math.IsNaN(f.high[i]) || math.IsNaN(f.low[i]) || math.IsNaN(f.close[i]) {
			continue
		}
		f.dates[keep] = f.dates[i]
		f.open[keep] = f.open[i]
		f.high[keep] = f.high[i]
		f.low[keep] = f.low[i]
		f.close[keep] = f.close[i]
		f.volume[keep] = f.volume[i]
		keep++
	}
	f.dates = f.dates[:keep]
	f.open = f.open[:keep]
	f.high = f.high[:keep]
	f.low = f.low[:keep]
	f.close = f.close[:keep]
	f.volume = f.volume[:keep]
}

func (f *frame) allNaN(col []float64) bool {
	for _, v := range col {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// derive computes returns, moving averages and rolling volatility, then cuts
// the leading rows that lack the largest moving average.
func (f *frame) derive(windows []int) *Prepared {
	n := len(f.dates)
	returns := make([]float64, n)
	for i := range returns {
		if i == 0 || math.IsNaN(f.close[i]) || math.IsNaN(f.close[i-1]) || f.close[i-1] == 0 {
			returns[i] = math.NaN()
		} else {
			returns[i] = f.close[i]/f.close[i-1] - 1
		}
	}

	ma := make(map[int][]float64, len(windows))
	maxWindow := 0
	for _, w := range windows {
		ma[w] = rollingMean(f.close, w)
		if w > maxWindow {
			maxWindow = w
		}
	}
	volatility := rollingStd(returns, volatilityWindow)

	// First row whose largest MA is defined.
	maxMA := ma[maxWindow]
	start := n
	for i, v := range maxMA {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}

	p := &Prepared{
		Dates:      f.dates[start:],
		Open:       f.open[start:],
		High:       f.high[start:],
		Low:        f.low[start:],
		Close:      f.close[start:],
		Volume:     f.volume[start:],
		Returns:    returns[start:],
		Volatility: volatility[start:],
		MA:         make(map[int][]float64, len(windows)),
	}
	for w, col := range ma {
		p.MA[w] = col[start:]
	}
	return p
}

func forwardFill(col []float64) {
	last := math.NaN()
	for i, v := range col {
		if math.IsNaN(v) {
			col[i] = last
		} else {
			last = v
		}
	}
}

// rollingMean computes a trailing simple mean; positions with fewer than
// window values (or any NaN inside the window) are NaN.
func rollingMean(col []float64, window int) []float64 {
	out := make([]float64, len(col))
	for i := range out {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i + 1 - window; j <= i; j++ {
			if math.IsNaN(col[j]) {
				valid = false
				break
			}
			sum += col[j]
		}
		if !valid {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes a trailing sample standard deviation over the window.
func rollingStd(col []float64, window int) []float64 {
	out := make([]float64, len(col))
	for i := range out {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		vals := make([]float64, 0, window)
		for j := i + 1 - window; j <= i; j++ {
			if math.IsNaN(col[j]) {
				vals = nil
				break
			}
			vals = append(vals, col[j])
		}
		if len(vals) < window {
			out[i] = math.NaN()
			continue
		}
		mean := 0.0
		for _, v := range vals {
			mean += v
		}
		mean /= float64(window)
		ss := 0.0
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}
