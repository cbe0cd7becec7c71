package series

import (
	"math"
	"testing"
	"time"

	"GoldMirror/internal/model"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func makeBars(closes []float64, withVolume bool) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Date:  day(i),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
		if withVolume {
			bars[i].Volume = 1000 + float64(i)*10
			bars[i].HasVolume = true
		}
	}
	return bars
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestPrepareEmptySeries(t *testing.T) {
	_, _, _, err := Prepare(nil, makeBars(ramp(30, 100, 1), true), PrepareOptions{})
	if err == nil {
		t.Fatal("expected error for empty series A")
	}
	if _, ok := err.(*InputDataError); !ok {
		t.Fatalf("expected InputDataError, got %T", err)
	}
}

func TestPrepareDropsWarmupRows(t *testing.T) {
	a := makeBars(ramp(30, 100, 1), true)
	b := makeBars(ramp(30, 2000, 2), false)

	pa, pb, avail, err := Prepare(a, b, PrepareOptions{MAWindows: []int{5, 10, 20}})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	// 30 rows minus 19 warmup rows for MA20.
	if pa.Len() != 11 || pb.Len() != 11 {
		t.Fatalf("expected 11 rows after warmup cut, got %d and %d", pa.Len(), pb.Len())
	}
	if !avail.A || avail.B {
		t.Fatalf("expected volume only on A, got %+v", avail)
	}
	for i := 0; i < pa.Len(); i++ {
		if math.IsNaN(pa.Returns[i]) || math.IsNaN(pa.MA[20][i]) || math.IsNaN(pa.Volatility[i]) {
			t.Fatalf("row %d still has undefined derived columns", i)
		}
	}
	// MA5 of a +1 ramp equals close minus 2.
	if got, want := pa.MA[5][0], pa.Close[0]-2; math.Abs(got-want) > 1e-9 {
		t.Fatalf("MA5 = %v, want %v", got, want)
	}
}

func TestPrepareLagShift(t *testing.T) {
	a := makeBars(ramp(30, 100, 1), false)
	b := makeBars(ramp(30, 50, 1), false)

	_, pb, _, err := Prepare(a, b, PrepareOptions{MAWindows: []int{5}, LagDays: 3})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	// After a +3 shift, the close on each date is the value from 3 days back.
	last := pb.Len() - 1
	if got := pb.Close[last]; got != 50+29-3 {
		t.Fatalf("lagged close = %v, want %v", got, 50.0+29-3)
	}
	// Shifted-in leading NaNs must have been cut with the warmup rows.
	for i := 0; i < pb.Len(); i++ {
		if math.IsNaN(pb.Close[i]) {
			t.Fatalf("row %d close is NaN after lag shift", i)
		}
	}
}

func TestPrepareMissingPolicies(t *testing.T) {
	closes := ramp(30, 100, 1)
	a := makeBars(closes, false)
	a[10].Close = math.NaN()
	a[10].Open = math.NaN()
	a[10].High = math.NaN()
	a[10].Low = math.NaN()
	b := makeBars(ramp(30, 50, 1), false)

	pa, _, _, err := Prepare(a, b, PrepareOptions{MAWindows: []int{5}, MissingPolicy: MissingDrop})
	if err != nil {
		t.Fatalf("Prepare with drop failed: %v", err)
	}
	if pa.Len() != 29-4 {
		t.Fatalf("drop policy: expected %d rows, got %d", 29-4, pa.Len())
	}
	for _, c := range pa.Close {
		if math.IsNaN(c) {
			t.Fatal("drop policy left a NaN close")
		}
	}

	pa, _, _, err = Prepare(a, b, PrepareOptions{MAWindows: []int{5}, MissingPolicy: MissingForwardFill})
	if err != nil {
		t.Fatalf("Prepare with forward fill failed: %v", err)
	}
	// Row 10 was filled with row 9's close; find it by date.
	found := false
	for i, d := range pa.Dates {
		if d.Equal(day(10)) {
			found = true
			if pa.Close[i] != closes[9] {
				t.Fatalf("forward fill: close = %v, want %v", pa.Close[i], closes[9])
			}
		}
	}
	if !found {
		t.Fatal("forward fill: filled row missing from output")
	}
}

func TestWindowSharesColumns(t *testing.T) {
	a := makeBars(ramp(40, 100, 1), true)
	b := makeBars(ramp(40, 50, 1), true)
	pa, _, _, err := Prepare(a, b, PrepareOptions{})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	w := pa.Window(2, 8)
	if w.Len() != 6 {
		t.Fatalf("window length = %d, want 6", w.Len())
	}
	if w.Close[0] != pa.Close[2] {
		t.Fatalf("window close[0] = %v, want %v", w.Close[0], pa.Close[2])
	}
	if len(w.MA[20]) != 6 {
		t.Fatalf("window MA20 length = %d, want 6", len(w.MA[20]))
	}
}
