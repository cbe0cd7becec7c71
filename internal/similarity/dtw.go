package similarity

import "math"

// dtwDistance computes the dynamic time warping distance between two
// sequences under a squared-Euclidean local cost, returning the square
// root of the minimum accumulated cost. Uses a two-row table so memory
// stays O(min width) regardless of sequence length.
func dtwDistance(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.NaN()
	}
	prev := make([]float64, len(b)+1)
	curr := make([]float64, len(b)+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0
	for i := 1; i <= len(a); i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= len(b); j++ {
			d := a[i-1] - b[j-1]
			cost := d * d
			curr[j] = cost + math.Min(prev[j], math.Min(curr[j-1], prev[j-1]))
		}
		prev, curr = curr, prev
	}
	return math.Sqrt(prev[len(b)])
}
