package domain

// Normalize min-max scales values into [0,1] relative to the input
// population's extrema. With inverse set, higher raw values score lower
// (1 − normalized). When max == min (all values identical, or a single
// value) every element maps to 0.5 rather than dividing by zero.
//
// The output depends on the full input vector: dropping or adding one
// element changes every result. It is therefore not idempotent; feeding an
// already-normalized vector back in rescales it to its own extrema.
func Normalize(values []float64, inverse bool) []float64 {
	if len(values) == 0 {
		return nil
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]float64, len(values))
	if maxVal == minVal {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	span := maxVal - minVal
	for i, v := range values {
		n := (v - minVal) / span
		if inverse {
			n = 1 - n
		}
		out[i] = Clamp(n, 0, 1)
	}
	return out
}

// FixedRange scales v against a fixed physical [lo,hi] range, clamped to
// [0,1]. Unlike Normalize it does not depend on the input population, so
// results are comparable across runs with different county subsets.
func FixedRange(v, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	return Clamp((v-lo)/(hi-lo), 0, 1)
}

// Clamp restricts v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
