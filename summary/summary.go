// Package summary computes descriptive statistics over Columns. Reductions
// skip nulls and widen every numeric dtype to float64. NaN is a value, not a
// null: Sum and Mean propagate it, while the rank statistics (Quantile,
// Histogram and the quartiles of Describe) exclude it because it has no
// order position.
package summary

import (
	"fmt"
	"math"
	"sort"

	slate "github.com/go-slate/slate"
)

// Count returns the number of non-null values in the column.
func Count(c *slate.Column) int {
	return c.Len() - c.NullCount()
}

// Sum adds the non-null values. ok is false when there are none.
func Sum(c *slate.Column) (sum float64, ok bool, err error) {
	values, err := validValues(c, false)
	if err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	for _, v := range values {
		sum += v
	}
	return sum, true, nil
}

// Mean averages the non-null values. ok is false when there are none.
func Mean(c *slate.Column) (mean float64, ok bool, err error) {
	sum, ok, err := Sum(c)
	if err != nil || !ok {
		return 0, ok, err
	}
	return sum / float64(Count(c)), true, nil
}

// Min returns the smallest non-null value. ok is false when there are none.
func Min(c *slate.Column) (min float64, ok bool, err error) {
	return extreme(c, -1)
}

// Max returns the largest non-null value. ok is false when there are none.
func Max(c *slate.Column) (max float64, ok bool, err error) {
	return extreme(c, 1)
}

func extreme(c *slate.Column, sign float64) (float64, bool, error) {
	values, err := validValues(c, true)
	if err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		if (v-best)*sign > 0 {
			best = v
		}
	}
	return best, true, nil
}

// Quantile returns the q-quantile (0 <= q <= 1) of the non-null values with
// linear interpolation between order statistics. ok is false when there are
// no values to rank.
func Quantile(c *slate.Column, q float64) (float64, bool, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, false, fmt.Errorf("quantile %v outside [0, 1]", q)
	}
	values, err := validValues(c, true)
	if err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	sort.Float64s(values)
	return quantileSorted(values, q), true, nil
}

func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo == len(sorted)-1 {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// A Histogram is a set of equal-width bins over the value range. Edges has
// one more entry than Counts; bin i spans [Edges[i], Edges[i+1]), with the
// last bin closed on both ends.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Bin returns a Histogram of the non-null values in the given number of
// equal-width bins (10 when bins is not positive). When every value is
// identical the range widens by half a unit each way.
func Bin(c *slate.Column, bins int) (Histogram, error) {
	if bins <= 0 {
		bins = 10
	}
	values, err := validValues(c, true)
	if err != nil {
		return Histogram{}, err
	}
	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	if len(values) == 0 {
		return h, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + width*float64(i)
	}
	h.Edges[bins] = hi
	for _, v := range values {
		bin := int((v - lo) / width)
		if bin >= bins {
			bin = bins - 1
		}
		h.Counts[bin]++
	}
	return h, nil
}

// Stats is the result of Describe.
type Stats struct {
	Count  int // values described: non-null and not NaN
	Nulls  int
	Mean   float64
	Std    float64 // sample standard deviation
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarizes a numeric column in one pass over its sorted values.
// Nulls and NaN are excluded from every field; with nothing left to describe
// every float field is NaN.
func Describe(c *slate.Column) (Stats, error) {
	values, err := validValues(c, true)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Count: len(values), Nulls: c.NullCount()}
	if len(values) == 0 {
		nan := math.NaN()
		stats.Mean, stats.Std, stats.Min, stats.Q25, stats.Median, stats.Q75, stats.Max = nan, nan, nan, nan, nan, nan, nan
		return stats, nil
	}
	sort.Float64s(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))
	if len(values) > 1 {
		var ss float64
		for _, v := range values {
			d := v - stats.Mean
			ss += d * d
		}
		stats.Std = math.Sqrt(ss / float64(len(values)-1))
	} else {
		stats.Std = math.NaN()
	}
	stats.Min = values[0]
	stats.Max = values[len(values)-1]
	stats.Q25 = quantileSorted(values, 0.25)
	stats.Median = quantileSorted(values, 0.5)
	stats.Q75 = quantileSorted(values, 0.75)
	return stats, nil
}

// validValues widens the non-null values to float64, optionally dropping
// NaN for the rank statistics.
func validValues(c *slate.Column, dropNaN bool) ([]float64, error) {
	if !c.DType().IsNumeric() {
		return nil, fmt.Errorf("dtype %s is not numeric", c.DType())
	}
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v, err := c.NumberAt(i)
		if err != nil {
			return nil, err
		}
		if dropNaN && math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
