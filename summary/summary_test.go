package summary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	slate "github.com/go-slate/slate"
)

func nullable(t *testing.T, dtype slate.DType, values []interface{}) *slate.Column {
	t.Helper()
	col, err := slate.NewColumn(dtype, values, nil)
	require.Nil(t, err)
	return col
}

func TestCountSkipsNulls(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{1.0, nil, 3.0})
	require.Equal(t, Count(col), 2)
}

func TestSumAndMeanSkipNulls(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{1.0, nil, 3.0})

	sum, ok, err := Sum(col)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, sum, 4.0)

	mean, ok, err := Mean(col)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, mean, 2.0)
}

func TestSumOfAllNullsIsNotOK(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{nil, nil})
	_, ok, err := Sum(col)
	require.Nil(t, err)
	require.False(t, ok)
	_, ok, err = Mean(col)
	require.Nil(t, err)
	require.False(t, ok)
}

func TestMinMax(t *testing.T) {
	col := slate.NewInt64Column([]int64{4, -1, 7})
	min, ok, err := Min(col)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, min, -1.0)

	max, ok, err := Max(col)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, max, 7.0)
}

func TestRankStatisticsExcludeNaN(t *testing.T) {
	col := slate.NewFloat64Column([]float64{1, math.NaN(), 3})
	q, ok, err := Quantile(col, 0.5)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, q, 2.0)

	// Sum propagates NaN instead
	sum, ok, err := Sum(col)
	require.Nil(t, err)
	require.True(t, ok)
	require.True(t, math.IsNaN(sum))
}

func TestQuantileInterpolates(t *testing.T) {
	col := slate.NewFloat64Column([]float64{1, 2, 3, 4})
	q, ok, err := Quantile(col, 0.5)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, q, 2.5)

	lo, _, err := Quantile(col, 0)
	require.Nil(t, err)
	require.Equal(t, lo, 1.0)
	hi, _, err := Quantile(col, 1)
	require.Nil(t, err)
	require.Equal(t, hi, 4.0)

	_, _, err = Quantile(col, 1.5)
	require.NotNil(t, err)
	_, _, err = Quantile(col, math.NaN())
	require.NotNil(t, err)
}

func TestQuantileOfNothing(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{nil})
	_, ok, err := Quantile(col, 0.5)
	require.Nil(t, err)
	require.False(t, ok)
}

func TestBinSpreadsValuesAcrossBins(t *testing.T) {
	col := slate.NewFloat64Column([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10})
	h, err := Bin(col, 5)
	require.Nil(t, err)
	require.Equal(t, len(h.Edges), 6)
	require.Equal(t, len(h.Counts), 5)
	require.Equal(t, h.Edges[0], 0.0)
	require.Equal(t, h.Edges[5], 10.0)
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	require.Equal(t, total, 10)
	// the maximum lands in the last, doubly-closed bin
	require.Equal(t, h.Counts[4], 2)
}

func TestBinOfIdenticalValuesWidens(t *testing.T) {
	col := slate.NewFloat64Column([]float64{3, 3, 3})
	h, err := Bin(col, 4)
	require.Nil(t, err)
	require.Equal(t, h.Edges[0], 2.5)
	require.Equal(t, h.Edges[4], 3.5)
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	require.Equal(t, total, 3)
}

func TestBinDefaultsAndEmpty(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{nil})
	h, err := Bin(col, 0)
	require.Nil(t, err)
	require.Equal(t, len(h.Counts), 10)
	for _, n := range h.Counts {
		require.Equal(t, n, 0)
	}
}

func TestDescribe(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0, nil})
	stats, err := Describe(col)
	require.Nil(t, err)
	require.Equal(t, stats.Count, 8)
	require.Equal(t, stats.Nulls, 1)
	require.Equal(t, stats.Mean, 5.0)
	require.InDelta(t, stats.Std, 2.138, 0.001)
	require.Equal(t, stats.Min, 2.0)
	require.Equal(t, stats.Median, 4.5)
	require.Equal(t, stats.Max, 9.0)
}

func TestDescribeNothing(t *testing.T) {
	col := nullable(t, slate.Float64, []interface{}{nil, nil})
	stats, err := Describe(col)
	require.Nil(t, err)
	require.Equal(t, stats.Count, 0)
	require.Equal(t, stats.Nulls, 2)
	require.True(t, math.IsNaN(stats.Mean))
	require.True(t, math.IsNaN(stats.Median))
}

func TestSummaryRejectsNonNumericColumns(t *testing.T) {
	col := slate.NewTextColumn([]string{"a"})
	_, _, err := Sum(col)
	require.NotNil(t, err)
	_, err = Describe(col)
	require.NotNil(t, err)
	_, err = Bin(col, 3)
	require.NotNil(t, err)
}
