package slate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	errors "github.com/go-slate/slate/errors"
)

func makeFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(nil,
		Col("name", NewTextColumn([]string{"ada", "bob", "cid", "dee"})),
		Col("age", NewInt64Column([]int64{35, 28, 52, 41})),
		Col("score", NewFloat64Column([]float64{9.1, 7.5, 8.0, 6.2})),
	)
	require.Nil(t, err)
	return df
}

func TestNewDataFrameBasic(t *testing.T) {
	df := makeFrame(t)
	require.Equal(t, df.NumRows(), 4)
	require.Equal(t, df.NumColumns(), 3)
	require.Equal(t, df.Names(), []string{"name", "age", "score"})
	require.True(t, df.HasColumn("age"))
	require.False(t, df.HasColumn("height"))

	col, err := df.Column("age")
	require.Nil(t, err)
	require.True(t, col.Index().Equal(df.Index()))

	_, err = df.Column("height")
	require.NotNil(t, err)
	require.IsType(t, errors.UnknownColumnError{}, err)
}

func TestNewDataFrameReportsAllProblems(t *testing.T) {
	_, err := NewDataFrame(nil,
		Col("a", NewInt64Column([]int64{1, 2})),
		Col("a", NewInt64Column([]int64{3, 4})),
		Col("b", NewInt64Column([]int64{5})),
	)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "duplicate column name")
	require.Contains(t, err.Error(), "length mismatch")
}

func TestNewDataFrameIndexLengthMismatch(t *testing.T) {
	_, err := NewDataFrame(NewRangeIndex(3), Col("a", NewInt64Column([]int64{1})))
	require.NotNil(t, err)
}

func TestFromDescriptors(t *testing.T) {
	df, err := FromDescriptors(nil,
		ColumnDescriptor{Name: "x", DType: Int64, Values: []interface{}{1, 2, 3}},
		ColumnDescriptor{Name: "y", DType: Float64, Values: []interface{}{1.5, nil, 3.5}},
	)
	require.Nil(t, err)
	require.Equal(t, df.NumRows(), 3)
	y, err := df.Column("y")
	require.Nil(t, err)
	require.True(t, y.IsNull(1))
}

func TestSelectAndDropAndRename(t *testing.T) {
	df := makeFrame(t)

	sel, err := df.Select("score", "name")
	require.Nil(t, err)
	require.Equal(t, sel.Names(), []string{"score", "name"})
	require.Equal(t, sel.NumRows(), 4)
	_, err = df.Select("missing")
	require.NotNil(t, err)

	dropped, err := df.DropColumn("age")
	require.Nil(t, err)
	require.Equal(t, dropped.Names(), []string{"name", "score"})
	require.Equal(t, df.NumColumns(), 3)

	renamed, err := df.RenameColumn("age", "years")
	require.Nil(t, err)
	require.Equal(t, renamed.Names(), []string{"name", "years", "score"})
	_, err = df.RenameColumn("age", "score")
	require.NotNil(t, err)
}

func TestWithColumnAddsAndReplaces(t *testing.T) {
	df := makeFrame(t)
	out, err := df.WithColumn("bonus", NewFloat64Column([]float64{1, 2, 3, 4}))
	require.Nil(t, err)
	require.Equal(t, out.NumColumns(), 4)

	replaced, err := out.WithColumn("bonus", NewFloat64Column([]float64{4, 3, 2, 1}))
	require.Nil(t, err)
	require.Equal(t, replaced.Names(), out.Names())
	col, err := replaced.Column("bonus")
	require.Nil(t, err)
	v, err := col.Float64At(0)
	require.Nil(t, err)
	require.Equal(t, v, 4.0)

	_, err = df.WithColumn("short", NewInt64Column([]int64{1}))
	require.NotNil(t, err)
	require.IsType(t, errors.LengthMismatchError{}, err)
}

func TestFilterKeepsTrueRowsInOrder(t *testing.T) {
	df := makeFrame(t)
	age, err := df.Column("age")
	require.Nil(t, err)
	mask, err := age.Gte(35)
	require.Nil(t, err)
	out, err := df.Filter(mask)
	require.Nil(t, err)
	require.Equal(t, out.NumRows(), 3)
	name, err := out.Column("name")
	require.Nil(t, err)
	require.Equal(t, name.Values(), []interface{}{"ada", "cid", "dee"})
	// surviving rows keep their labels
	require.Equal(t, out.Index().Labels(), []interface{}{0, 2, 3})
}

func TestFilterAndNegationPartitionRows(t *testing.T) {
	df := makeFrame(t)
	score, err := df.Column("score")
	require.Nil(t, err)
	mask, err := score.Gt(7.6)
	require.Nil(t, err)
	notMask, err := mask.Not()
	require.Nil(t, err)

	kept, err := df.Filter(mask)
	require.Nil(t, err)
	rest, err := df.Filter(notMask)
	require.Nil(t, err)
	require.Equal(t, kept.NumRows()+rest.NumRows(), df.NumRows())

	seen := make(map[interface{}]bool)
	for _, label := range kept.Index().Labels() {
		seen[label] = true
	}
	for _, label := range rest.Index().Labels() {
		require.False(t, seen[label])
		seen[label] = true
	}
	require.Equal(t, len(seen), df.NumRows())
}

func TestFilterChecksMask(t *testing.T) {
	df := makeFrame(t)
	_, err := df.Filter(NewBoolColumn([]bool{true}))
	require.NotNil(t, err)
	require.IsType(t, errors.LengthMismatchError{}, err)

	foreign, err := NewBoolColumn([]bool{true, true, false, false}).
		WithIndex(mustIndex([]interface{}{"a", "b", "c", "d"}))
	require.Nil(t, err)
	_, err = df.Filter(foreign)
	require.NotNil(t, err)
	require.IsType(t, errors.IndexMismatchError{}, err)

	age, err := df.Column("age")
	require.Nil(t, err)
	_, err = df.Filter(age)
	require.NotNil(t, err)
	require.IsType(t, errors.UnsupportedOperationError{}, err)
}

func TestSortByIsStableWithNullsLast(t *testing.T) {
	df, err := NewDataFrame(nil,
		Col("grp", NewTextColumn([]string{"b", "a", "b", "a"})),
		Col("val", mustNullable(t, Float64, []interface{}{nil, 2.0, 1.0, 2.0})),
	)
	require.Nil(t, err)

	out, err := df.SortBy("grp", "val")
	require.Nil(t, err)
	grp, err := out.Column("grp")
	require.Nil(t, err)
	require.Equal(t, grp.Values(), []interface{}{"a", "a", "b", "b"})
	val, err := out.Column("val")
	require.Nil(t, err)
	// ties keep original order; the null sorts after every value
	require.Equal(t, val.Values(), []interface{}{2.0, 2.0, 1.0, nil})
	require.Equal(t, out.Index().Labels(), []interface{}{1, 3, 2, 0})

	_, err = df.SortBy()
	require.NotNil(t, err)
	_, err = df.SortBy("missing")
	require.NotNil(t, err)
}

func mustNullable(t *testing.T, dtype DType, values []interface{}) *Column {
	t.Helper()
	col, err := NewColumn(dtype, values, nil)
	require.Nil(t, err)
	return col
}

func TestSortByKeysDescending(t *testing.T) {
	df, err := NewDataFrame(nil,
		Col("grp", NewTextColumn([]string{"b", "a", "b", "a"})),
		Col("val", mustNullable(t, Float64, []interface{}{nil, 2.0, 1.0, 3.0})),
	)
	require.Nil(t, err)

	out, err := df.SortByKeys(
		SortKey{Column: "grp"},
		SortKey{Column: "val", Descending: true},
	)
	require.Nil(t, err)
	grp, err := out.Column("grp")
	require.Nil(t, err)
	require.Equal(t, grp.Values(), []interface{}{"a", "a", "b", "b"})
	val, err := out.Column("val")
	require.Nil(t, err)
	// descending inside each group, with the null still ranking last
	require.Equal(t, val.Values(), []interface{}{3.0, 2.0, 1.0, nil})
	require.Equal(t, out.Index().Labels(), []interface{}{3, 1, 2, 0})

	_, err = df.SortByKeys()
	require.NotNil(t, err)
	_, err = df.SortByKeys(SortKey{Column: "missing", Descending: true})
	require.NotNil(t, err)
}

func TestSortByKeysDescendingIsStable(t *testing.T) {
	df, err := NewDataFrame(nil,
		Col("val", NewInt64Column([]int64{1, 2, 1, 2})),
	)
	require.Nil(t, err)
	out, err := df.SortByKeys(SortKey{Column: "val", Descending: true})
	require.Nil(t, err)
	// ties keep original row order
	require.Equal(t, out.Index().Labels(), []interface{}{1, 3, 0, 2})
}

func TestSortByRejectsObjectColumns(t *testing.T) {
	df, err := NewDataFrame(nil, Col("o", NewObjectColumn([]interface{}{1, "x"})))
	require.Nil(t, err)
	_, err = df.SortBy("o")
	require.NotNil(t, err)
	require.IsType(t, errors.UnsupportedOperationError{}, err)
}

func TestReindex(t *testing.T) {
	df, err := NewDataFrame(mustIndex([]interface{}{"a", "b", "c"}),
		Col("x", NewInt64Column([]int64{1, 2, 3})),
	)
	require.Nil(t, err)

	out, err := df.Reindex([]interface{}{"c", "a", "z"})
	require.Nil(t, err)
	require.Equal(t, out.Index().Labels(), []interface{}{"c", "a", "z"})
	x, err := out.Column("x")
	require.Nil(t, err)
	// the missing label becomes a null row, upcasting the int column
	require.Equal(t, x.DType(), Float64)
	require.Equal(t, x.Values(), []interface{}{3.0, 1.0, nil})
}

func TestReindexRejectsAmbiguousSourceLabels(t *testing.T) {
	df, err := NewDataFrame(mustIndex([]interface{}{"a", "a"}),
		Col("x", NewInt64Column([]int64{1, 2})),
	)
	require.Nil(t, err)
	_, err = df.Reindex([]interface{}{"a"})
	require.NotNil(t, err)
	require.IsType(t, errors.UnsupportedOperationError{}, err)
}

func TestHeadTailRecords(t *testing.T) {
	df := makeFrame(t)

	head := df.Head(2)
	require.Equal(t, head.NumRows(), 2)
	require.Equal(t, head.Index().Labels(), []interface{}{0, 1})

	tail := df.Tail(2)
	require.Equal(t, tail.NumRows(), 2)
	require.Equal(t, tail.Index().Labels(), []interface{}{2, 3})

	require.Equal(t, df.Head(99).NumRows(), 4)

	records := df.Records()
	want := [][]interface{}{
		{"ada", int64(35), 9.1},
		{"bob", int64(28), 7.5},
		{"cid", int64(52), 8.0},
		{"dee", int64(41), 6.2},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestConcatPromotesDTypes(t *testing.T) {
	top, err := NewDataFrame(nil, Col("x", NewInt64Column([]int64{1, 2})))
	require.Nil(t, err)
	bottom, err := NewDataFrame(nil, Col("x", NewFloat64Column([]float64{3.5})))
	require.Nil(t, err)

	out, err := top.Concat(bottom)
	require.Nil(t, err)
	require.Equal(t, out.NumRows(), 3)
	x, err := out.Column("x")
	require.Nil(t, err)
	require.Equal(t, x.DType(), Float64)
	require.Equal(t, x.Values(), []interface{}{1.0, 2.0, 3.5})
	// labels are concatenated, duplicates included
	require.Equal(t, out.Index().Labels(), []interface{}{0, 1, 0})
}

func TestConcatFallsBackToObject(t *testing.T) {
	top, err := NewDataFrame(nil, Col("x", NewInt64Column([]int64{1})))
	require.Nil(t, err)
	bottom, err := NewDataFrame(nil, Col("x", NewTextColumn([]string{"s"})))
	require.Nil(t, err)
	out, err := top.Concat(bottom)
	require.Nil(t, err)
	x, err := out.Column("x")
	require.Nil(t, err)
	require.Equal(t, x.DType(), Object)
	require.Equal(t, x.Values(), []interface{}{int64(1), "s"})
}

func TestConcatRequiresSameColumns(t *testing.T) {
	top, err := NewDataFrame(nil, Col("x", NewInt64Column([]int64{1})))
	require.Nil(t, err)
	bottom, err := NewDataFrame(nil, Col("y", NewInt64Column([]int64{2})))
	require.Nil(t, err)
	_, err = top.Concat(bottom)
	require.NotNil(t, err)
}

func TestDataFrameCopyIsDeep(t *testing.T) {
	df := makeFrame(t)
	cp := df.Copy()
	col, err := cp.Column("age")
	require.Nil(t, err)
	require.Nil(t, col.SetInPlace(0, 99))
	orig, err := df.Column("age")
	require.Nil(t, err)
	v, err := orig.Int64At(0)
	require.Nil(t, err)
	require.Equal(t, v, int64(35))
}

func TestDataFrameString(t *testing.T) {
	df := makeFrame(t)
	s := df.String()
	require.Contains(t, s, "name")
	require.Contains(t, s, "ada")
	require.True(t, strings.HasSuffix(s, "[4 rows x 3 columns]"))
}
