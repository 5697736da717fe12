package slate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	errors "github.com/go-slate/slate/errors"
)

func joinFixtures(t *testing.T) (*DataFrame, *DataFrame) {
	t.Helper()
	left, err := NewDataFrame(nil,
		Col("key", NewInt64Column([]int64{1, 1, 2})),
		Col("v", NewInt64Column([]int64{10, 20, 30})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(nil,
		Col("key", NewInt64Column([]int64{1, 3})),
		Col("w", NewInt64Column([]int64{100, 200})),
	)
	require.Nil(t, err)
	return left, right
}

func TestMergeInnerExpandsDuplicates(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}})
	require.Nil(t, err)
	require.Equal(t, out.Names(), []string{"key", "v", "w"})
	want := [][]interface{}{
		{int64(1), int64(10), int64(100)},
		{int64(1), int64(20), int64(100)},
	}
	if diff := cmp.Diff(want, out.Records()); diff != "" {
		t.Fatalf("inner join mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeLeftPadsMissingRight(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}, How: LeftJoin})
	require.Nil(t, err)
	require.Equal(t, out.NumRows(), 3)
	w, err := out.Column("w")
	require.Nil(t, err)
	// the padded int column holds a null, so it arrives as floats
	require.Equal(t, w.DType(), Float64)
	require.Equal(t, w.Values(), []interface{}{100.0, 100.0, nil})
	v, err := out.Column("v")
	require.Nil(t, err)
	require.Equal(t, v.Values(), []interface{}{int64(10), int64(20), int64(30)})
}

func TestMergeRightFollowsRightOrder(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}, How: RightJoin})
	require.Nil(t, err)
	key, err := out.Column("key")
	require.Nil(t, err)
	require.Equal(t, key.Values(), []interface{}{int64(1), int64(1), int64(3)})
	v, err := out.Column("v")
	require.Nil(t, err)
	require.Equal(t, v.Values(), []interface{}{10.0, 20.0, nil})
	w, err := out.Column("w")
	require.Nil(t, err)
	require.Equal(t, w.Values(), []interface{}{int64(100), int64(100), int64(200)})
}

func TestMergeOuterKeepsBothSides(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}, How: OuterJoin})
	require.Nil(t, err)
	key, err := out.Column("key")
	require.Nil(t, err)
	require.Equal(t, key.Values(), []interface{}{int64(1), int64(1), int64(2), int64(3)})
	v, err := out.Column("v")
	require.Nil(t, err)
	require.Equal(t, v.Values(), []interface{}{10.0, 20.0, 30.0, nil})
	w, err := out.Column("w")
	require.Nil(t, err)
	require.Equal(t, w.Values(), []interface{}{100.0, 100.0, nil, 200.0})
}

func TestMergeStrictRejectsDuplicates(t *testing.T) {
	left, right := joinFixtures(t)
	_, err := Merge(left, right, JoinOptions{On: []string{"key"}, Strict: true})
	require.NotNil(t, err)
	dup, ok := err.(errors.DuplicateJoinKeyError)
	require.True(t, ok)
	require.Equal(t, dup.Side, "left")
	require.Equal(t, dup.Key, "1")

	// the unique-keyed direction passes
	_, err = Merge(right, right, JoinOptions{On: []string{"key"}, Strict: true})
	require.Nil(t, err)
}

func TestMergeNullKeysMatchEachOther(t *testing.T) {
	left, err := NewDataFrame(nil,
		Col("key", mustNullable(t, Float64, []interface{}{1.0, nil})),
		Col("v", NewInt64Column([]int64{10, 20})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(nil,
		Col("key", mustNullable(t, Float64, []interface{}{nil, 2.0})),
		Col("w", NewInt64Column([]int64{100, 200})),
	)
	require.Nil(t, err)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}})
	require.Nil(t, err)
	require.Equal(t, out.NumRows(), 1)
	key, err := out.Column("key")
	require.Nil(t, err)
	require.True(t, key.IsNull(0))
	v, err := out.Column("v")
	require.Nil(t, err)
	require.Equal(t, v.Values(), []interface{}{int64(20)})
}

func TestMergeReconcilesIntAndFloatKeys(t *testing.T) {
	left, err := NewDataFrame(nil,
		Col("key", NewInt64Column([]int64{1, 2})),
		Col("v", NewInt64Column([]int64{10, 20})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(nil,
		Col("key", NewFloat64Column([]float64{1.0, 2.5})),
		Col("w", NewInt64Column([]int64{100, 200})),
	)
	require.Nil(t, err)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}})
	require.Nil(t, err)
	require.Equal(t, out.NumRows(), 1)
	key, err := out.Column("key")
	require.Nil(t, err)
	require.Equal(t, key.DType(), Float64)
	require.Equal(t, key.Values(), []interface{}{1.0})
}

func TestMergeSuffixesCollidingNames(t *testing.T) {
	left, err := NewDataFrame(nil,
		Col("key", NewInt64Column([]int64{1})),
		Col("v", NewInt64Column([]int64{10})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(nil,
		Col("key", NewInt64Column([]int64{1})),
		Col("v", NewInt64Column([]int64{99})),
	)
	require.Nil(t, err)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}})
	require.Nil(t, err)
	require.Equal(t, out.Names(), []string{"key", "v_left", "v_right"})

	custom, err := Merge(left, right, JoinOptions{On: []string{"key"}, LeftSuffix: "_l", RightSuffix: "_r"})
	require.Nil(t, err)
	require.Equal(t, custom.Names(), []string{"key", "v_l", "v_r"})
}

func TestMergeMultiKey(t *testing.T) {
	left, err := NewDataFrame(nil,
		Col("a", NewTextColumn([]string{"x", "x", "y"})),
		Col("b", NewInt64Column([]int64{1, 2, 1})),
		Col("v", NewInt64Column([]int64{10, 20, 30})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(nil,
		Col("a", NewTextColumn([]string{"x", "y"})),
		Col("b", NewInt64Column([]int64{2, 1})),
		Col("w", NewInt64Column([]int64{100, 200})),
	)
	require.Nil(t, err)
	out, err := Merge(left, right, JoinOptions{On: []string{"a", "b"}})
	require.Nil(t, err)
	want := [][]interface{}{
		{"x", int64(2), int64(20), int64(100)},
		{"y", int64(1), int64(30), int64(200)},
	}
	if diff := cmp.Diff(want, out.Records()); diff != "" {
		t.Fatalf("multi-key join mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeValidation(t *testing.T) {
	left, right := joinFixtures(t)

	_, err := Merge(left, right, JoinOptions{})
	require.NotNil(t, err)

	_, err = Merge(left, right, JoinOptions{On: []string{"nope"}})
	require.NotNil(t, err)
	require.IsType(t, errors.UnknownColumnError{}, err)

	obj, err := NewDataFrame(nil,
		Col("key", NewObjectColumn([]interface{}{1, 2})),
		Col("z", NewInt64Column([]int64{1, 2})),
	)
	require.Nil(t, err)
	objRight, err := NewDataFrame(nil,
		Col("key", NewObjectColumn([]interface{}{1})),
		Col("w", NewInt64Column([]int64{9})),
	)
	require.Nil(t, err)
	_, err = Merge(obj, objRight, JoinOptions{On: []string{"key"}})
	require.NotNil(t, err)
	require.IsType(t, errors.UnsupportedOperationError{}, err)

	text, err := NewDataFrame(nil, Col("key", NewTextColumn([]string{"1"})))
	require.Nil(t, err)
	_, err = Merge(left, text, JoinOptions{On: []string{"key"}})
	require.NotNil(t, err)
}

func TestMergeOnIndex(t *testing.T) {
	left, err := NewDataFrame(mustIndex([]interface{}{"a", "b", "c"}),
		Col("v", NewInt64Column([]int64{1, 2, 3})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(mustIndex([]interface{}{"b", "c", "d"}),
		Col("w", NewInt64Column([]int64{20, 30, 40})),
	)
	require.Nil(t, err)

	out, err := Merge(left, right, JoinOptions{OnIndex: true})
	require.Nil(t, err)
	require.Equal(t, out.Index().Labels(), []interface{}{"b", "c"})
	v, err := out.Column("v")
	require.Nil(t, err)
	require.Equal(t, v.Values(), []interface{}{int64(2), int64(3)})
	w, err := out.Column("w")
	require.Nil(t, err)
	require.Equal(t, w.Values(), []interface{}{int64(20), int64(30)})

	outer, err := Merge(left, right, JoinOptions{OnIndex: true, How: OuterJoin})
	require.Nil(t, err)
	require.Equal(t, outer.Index().Labels(), []interface{}{"a", "b", "c", "d"})
	w, err = outer.Column("w")
	require.Nil(t, err)
	require.Equal(t, w.Values(), []interface{}{nil, 20.0, 30.0, 40.0})
}

func TestMergeOnIndexStrict(t *testing.T) {
	left, err := NewDataFrame(mustIndex([]interface{}{"a", "a"}),
		Col("v", NewInt64Column([]int64{1, 2})),
	)
	require.Nil(t, err)
	right, err := NewDataFrame(mustIndex([]interface{}{"a"}),
		Col("w", NewInt64Column([]int64{9})),
	)
	require.Nil(t, err)
	_, err = Merge(left, right, JoinOptions{OnIndex: true, Strict: true})
	require.NotNil(t, err)
	dup, ok := err.(errors.DuplicateJoinKeyError)
	require.True(t, ok)
	require.Equal(t, dup.Side, "left")
}

func TestMergeOutputIndexIsPositional(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := Merge(left, right, JoinOptions{On: []string{"key"}, How: OuterJoin})
	require.Nil(t, err)
	require.Equal(t, out.Index().Labels(), []interface{}{0, 1, 2, 3})
}
