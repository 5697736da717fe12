package slate

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// AggOp identifies a per-group reduction.
type AggOp int

const (
	// AggSum adds the non-null values of a numeric column
	AggSum AggOp = iota
	// AggMean averages the non-null values of a numeric column
	AggMean
	// AggMin takes the smallest non-null value
	AggMin
	// AggMax takes the largest non-null value
	AggMax
	// AggCount counts non-null values
	AggCount
	// AggCountRows counts rows, nulls included
	AggCountRows
	// AggFirst takes the first non-null value in row order
	AggFirst
	// AggLast takes the last non-null value in row order
	AggLast
)

func (o AggOp) String() string {
	switch o {
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggCount:
		return "count"
	case AggCountRows:
		return "count_rows"
	case AggFirst:
		return "first"
	default:
		return "last"
	}
}

// An AggSpec names one reduction for GroupBy.Agg: which column, which op,
// and optionally the output column name. When As is empty the output keeps
// the source column's name, gaining an "_op" suffix only on collision.
type AggSpec struct {
	Column string
	Op     AggOp
	As     string
}

// A Group is one key tuple and the row positions holding it, in original
// order.
type Group struct {
	Key  []interface{}
	Rows []int
}

type group struct {
	key   []interface{}
	label interface{}
	rows  []int
}

// A GroupBy is a DataFrame partitioned by the distinct key tuples of one or
// more key columns. Groups appear in first-seen row order; a null key cell
// is a valid key, equal to other nulls and distinct from every value.
type GroupBy struct {
	df     *DataFrame
	keys   []string
	groups []group
}

// GroupBy partitions the frame's rows by the distinct value tuples of the
// named key columns in a single scan. Object columns cannot be keys.
func (df *DataFrame) GroupBy(keys ...string) (*GroupBy, error) {
	start := time.Now()
	if len(keys) == 0 {
		return nil, unsupported("group_by", "at least one key column is required")
	}
	seen := make(map[string]bool, len(keys))
	cols := make([]*Column, len(keys))
	for i, name := range keys {
		if seen[name] {
			return nil, unsupported("group_by", fmt.Sprintf("duplicate key column %q", name))
		}
		seen[name] = true
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	table, err := newKeyTable("group_by", cols, nil)
	if err != nil {
		return nil, err
	}
	_, encs := table.rowKeys(df.NumRows())
	byEnc := make(map[string]int, len(encs))
	var groups []group
	for pos, enc := range encs {
		gi, ok := byEnc[enc]
		if !ok {
			gi = len(groups)
			byEnc[enc] = gi
			key := table.keyValues(pos)
			var label interface{}
			if len(key) == 1 {
				label = key[0]
			} else {
				label = GroupKey{vals: key, enc: enc}
			}
			groups = append(groups, group{key: key, label: label})
		}
		groups[gi].rows = append(groups[gi].rows, pos)
	}
	g := &GroupBy{df: df, keys: keys, groups: groups}
	observe(EventGroupBy, df.NumRows(), len(groups), start)
	return g, nil
}

// Keys returns the key column names
func (g *GroupBy) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// NumGroups returns the number of distinct key tuples
func (g *GroupBy) NumGroups() int {
	return len(g.groups)
}

// Groups returns every group's key tuple and row positions, in group order
func (g *GroupBy) Groups() []Group {
	out := make([]Group, len(g.groups))
	for i, grp := range g.groups {
		key := make([]interface{}, len(grp.key))
		copy(key, grp.key)
		rows := make([]int, len(grp.rows))
		copy(rows, grp.rows)
		out[i] = Group{Key: key, Rows: rows}
	}
	return out
}

// SortKeys returns a GroupBy with the groups reordered by key tuple,
// ascending, nulls last. Row order inside each group is untouched.
func (g *GroupBy) SortKeys() *GroupBy {
	groups := make([]group, len(g.groups))
	copy(groups, g.groups)
	sort.SliceStable(groups, func(a, b int) bool {
		return compareKeyTuples(groups[a].key, groups[b].key) < 0
	})
	return &GroupBy{df: g.df, keys: g.keys, groups: groups}
}

func compareKeyTuples(a, b []interface{}) int {
	for i := range a {
		if cmp := compareBoxed(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// compareBoxed orders two boxed key values of the same underlying dtype,
// nulls last, NaN after every real number.
func compareBoxed(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch av := a.(type) {
	case int64:
		return compareOrdered(av, b.(int64))
	case float64:
		bv := b.(float64)
		an, bn := math.IsNaN(av), math.IsNaN(bv)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return compareOrdered(av, bv)
	case string:
		return compareOrdered(av, b.(string))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

// Agg reduces each group according to the given specs and returns one row
// per group, in group order. The result's index labels are the key tuples:
// the bare key value for a single key column, a GroupKey for several.
// Reductions skip nulls; a group whose values are all null reduces to null,
// except the counting ops which yield 0.
func (g *GroupBy) Agg(specs ...AggSpec) (*DataFrame, error) {
	start := time.Now()
	if len(specs) == 0 {
		return nil, unsupported("aggregate", "at least one aggregation is required")
	}
	keySet := make(map[string]bool, len(g.keys))
	for _, k := range g.keys {
		keySet[k] = true
	}
	used := make(map[string]bool, len(specs))
	named := make([]NamedColumn, 0, len(specs))
	ix, err := g.labelIndex()
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if keySet[spec.Column] {
			return nil, unsupported("aggregate", fmt.Sprintf("column %q is a group key", spec.Column))
		}
		col, err := g.df.Column(spec.Column)
		if err != nil {
			return nil, err
		}
		target, err := aggTarget(spec.Op, col.DType())
		if err != nil {
			return nil, err
		}
		name := spec.As
		if name == "" {
			name = spec.Column
			if used[name] {
				name = spec.Column + "_" + spec.Op.String()
			}
		}
		if used[name] {
			return nil, unsupported("aggregate", fmt.Sprintf("duplicate output column %q", name))
		}
		used[name] = true
		values := make([]interface{}, len(g.groups))
		for i, grp := range g.groups {
			values[i] = aggValue(col, spec.Op, grp.rows)
		}
		out, err := NewColumn(target, values, nil)
		if err != nil {
			return nil, err
		}
		bound, err := out.WithIndex(ix)
		if err != nil {
			return nil, err
		}
		named = append(named, Col(name, bound))
	}
	df, err := NewDataFrame(ix, named...)
	if err != nil {
		return nil, err
	}
	observe(EventAggregate, g.df.NumRows(), df.NumRows(), start)
	return df, nil
}

func (g *GroupBy) labelIndex() (*Index, error) {
	labels := make([]interface{}, len(g.groups))
	for i, grp := range g.groups {
		labels[i] = grp.label
	}
	return NewIndex(labels)
}

// aggTarget resolves the output dtype of a reduction over a column, or
// rejects the pairing.
func aggTarget(op AggOp, t DType) (DType, error) {
	switch op {
	case AggCount, AggCountRows:
		return Int64, nil
	case AggMean:
		if !t.IsNumeric() {
			return 0, unsupported("aggregate", fmt.Sprintf("mean requires a numeric column, got %s", t))
		}
		return Float64, nil
	case AggSum:
		if !t.IsNumeric() {
			return 0, unsupported("aggregate", fmt.Sprintf("sum requires a numeric column, got %s", t))
		}
		return t, nil
	case AggMin, AggMax:
		if !t.IsNumeric() && t != Text {
			return 0, unsupported("aggregate", fmt.Sprintf("%s requires a numeric or text column, got %s", op, t))
		}
		return t, nil
	default:
		return t, nil
	}
}

// aggValue reduces one group of one column to a boxed value, nil for null.
// NaN is a value, not a null: it participates in sums and ordering.
func aggValue(col *Column, op AggOp, rows []int) interface{} {
	switch op {
	case AggCountRows:
		return int64(len(rows))
	case AggCount:
		n := int64(0)
		for _, pos := range rows {
			if !col.nulls[pos] {
				n++
			}
		}
		return n
	case AggFirst:
		for _, pos := range rows {
			if !col.nulls[pos] {
				return col.valueAt(pos)
			}
		}
		return nil
	case AggLast:
		for i := len(rows) - 1; i >= 0; i-- {
			if !col.nulls[rows[i]] {
				return col.valueAt(rows[i])
			}
		}
		return nil
	case AggSum:
		if col.dtype == Int64 {
			var sum int64
			seen := false
			for _, pos := range rows {
				if !col.nulls[pos] {
					sum += col.ints[pos]
					seen = true
				}
			}
			if !seen {
				return nil
			}
			return sum
		}
		var sum float64
		seen := false
		for _, pos := range rows {
			if !col.nulls[pos] {
				sum += col.floats[pos]
				seen = true
			}
		}
		if !seen {
			return nil
		}
		return sum
	case AggMean:
		var sum float64
		n := 0
		for _, pos := range rows {
			if col.nulls[pos] {
				continue
			}
			v, _ := col.NumberAt(pos)
			sum += v
			n++
		}
		if n == 0 {
			return nil
		}
		return sum / float64(n)
	default: // AggMin, AggMax
		want := -1
		if op == AggMax {
			want = 1
		}
		var best interface{}
		for _, pos := range rows {
			if col.nulls[pos] {
				continue
			}
			v := col.valueAt(pos)
			if best == nil || compareBoxed(v, best) == want {
				best = v
			}
		}
		return best
	}
}

// Sum reduces the named columns (or every non-key numeric column when none
// are named) with AggSum.
func (g *GroupBy) Sum(columns ...string) (*DataFrame, error) {
	return g.each(AggSum, columns)
}

// Mean reduces the named columns (or every non-key numeric column when none
// are named) with AggMean.
func (g *GroupBy) Mean(columns ...string) (*DataFrame, error) {
	return g.each(AggMean, columns)
}

// Min reduces the named columns (or every non-key numeric or text column
// when none are named) with AggMin.
func (g *GroupBy) Min(columns ...string) (*DataFrame, error) {
	return g.each(AggMin, columns)
}

// Max reduces the named columns (or every non-key numeric or text column
// when none are named) with AggMax.
func (g *GroupBy) Max(columns ...string) (*DataFrame, error) {
	return g.each(AggMax, columns)
}

// Count counts the non-null values of the named columns (or every non-key
// column when none are named).
func (g *GroupBy) Count(columns ...string) (*DataFrame, error) {
	return g.each(AggCount, columns)
}

func (g *GroupBy) each(op AggOp, columns []string) (*DataFrame, error) {
	if len(columns) == 0 {
		keySet := make(map[string]bool, len(g.keys))
		for _, k := range g.keys {
			keySet[k] = true
		}
		for _, name := range g.df.names {
			if keySet[name] {
				continue
			}
			if _, err := aggTarget(op, g.df.cols[name].DType()); err != nil {
				continue
			}
			columns = append(columns, name)
		}
		if len(columns) == 0 {
			return nil, unsupported("aggregate", fmt.Sprintf("no column supports %s", op))
		}
	}
	specs := make([]AggSpec, len(columns))
	for i, name := range columns {
		specs[i] = AggSpec{Column: name, Op: op}
	}
	return g.Agg(specs...)
}

// FirstRow returns each group's literal first row, nulls included, with the
// group keys as the result's index labels. Unlike AggFirst it does not skip
// nulls: the values come from one physical row.
func (g *GroupBy) FirstRow() (*DataFrame, error) {
	ix, err := g.labelIndex()
	if err != nil {
		return nil, err
	}
	positions := make([]int, len(g.groups))
	for i, grp := range g.groups {
		positions[i] = grp.rows[0]
	}
	keySet := make(map[string]bool, len(g.keys))
	for _, k := range g.keys {
		keySet[k] = true
	}
	named := make([]NamedColumn, 0, g.df.NumColumns())
	for _, name := range g.df.names {
		if keySet[name] {
			continue
		}
		named = append(named, Col(name, g.df.cols[name].take(positions, ix)))
	}
	return NewDataFrame(ix, named...)
}
