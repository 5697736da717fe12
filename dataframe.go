package slate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hashicorp/go-multierror"

	errors "github.com/go-slate/slate/errors"
)

// A NamedColumn pairs a Column with the name it holds inside a DataFrame.
type NamedColumn struct {
	Name   string
	Column *Column
}

// Col is shorthand for building a NamedColumn.
func Col(name string, c *Column) NamedColumn {
	return NamedColumn{Name: name, Column: c}
}

// A DataFrame is an ordered collection of equal-length Columns sharing one
// Index. Column order is the order of construction and is preserved by every
// operation. DataFrames are immutable except for the explicitly named
// in-place variants.
type DataFrame struct {
	idx   *Index
	names []string
	cols  map[string]*Column
}

// NewDataFrame assembles a DataFrame from named Columns. All Columns must
// share one length; names must be unique and non-empty. When index is nil a
// positional index is used. Every Column is rebound to the shared index, so
// the inputs' own indexes are ignored. All construction problems are
// reported together.
func NewDataFrame(index *Index, named ...NamedColumn) (*DataFrame, error) {
	var errs *multierror.Error
	rows := -1
	seen := make(map[string]bool, len(named))
	for _, nc := range named {
		if nc.Name == "" {
			errs = multierror.Append(errs, unsupported("new_dataframe", "column name must not be empty"))
		}
		if seen[nc.Name] {
			errs = multierror.Append(errs, unsupported("new_dataframe", fmt.Sprintf("duplicate column name %q", nc.Name)))
		}
		seen[nc.Name] = true
		if nc.Column == nil {
			errs = multierror.Append(errs, unsupported("new_dataframe", fmt.Sprintf("column %q is nil", nc.Name)))
			continue
		}
		if rows == -1 {
			rows = nc.Column.Len()
		} else if nc.Column.Len() != rows {
			errs = multierror.Append(errs, lengthMismatch("new_dataframe", rows, nc.Column.Len()))
		}
	}
	if rows == -1 {
		rows = 0
	}
	if index != nil && index.Len() != rows {
		errs = multierror.Append(errs, lengthMismatch("new_dataframe", rows, index.Len()))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if index == nil {
		index = NewRangeIndex(rows)
	}
	df := &DataFrame{idx: index, names: make([]string, 0, len(named)), cols: make(map[string]*Column, len(named))}
	for _, nc := range named {
		bound, err := nc.Column.WithIndex(index)
		if err != nil {
			return nil, err
		}
		df.names = append(df.names, nc.Name)
		df.cols[nc.Name] = bound
	}
	return df, nil
}

// A ColumnDescriptor declares a Column for FromDescriptors: a name, a target
// dtype, boxed values, and the positions that should be null.
type ColumnDescriptor struct {
	Name          string
	DType         DType
	Values        []interface{}
	NullPositions []int
}

// FromDescriptors builds a DataFrame from column declarations, coercing
// boxed values into each declared dtype. Problems across all descriptors are
// reported together.
func FromDescriptors(index *Index, descs ...ColumnDescriptor) (*DataFrame, error) {
	var errs *multierror.Error
	named := make([]NamedColumn, 0, len(descs))
	for _, d := range descs {
		col, err := NewColumn(d.DType, d.Values, d.NullPositions)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("column %q: %w", d.Name, err))
			continue
		}
		named = append(named, Col(d.Name, col))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return NewDataFrame(index, named...)
}

// NumRows returns the number of rows
func (df *DataFrame) NumRows() int {
	return df.idx.Len()
}

// NumColumns returns the number of columns
func (df *DataFrame) NumColumns() int {
	return len(df.names)
}

// Names returns the column names in frame order
func (df *DataFrame) Names() []string {
	out := make([]string, len(df.names))
	copy(out, df.names)
	return out
}

// Index returns the row labels shared by every Column in this DataFrame
func (df *DataFrame) Index() *Index {
	return df.idx
}

// HasColumn reports whether a column with the given name exists
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.cols[name]
	return ok
}

// Column returns the named Column
func (df *DataFrame) Column(name string) (*Column, error) {
	col, ok := df.cols[name]
	if !ok {
		return nil, errors.UnknownColumnError{Name: name}
	}
	return col, nil
}

// Select returns a DataFrame holding only the named columns, in the given
// order, sharing storage and index with the receiver.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	out := &DataFrame{idx: df.idx, names: make([]string, 0, len(names)), cols: make(map[string]*Column, len(names))}
	for _, name := range names {
		col, ok := df.cols[name]
		if !ok {
			return nil, errors.UnknownColumnError{Name: name}
		}
		if _, dup := out.cols[name]; dup {
			return nil, unsupported("select", fmt.Sprintf("duplicate column name %q", name))
		}
		out.names = append(out.names, name)
		out.cols[name] = col
	}
	return out, nil
}

// WithColumn returns a DataFrame with the named column added, or replaced if
// the name already exists. The Column must match the frame's length and is
// rebound to the frame's index.
func (df *DataFrame) WithColumn(name string, col *Column) (*DataFrame, error) {
	if name == "" {
		return nil, unsupported("with_column", "column name must not be empty")
	}
	if col.Len() != df.NumRows() {
		return nil, lengthMismatch("with_column", df.NumRows(), col.Len())
	}
	bound, err := col.WithIndex(df.idx)
	if err != nil {
		return nil, err
	}
	out := df.shallow()
	if !df.HasColumn(name) {
		out.names = append(out.names, name)
	}
	out.cols[name] = bound
	return out, nil
}

// DropColumn returns a DataFrame without the named column.
func (df *DataFrame) DropColumn(name string) (*DataFrame, error) {
	if !df.HasColumn(name) {
		return nil, errors.UnknownColumnError{Name: name}
	}
	out := &DataFrame{idx: df.idx, names: make([]string, 0, len(df.names)-1), cols: make(map[string]*Column, len(df.names)-1)}
	for _, n := range df.names {
		if n == name {
			continue
		}
		out.names = append(out.names, n)
		out.cols[n] = df.cols[n]
	}
	return out, nil
}

// RenameColumn returns a DataFrame with one column renamed, keeping its
// position.
func (df *DataFrame) RenameColumn(old, new string) (*DataFrame, error) {
	if !df.HasColumn(old) {
		return nil, errors.UnknownColumnError{Name: old}
	}
	if new == "" {
		return nil, unsupported("rename_column", "column name must not be empty")
	}
	if new != old && df.HasColumn(new) {
		return nil, unsupported("rename_column", fmt.Sprintf("column %q already exists", new))
	}
	out := df.shallow()
	for i, n := range out.names {
		if n == old {
			out.names[i] = new
		}
	}
	out.cols[new] = out.cols[old]
	if new != old {
		delete(out.cols, old)
	}
	return out, nil
}

func (df *DataFrame) shallow() *DataFrame {
	out := &DataFrame{idx: df.idx, names: make([]string, len(df.names)), cols: make(map[string]*Column, len(df.cols))}
	copy(out.names, df.names)
	for n, c := range df.cols {
		out.cols[n] = c
	}
	return out
}

// Copy returns a deep copy of this DataFrame
func (df *DataFrame) Copy() *DataFrame {
	out := &DataFrame{idx: df.idx, names: make([]string, len(df.names)), cols: make(map[string]*Column, len(df.cols))}
	copy(out.names, df.names)
	for n, c := range df.cols {
		out.cols[n] = c.Copy()
	}
	return out
}

// Filter returns the rows where the mask is true, in their original order.
// The mask must be boolean (a Bool Column, or an Object Column of bools and
// nulls), match the frame's length, and share its index; null mask entries
// keep nothing.
func (df *DataFrame) Filter(mask *Column) (*DataFrame, error) {
	start := time.Now()
	if mask.Len() != df.NumRows() {
		return nil, lengthMismatch("filter", df.NumRows(), mask.Len())
	}
	if !df.idx.Equal(mask.idx) {
		return nil, indexMismatch("filter")
	}
	bits, err := mask.maskBits("filter")
	if err != nil {
		return nil, err
	}
	positions := make([]int, 0, len(bits))
	for i, keep := range bits {
		if keep {
			positions = append(positions, i)
		}
	}
	out := df.takeRows(positions, df.idx.take(positions))
	observe(EventFilter, df.NumRows(), out.NumRows(), start)
	return out, nil
}

// takeRows gathers the given row positions of every column into a new frame
// bound to ix. Negative positions become null rows.
func (df *DataFrame) takeRows(positions []int, ix *Index) *DataFrame {
	if ix == nil {
		ix = NewRangeIndex(len(positions))
	}
	out := &DataFrame{idx: ix, names: make([]string, len(df.names)), cols: make(map[string]*Column, len(df.cols))}
	copy(out.names, df.names)
	for n, c := range df.cols {
		out.cols[n] = c.take(positions, ix)
	}
	return out
}

// A SortKey names one sort column and its direction. The zero value sorts
// ascending.
type SortKey struct {
	Column     string
	Descending bool
}

// SortBy returns the rows reordered by the named columns, ascending, in
// priority order. Shorthand for SortByKeys with every key ascending.
func (df *DataFrame) SortBy(names ...string) (*DataFrame, error) {
	keys := make([]SortKey, len(names))
	for i, name := range names {
		keys[i] = SortKey{Column: name}
	}
	return df.SortByKeys(keys...)
}

// SortByKeys returns the rows reordered by the given keys in priority order,
// each key ascending or descending on its own. The sort is stable; ties keep
// original row order, and nulls and NaN rank after every value under either
// direction. Object columns have no ordering and cannot be keys.
func (df *DataFrame) SortByKeys(keys ...SortKey) (*DataFrame, error) {
	start := time.Now()
	if len(keys) == 0 {
		return nil, unsupported("sort", "at least one column is required")
	}
	cols := make([]*Column, len(keys))
	for i, key := range keys {
		col, err := df.Column(key.Column)
		if err != nil {
			return nil, err
		}
		if col.DType() == Object {
			return nil, unsupported("sort", fmt.Sprintf("column %q has dtype object, which has no ordering", key.Column))
		}
		cols[i] = col
	}
	positions := make([]int, df.NumRows())
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(a, b int) bool {
		for i, col := range cols {
			if cmp := orderValues(col, positions[a], positions[b], keys[i].Descending); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	out := df.takeRows(positions, df.idx.take(positions))
	observe(EventSort, df.NumRows(), out.NumRows(), start)
	return out, nil
}

// orderValues compares two positions of one column for sorting: -1, 0 or 1.
// Nulls and NaN rank after everything regardless of direction; only value
// comparisons flip under a descending key.
func orderValues(c *Column, a, b int, descending bool) int {
	an, bn := c.nulls[a], c.nulls[b]
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	var cmp int
	switch c.dtype {
	case Int64:
		cmp = compareOrdered(c.ints[a], c.ints[b])
	case Float64:
		x, y := c.floats[a], c.floats[b]
		xn, yn := math.IsNaN(x), math.IsNaN(y)
		switch {
		case xn && yn:
			return 0
		case xn:
			return 1
		case yn:
			return -1
		}
		cmp = compareOrdered(x, y)
	case Bool:
		x, y := c.bools[a], c.bools[b]
		switch {
		case x == y:
			cmp = 0
		case !x:
			cmp = -1
		default:
			cmp = 1
		}
	default:
		cmp = compareOrdered(c.texts[a], c.texts[b])
	}
	if descending {
		return -cmp
	}
	return cmp
}

func compareOrdered[T interface{ ~int64 | ~float64 | ~string }](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Reindex conforms this DataFrame to a new set of labels: rows are gathered
// by label from the current index, labels absent from it produce all-null
// rows, and a label that is duplicated in the source is an error because the
// row to gather is ambiguous.
func (df *DataFrame) Reindex(labels []interface{}) (*DataFrame, error) {
	start := time.Now()
	target, err := NewIndex(labels)
	if err != nil {
		return nil, err
	}
	positions := make([]int, target.Len())
	for i := 0; i < target.Len(); i++ {
		label, _ := target.Label(i)
		found := df.idx.lookup[labelKey(label)]
		switch len(found) {
		case 0:
			positions[i] = -1
		case 1:
			positions[i] = found[0]
		default:
			return nil, unsupported("reindex", fmt.Sprintf("label %v occurs %d times in the source index", label, len(found)))
		}
	}
	out := df.takeRows(positions, target)
	observe(EventReindex, df.NumRows(), out.NumRows(), start)
	return out, nil
}

// Head returns the first n rows (fewer if the frame is shorter).
func (df *DataFrame) Head(n int) *DataFrame {
	if n > df.NumRows() {
		n = df.NumRows()
	}
	if n < 0 {
		n = 0
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return df.takeRows(positions, df.idx.take(positions))
}

// Tail returns the last n rows (fewer if the frame is shorter).
func (df *DataFrame) Tail(n int) *DataFrame {
	rows := df.NumRows()
	if n > rows {
		n = rows
	}
	if n < 0 {
		n = 0
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = rows - n + i
	}
	return df.takeRows(positions, df.idx.take(positions))
}

// Records returns the rows as boxed values in frame column order, nil at
// nulls. Column names come from Names.
func (df *DataFrame) Records() [][]interface{} {
	out := make([][]interface{}, df.NumRows())
	for i := range out {
		row := make([]interface{}, len(df.names))
		for j, name := range df.names {
			col := df.cols[name]
			if !col.nulls[i] {
				row[j] = col.valueAt(i)
			}
		}
		out[i] = row
	}
	return out
}

// Concat appends the other frame's rows below this one. Both frames must
// have the same column names (order may differ; this frame's order wins).
// Column dtypes promote pairwise; when no promotion rule applies the column
// falls back to Object. The result index is the two label sequences joined.
func (df *DataFrame) Concat(other *DataFrame) (*DataFrame, error) {
	start := time.Now()
	if df.NumColumns() != other.NumColumns() {
		return nil, unsupported("concat", fmt.Sprintf("frames have %d and %d columns", df.NumColumns(), other.NumColumns()))
	}
	for _, name := range df.names {
		if !other.HasColumn(name) {
			return nil, errors.UnknownColumnError{Name: name}
		}
	}
	labels := append(df.idx.Labels(), other.idx.Labels()...)
	ix, err := NewIndex(labels)
	if err != nil {
		return nil, err
	}
	out := &DataFrame{idx: ix, names: make([]string, len(df.names)), cols: make(map[string]*Column, len(df.names))}
	copy(out.names, df.names)
	for _, name := range df.names {
		top, bottom := df.cols[name], other.cols[name]
		target := top.dtype
		if top.dtype != bottom.dtype {
			promoted, ok := promote(top.dtype, bottom.dtype)
			if !ok {
				promoted = Object
			}
			target = promoted
		}
		for _, c := range []*Column{top, bottom} {
			if c.NullCount() > 0 {
				target = target.nullable()
				break
			}
		}
		col := newColumnOfType(target, ix.Len())
		col.idx = ix
		pos := 0
		for _, c := range []*Column{top, bottom} {
			for i := 0; i < c.Len(); i++ {
				if c.nulls[i] {
					col.nulls[pos] = true
				} else {
					stored, ok := coerce(c.valueAt(i), target)
					if !ok {
						return nil, unsupported("concat", fmt.Sprintf("column %q: value %v does not fit dtype %s", name, c.valueAt(i), target))
					}
					col.setStorage(pos, stored)
				}
				pos++
			}
		}
		out.cols[name] = col
	}
	observe(EventConcat, df.NumRows(), out.NumRows(), start)
	return out, nil
}

// String renders the frame as an aligned table with the index in the first
// column. Long frames show the first rows and a trailing ellipsis; the
// footer always reports the full shape.
func (df *DataFrame) String() string {
	const maxRows = 20
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\t%s\n", strings.Join(df.names, "\t"))
	shown := df.NumRows()
	if shown > maxRows {
		shown = maxRows
	}
	for i := 0; i < shown; i++ {
		label, _ := df.idx.Label(i)
		fmt.Fprintf(w, "%v", label)
		for _, name := range df.names {
			col := df.cols[name]
			if col.nulls[i] {
				fmt.Fprint(w, "\tnull")
			} else {
				fmt.Fprintf(w, "\t%v", col.valueAt(i))
			}
		}
		fmt.Fprintln(w)
	}
	if df.NumRows() > shown {
		fmt.Fprintln(w, "...")
	}
	w.Flush()
	fmt.Fprintf(&b, "[%d rows x %d columns]", df.NumRows(), df.NumColumns())
	return b.String()
}
