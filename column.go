package slate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	errors "github.com/go-slate/slate/errors"
	"github.com/go-slate/slate/internal/kernel"
)

// A Column is a typed, nullable, fixed-length sequence of values, the unit
// of storage. Exactly one backing slice is populated, selected by dtype, and
// the null bitmap always matches the column length. Columns are immutable by
// convention: every operation returns a new Column except the explicitly
// named in-place variants, which assume a single writer.
type Column struct {
	dtype   DType
	ints    []int64
	floats  []float64
	bools   []bool
	texts   []string
	objects []interface{}
	nulls   []bool
	idx     *Index
}

func newColumnOfType(t DType, n int) *Column {
	c := &Column{dtype: t, nulls: make([]bool, n)}
	switch t {
	case Int64:
		c.ints = make([]int64, n)
	case Float64:
		c.floats = make([]float64, n)
	case Bool:
		c.bools = make([]bool, n)
	case Text:
		c.texts = make([]string, n)
	case Object:
		c.objects = make([]interface{}, n)
	}
	return c
}

// NewColumn builds a Column of the given dtype from boxed values. Values
// listed in nullPositions (and nil values) become nulls; introducing a null
// upcasts Int64 to Float64 and Bool to Object, per the promotion rules.
func NewColumn(t DType, values []interface{}, nullPositions []int) (*Column, error) {
	n := len(values)
	nulls := make([]bool, n)
	for _, pos := range nullPositions {
		if pos < 0 || pos >= n {
			return nil, errors.OutOfBoundsError{Pos: pos, Len: n}
		}
		nulls[pos] = true
	}
	for i, v := range values {
		if v == nil {
			nulls[i] = true
		}
	}
	effective := t
	for _, isNull := range nulls {
		if isNull {
			effective = t.nullable()
			break
		}
	}
	c := newColumnOfType(effective, n)
	c.nulls = nulls
	var errs *multierror.Error
	for i, v := range values {
		if nulls[i] {
			continue
		}
		stored, ok := coerce(v, effective)
		if !ok {
			errs = multierror.Append(errs, unsupported("column",
				fmt.Sprintf("value %v (%T) at position %d does not fit dtype %s", v, v, i, effective)))
			continue
		}
		c.setStorage(i, stored)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	c.idx = NewRangeIndex(n)
	return c, nil
}

// NewInt64Column builds an Int64 Column with a positional index and no nulls.
func NewInt64Column(values []int64) *Column {
	c := newColumnOfType(Int64, len(values))
	copy(c.ints, values)
	c.idx = NewRangeIndex(len(values))
	return c
}

// NewFloat64Column builds a Float64 Column with a positional index and no nulls.
func NewFloat64Column(values []float64) *Column {
	c := newColumnOfType(Float64, len(values))
	copy(c.floats, values)
	c.idx = NewRangeIndex(len(values))
	return c
}

// NewBoolColumn builds a Bool Column with a positional index and no nulls.
func NewBoolColumn(values []bool) *Column {
	c := newColumnOfType(Bool, len(values))
	copy(c.bools, values)
	c.idx = NewRangeIndex(len(values))
	return c
}

// NewTextColumn builds a Text Column with a positional index and no nulls.
func NewTextColumn(values []string) *Column {
	c := newColumnOfType(Text, len(values))
	copy(c.texts, values)
	c.idx = NewRangeIndex(len(values))
	return c
}

// NewObjectColumn builds an Object Column with a positional index. Nil
// values become nulls.
func NewObjectColumn(values []interface{}) *Column {
	c := newColumnOfType(Object, len(values))
	copy(c.objects, values)
	for i, v := range values {
		if v == nil {
			c.nulls[i] = true
		}
	}
	c.idx = NewRangeIndex(len(values))
	return c
}

// WithNulls returns a copy of this Column with the given positions nulled,
// upcasting the dtype if it cannot hold nulls natively.
func (c *Column) WithNulls(positions ...int) (*Column, error) {
	out := c.Copy()
	for _, pos := range positions {
		if pos < 0 || pos >= c.Len() {
			return nil, errors.OutOfBoundsError{Pos: pos, Len: c.Len()}
		}
		if err := out.setInPlace(pos, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Len returns the number of values in this Column
func (c *Column) Len() int {
	return len(c.nulls)
}

// DType returns the storage type of this Column
func (c *Column) DType() DType {
	return c.dtype
}

// Index returns the row labels of this Column
func (c *Column) Index() *Index {
	return c.idx
}

// WithIndex returns a copy of this Column bound to the given Index. The
// Index length must match the Column length.
func (c *Column) WithIndex(ix *Index) (*Column, error) {
	if ix.Len() != c.Len() {
		return nil, errors.LengthMismatchError{Op: "with_index", Want: c.Len(), Got: ix.Len()}
	}
	out := *c
	out.idx = ix
	return &out, nil
}

// IsNull reports whether the value at the given position is null. Positions
// outside the Column report false.
func (c *Column) IsNull(pos int) bool {
	return pos >= 0 && pos < len(c.nulls) && c.nulls[pos]
}

// NullCount returns the number of null values in this Column
func (c *Column) NullCount() int {
	count := 0
	for _, isNull := range c.nulls {
		if isNull {
			count++
		}
	}
	return count
}

// Value returns the boxed value at the given position, or nil for a null
func (c *Column) Value(pos int) (interface{}, error) {
	if pos < 0 || pos >= c.Len() {
		return nil, errors.OutOfBoundsError{Pos: pos, Len: c.Len()}
	}
	if c.nulls[pos] {
		return nil, nil
	}
	return c.valueAt(pos), nil
}

// Values returns a copy of all values as boxed Go scalars, nil at nulls
func (c *Column) Values() []interface{} {
	out := make([]interface{}, c.Len())
	for i := range out {
		if !c.nulls[i] {
			out[i] = c.valueAt(i)
		}
	}
	return out
}

func (c *Column) valueAt(pos int) interface{} {
	switch c.dtype {
	case Int64:
		return c.ints[pos]
	case Float64:
		return c.floats[pos]
	case Bool:
		return c.bools[pos]
	case Text:
		return c.texts[pos]
	default:
		return c.objects[pos]
	}
}

func (c *Column) setStorage(pos int, stored interface{}) {
	switch c.dtype {
	case Int64:
		c.ints[pos] = stored.(int64)
	case Float64:
		c.floats[pos] = stored.(float64)
	case Bool:
		c.bools[pos] = stored.(bool)
	case Text:
		c.texts[pos] = stored.(string)
	default:
		c.objects[pos] = stored
	}
}

// Int64At returns the int64 value at the given position. The Column must
// have dtype Int64; check IsNull before trusting zero values elsewhere.
func (c *Column) Int64At(pos int) (int64, error) {
	if err := c.checkAt(pos, Int64); err != nil {
		return 0, err
	}
	return c.ints[pos], nil
}

// Float64At returns the float64 value at the given position. Null positions
// return 0; callers distinguish them with IsNull.
func (c *Column) Float64At(pos int) (float64, error) {
	if err := c.checkAt(pos, Float64); err != nil {
		return 0, err
	}
	return c.floats[pos], nil
}

// BoolAt returns the bool value at the given position.
func (c *Column) BoolAt(pos int) (bool, error) {
	if err := c.checkAt(pos, Bool); err != nil {
		return false, err
	}
	return c.bools[pos], nil
}

// TextAt returns the string value at the given position. Null positions
// return ""; callers distinguish them with IsNull.
func (c *Column) TextAt(pos int) (string, error) {
	if err := c.checkAt(pos, Text); err != nil {
		return "", err
	}
	return c.texts[pos], nil
}

// ObjectAt returns the boxed value at the given position of an Object Column.
func (c *Column) ObjectAt(pos int) (interface{}, error) {
	if err := c.checkAt(pos, Object); err != nil {
		return nil, err
	}
	return c.objects[pos], nil
}

// NumberAt returns the value at the given position widened to float64. The
// Column must be numeric. Null positions return 0; check IsNull.
func (c *Column) NumberAt(pos int) (float64, error) {
	if pos < 0 || pos >= c.Len() {
		return 0, errors.OutOfBoundsError{Pos: pos, Len: c.Len()}
	}
	switch c.dtype {
	case Int64:
		return float64(c.ints[pos]), nil
	case Float64:
		return c.floats[pos], nil
	default:
		return 0, unsupported("number_at", fmt.Sprintf("dtype %s is not numeric", c.dtype))
	}
}

func (c *Column) checkAt(pos int, want DType) error {
	if c.dtype != want {
		return unsupported("typed_access", fmt.Sprintf("column has dtype %s, not %s", c.dtype, want))
	}
	if pos < 0 || pos >= c.Len() {
		return errors.OutOfBoundsError{Pos: pos, Len: c.Len()}
	}
	return nil
}

// Copy returns a deep copy of this Column sharing only the Index
func (c *Column) Copy() *Column {
	out := newColumnOfType(c.dtype, c.Len())
	copy(out.nulls, c.nulls)
	switch c.dtype {
	case Int64:
		copy(out.ints, c.ints)
	case Float64:
		copy(out.floats, c.floats)
	case Bool:
		copy(out.bools, c.bools)
	case Text:
		copy(out.texts, c.texts)
	default:
		copy(out.objects, c.objects)
	}
	out.idx = c.idx
	return out
}

// detach replaces this Column's backing slices with copies, cutting the
// storage sharing WithIndex introduces. In-place fills call it so writes
// never reach sibling Columns bound to other indexes.
func (c *Column) detach() {
	*c = *c.Copy()
}

// Set returns a copy of this Column with the value at the given position
// replaced. Passing nil sets a null and upcasts the dtype if required;
// setting a float into an Int64 column upcasts the column to Float64.
func (c *Column) Set(pos int, v interface{}) (*Column, error) {
	out := c.Copy()
	if err := out.setInPlace(pos, v); err != nil {
		return nil, err
	}
	return out, nil
}

// SetInPlace replaces the value at the given position, mutating the
// receiver. Upcasts triggered by the new value (null into Int64, float into
// Int64, null into Bool) rewrite the receiver's storage. Not safe for
// concurrent use with any other access to this Column.
func (c *Column) SetInPlace(pos int, v interface{}) error {
	return c.setInPlace(pos, v)
}

func (c *Column) setInPlace(pos int, v interface{}) error {
	if pos < 0 || pos >= c.Len() {
		return errors.OutOfBoundsError{Pos: pos, Len: c.Len()}
	}
	if v == nil {
		c.upcastTo(c.dtype.nullable())
		c.nulls[pos] = true
		c.zeroStorage(pos)
		return nil
	}
	if stored, ok := coerce(v, c.dtype); ok {
		c.setStorage(pos, stored)
		c.nulls[pos] = false
		return nil
	}
	promoted, ok := promote(c.dtype, valueDType(v))
	if !ok || promoted == c.dtype {
		return unsupported("set", fmt.Sprintf("value %v (%T) does not fit dtype %s and no promotion applies", v, v, c.dtype))
	}
	c.upcastTo(promoted)
	stored, ok := coerce(v, c.dtype)
	if !ok {
		return unsupported("set", fmt.Sprintf("value %v (%T) does not fit promoted dtype %s", v, v, c.dtype))
	}
	c.setStorage(pos, stored)
	c.nulls[pos] = false
	return nil
}

func (c *Column) zeroStorage(pos int) {
	switch c.dtype {
	case Int64:
		c.ints[pos] = 0
	case Float64:
		c.floats[pos] = 0
	case Bool:
		c.bools[pos] = false
	case Text:
		c.texts[pos] = ""
	default:
		c.objects[pos] = nil
	}
}

// upcastTo rewrites storage for a wider dtype. A no-op when the dtype
// already matches.
func (c *Column) upcastTo(t DType) {
	if c.dtype == t {
		return
	}
	n := c.Len()
	switch {
	case c.dtype == Int64 && t == Float64:
		c.floats = make([]float64, n)
		for i, v := range c.ints {
			c.floats[i] = float64(v)
		}
		c.ints = nil
	case t == Object:
		c.objects = make([]interface{}, n)
		for i := 0; i < n; i++ {
			if !c.nulls[i] {
				c.objects[i] = c.valueAt(i)
			}
		}
		c.ints, c.floats, c.bools, c.texts = nil, nil, nil, nil
	}
	c.dtype = t
}

// IsNullMask returns a Bool Column which is true exactly at null positions.
// Pure: the receiver is never modified.
func (c *Column) IsNullMask() *Column {
	out := newColumnOfType(Bool, c.Len())
	copy(out.bools, c.nulls)
	out.idx = c.idx
	return out
}

// NotNullMask returns a Bool Column which is true exactly at non-null
// positions. Pure: the receiver is never modified.
func (c *Column) NotNullMask() *Column {
	out := newColumnOfType(Bool, c.Len())
	for i, isNull := range c.nulls {
		out.bools[i] = !isNull
	}
	out.idx = c.idx
	return out
}

// Apply returns a new Column holding fn(value) for every non-null position.
// Null entries pass through untouched and fn is never invoked on them. The
// result dtype is inferred from what fn returns; per-position failures are
// collected and reported together.
func (c *Column) Apply(fn func(interface{}) (interface{}, error)) (*Column, error) {
	n := c.Len()
	values := make([]interface{}, n)
	var errs *multierror.Error
	for i := 0; i < n; i++ {
		if c.nulls[i] {
			continue
		}
		v, err := fn(c.valueAt(i))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("apply at position %d: %w", i, err))
			continue
		}
		values[i] = v
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	out, err := NewColumn(inferDType(values), values, nil)
	if err != nil {
		return nil, err
	}
	return out.WithIndex(c.idx)
}

// Unique returns the column's distinct values in first-appearance order, on
// a fresh positional index. A null counts as one distinct value and so does
// NaN, the same identity rules group-by keys follow. Object columns have no
// canonical value identity and are rejected.
func (c *Column) Unique() (*Column, error) {
	table, err := newKeyTable("unique", []*Column{c}, nil)
	if err != nil {
		return nil, err
	}
	_, encs := table.rowKeys(c.Len())
	seen := make(map[string]bool, len(encs))
	positions := make([]int, 0, len(encs))
	for pos, enc := range encs {
		if seen[enc] {
			continue
		}
		seen[enc] = true
		positions = append(positions, pos)
	}
	return c.take(positions, nil), nil
}

// ValueCounts returns how often each distinct value occurs, as an Int64
// Column labeled by the values themselves, most frequent first with ties in
// first-appearance order. Nulls are counted under a nil label.
func (c *Column) ValueCounts() (*Column, error) {
	table, err := newKeyTable("value_counts", []*Column{c}, nil)
	if err != nil {
		return nil, err
	}
	_, encs := table.rowKeys(c.Len())
	byEnc := make(map[string]int, len(encs))
	var labels []interface{}
	var counts []int64
	for pos, enc := range encs {
		i, ok := byEnc[enc]
		if !ok {
			i = len(labels)
			byEnc[enc] = i
			labels = append(labels, table.keyValues(pos)[0])
			counts = append(counts, 0)
		}
		counts[i]++
	}
	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	ordered := make([]interface{}, len(order))
	values := make([]int64, len(order))
	for i, o := range order {
		ordered[i] = labels[o]
		values[i] = counts[o]
	}
	ix, err := NewIndex(ordered)
	if err != nil {
		return nil, err
	}
	return NewInt64Column(values).WithIndex(ix)
}

// take gathers the values at the given positions into a fresh Column bound
// to ix (or a positional index when ix is nil). Negative positions produce
// nulls, upcasting the dtype when it cannot hold them.
func (c *Column) take(positions []int, ix *Index) *Column {
	t := c.dtype
	for _, pos := range positions {
		if pos < 0 {
			t = t.nullable()
			break
		}
	}
	out := newColumnOfType(t, len(positions))
	switch t {
	case Int64:
		out.ints, out.nulls = kernel.Take(c.ints, c.nulls, positions)
	case Float64:
		out.floats, out.nulls = kernel.Take(c.toFloats(), c.nulls, positions)
	case Bool:
		out.bools, out.nulls = kernel.Take(c.bools, c.nulls, positions)
	case Text:
		out.texts, out.nulls = kernel.Take(c.texts, c.nulls, positions)
	default:
		out.objects, out.nulls = kernel.Take(c.boxed(), c.nulls, positions)
	}
	if ix == nil {
		ix = NewRangeIndex(len(positions))
	}
	out.idx = ix
	return out
}

// toFloats widens numeric storage to a float64 view. Only valid on numeric
// columns.
func (c *Column) toFloats() []float64 {
	if c.dtype == Float64 {
		return c.floats
	}
	out := make([]float64, len(c.ints))
	for i, v := range c.ints {
		out[i] = float64(v)
	}
	return out
}

// boxed returns per-position boxed values, typed storage included. Used when
// gathering into Object storage.
func (c *Column) boxed() []interface{} {
	if c.dtype == Object {
		return c.objects
	}
	out := make([]interface{}, c.Len())
	for i := range out {
		if !c.nulls[i] {
			out[i] = c.valueAt(i)
		}
	}
	return out
}

// String renders this Column as a bracketed value list with its dtype
func (c *Column) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Column<%s>[", c.dtype)
	for i := 0; i < c.Len(); i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if c.nulls[i] {
			b.WriteString("null")
		} else {
			fmt.Fprintf(&b, "%v", c.valueAt(i))
		}
	}
	b.WriteString("]")
	return b.String()
}
