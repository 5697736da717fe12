package slate

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"

	"github.com/go-slate/slate/internal/kernel"
)

// CompareOp identifies an element-wise comparison.
type CompareOp int

const (
	// OpEq tests equality
	OpEq CompareOp = iota
	// OpNeq tests inequality
	OpNeq
	// OpLt tests strictly-less-than
	OpLt
	// OpLte tests less-than-or-equal
	OpLte
	// OpGt tests strictly-greater-than
	OpGt
	// OpGte tests greater-than-or-equal
	OpGte
)

func (o CompareOp) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpNeq:
		return "neq"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpGt:
		return "gt"
	default:
		return "gte"
	}
}

func (o CompareOp) ordered() bool {
	return o != OpEq && o != OpNeq
}

func orderedCmp[T constraints.Ordered](op CompareOp) func(T, T) bool {
	switch op {
	case OpEq:
		return func(a, b T) bool { return a == b }
	case OpNeq:
		return func(a, b T) bool { return a != b }
	case OpLt:
		return func(a, b T) bool { return a < b }
	case OpLte:
		return func(a, b T) bool { return a <= b }
	case OpGt:
		return func(a, b T) bool { return a > b }
	default:
		return func(a, b T) bool { return a >= b }
	}
}

// Compare evaluates this Column against the operand element-wise and returns
// a Bool mask. The operand may be a Column of equal length and index, a
// scalar, or nil. A comparison involving a null on either side is false, so
// the mask itself never contains nulls; comparing against a nil operand
// yields an all-false mask. Ordering comparisons require numeric or Text
// operands; Bool and Object support only equality.
func (c *Column) Compare(op CompareOp, operand interface{}) (*Column, error) {
	if operand == nil {
		return boolResult(make([]bool, c.Len()), c.idx), nil
	}
	if o, ok := operand.(*Column); ok {
		return c.compareColumn(op, o)
	}
	return c.compareScalar(op, operand)
}

// Eq returns a Bool mask marking positions equal to the operand.
func (c *Column) Eq(operand interface{}) (*Column, error) { return c.Compare(OpEq, operand) }

// Neq returns a Bool mask marking positions not equal to the operand. Null
// positions are false here too: a null is neither equal nor unequal.
func (c *Column) Neq(operand interface{}) (*Column, error) { return c.Compare(OpNeq, operand) }

// Lt returns a Bool mask marking positions strictly less than the operand.
func (c *Column) Lt(operand interface{}) (*Column, error) { return c.Compare(OpLt, operand) }

// Lte returns a Bool mask marking positions less than or equal to the operand.
func (c *Column) Lte(operand interface{}) (*Column, error) { return c.Compare(OpLte, operand) }

// Gt returns a Bool mask marking positions strictly greater than the operand.
func (c *Column) Gt(operand interface{}) (*Column, error) { return c.Compare(OpGt, operand) }

// Gte returns a Bool mask marking positions greater than or equal to the operand.
func (c *Column) Gte(operand interface{}) (*Column, error) { return c.Compare(OpGte, operand) }

func (c *Column) compareColumn(op CompareOp, o *Column) (*Column, error) {
	if c.Len() != o.Len() {
		return nil, lengthMismatch(op.String(), c.Len(), o.Len())
	}
	if !c.idx.Equal(o.idx) {
		return nil, indexMismatch(op.String())
	}
	switch {
	case c.dtype.IsNumeric() && o.dtype.IsNumeric():
		if c.dtype == Int64 && o.dtype == Int64 {
			return boolResult(kernel.Compare(c.ints, o.ints, c.nulls, o.nulls, orderedCmp[int64](op)), c.idx), nil
		}
		return boolResult(kernel.Compare(c.toFloats(), o.toFloats(), c.nulls, o.nulls, orderedCmp[float64](op)), c.idx), nil
	case c.dtype == Text && o.dtype == Text:
		return boolResult(kernel.Compare(c.texts, o.texts, c.nulls, o.nulls, orderedCmp[string](op)), c.idx), nil
	case c.dtype == Bool && o.dtype == Bool:
		if op.ordered() {
			return nil, unsupported(op.String(), "bool columns have no ordering")
		}
		eq := op == OpEq
		return boolResult(kernel.Compare(c.bools, o.bools, c.nulls, o.nulls, func(a, b bool) bool {
			return (a == b) == eq
		}), c.idx), nil
	case c.dtype == Object && o.dtype == Object:
		if op.ordered() {
			return nil, unsupported(op.String(), "object columns have no ordering")
		}
		eq := op == OpEq
		return boolResult(kernel.Compare(c.objects, o.objects, c.nulls, o.nulls, func(a, b interface{}) bool {
			return reflect.DeepEqual(a, b) == eq
		}), c.idx), nil
	default:
		return nil, unsupported(op.String(), fmt.Sprintf("no rule for dtypes %s and %s", c.dtype, o.dtype))
	}
}

func (c *Column) compareScalar(op CompareOp, v interface{}) (*Column, error) {
	vt := valueDType(v)
	switch {
	case c.dtype.IsNumeric() && vt.IsNumeric():
		if c.dtype == Int64 && vt == Int64 {
			s, _ := asInt64(v)
			return boolResult(kernel.CompareScalar(c.ints, s, c.nulls, orderedCmp[int64](op)), c.idx), nil
		}
		f, _ := asFloat64(v)
		return boolResult(kernel.CompareScalar(c.toFloats(), f, c.nulls, orderedCmp[float64](op)), c.idx), nil
	case c.dtype == Text && vt == Text:
		return boolResult(kernel.CompareScalar(c.texts, v.(string), c.nulls, orderedCmp[string](op)), c.idx), nil
	case c.dtype == Bool && vt == Bool:
		if op.ordered() {
			return nil, unsupported(op.String(), "bool columns have no ordering")
		}
		eq := op == OpEq
		b := v.(bool)
		return boolResult(kernel.CompareScalar(c.bools, b, c.nulls, func(a, s bool) bool {
			return (a == s) == eq
		}), c.idx), nil
	case c.dtype == Object:
		if op.ordered() {
			return nil, unsupported(op.String(), "object columns have no ordering")
		}
		eq := op == OpEq
		return boolResult(kernel.CompareScalar(c.objects, v, c.nulls, func(a, s interface{}) bool {
			return reflect.DeepEqual(a, s) == eq
		}), c.idx), nil
	default:
		return nil, unsupported(op.String(), fmt.Sprintf("no rule for dtype %s and scalar %T", c.dtype, v))
	}
}

// maskBits validates a Column as a filter mask and returns its truth values.
// Bool columns qualify directly. Object columns qualify when every non-null
// value is a bool; their nulls count as false, which keeps filtering and the
// And/Or/Not combinators two-valued.
func (c *Column) maskBits(op string) ([]bool, error) {
	switch c.dtype {
	case Bool:
		return c.bools, nil
	case Object:
		bits := make([]bool, c.Len())
		for i, v := range c.objects {
			if c.nulls[i] {
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return nil, unsupported(op, fmt.Sprintf("mask value %v (%T) at position %d is not a bool", v, v, i))
			}
			bits[i] = b
		}
		return bits, nil
	default:
		return nil, unsupported(op, fmt.Sprintf("mask must be a boolean column, got %s", c.dtype))
	}
}

// And returns the element-wise conjunction of two masks. Null mask entries
// act as false.
func (c *Column) And(o *Column) (*Column, error) {
	return c.combine("and", o, func(a, b bool) bool { return a && b })
}

// Or returns the element-wise disjunction of two masks. Null mask entries
// act as false.
func (c *Column) Or(o *Column) (*Column, error) {
	return c.combine("or", o, func(a, b bool) bool { return a || b })
}

func (c *Column) combine(op string, o *Column, fn func(a, b bool) bool) (*Column, error) {
	if c.Len() != o.Len() {
		return nil, lengthMismatch(op, c.Len(), o.Len())
	}
	if !c.idx.Equal(o.idx) {
		return nil, indexMismatch(op)
	}
	a, err := c.maskBits(op)
	if err != nil {
		return nil, err
	}
	b, err := o.maskBits(op)
	if err != nil {
		return nil, err
	}
	bits := make([]bool, len(a))
	for i := range bits {
		bits[i] = fn(a[i], b[i])
	}
	return boolResult(bits, c.idx), nil
}

// Not returns the element-wise negation of a mask. A null mask entry acts as
// false, so its negation is true; filtering by a mask and by its negation
// therefore partitions every row of a frame into exactly one side.
func (c *Column) Not() (*Column, error) {
	a, err := c.maskBits("not")
	if err != nil {
		return nil, err
	}
	bits := make([]bool, len(a))
	for i := range bits {
		bits[i] = !a[i]
	}
	return boolResult(bits, c.idx), nil
}

func boolResult(bits []bool, ix *Index) *Column {
	out := &Column{dtype: Bool, bools: bits, nulls: make([]bool, len(bits)), idx: ix}
	return out
}
