package slate

import (
	"fmt"

	"github.com/go-slate/slate/internal/kernel"
)

// arithOp identifies an element-wise arithmetic operation.
type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
)

func (o arithOp) String() string {
	switch o {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	default:
		return "div"
	}
}

// Add returns the element-wise sum of this Column and the operand, which may
// be another Column of equal length and index or a scalar. Numeric dtypes
// promote (Int64 with Float64 yields Float64); Text with Text concatenates.
// If either input is null at a position, the result is null there.
func (c *Column) Add(operand interface{}) (*Column, error) {
	return c.arith(opAdd, operand)
}

// Sub returns the element-wise difference of this Column and the operand.
func (c *Column) Sub(operand interface{}) (*Column, error) {
	return c.arith(opSub, operand)
}

// Mul returns the element-wise product of this Column and the operand.
func (c *Column) Mul(operand interface{}) (*Column, error) {
	return c.arith(opMul, operand)
}

// Div returns the element-wise quotient of this Column and the operand. The
// result is always Float64; division by zero follows IEEE 754 (Inf, NaN).
func (c *Column) Div(operand interface{}) (*Column, error) {
	return c.arith(opDiv, operand)
}

func (c *Column) arith(op arithOp, operand interface{}) (*Column, error) {
	if operand == nil {
		return nil, unsupported(op.String(), "operand is nil")
	}
	if o, ok := operand.(*Column); ok {
		return c.arithColumn(op, o)
	}
	return c.arithScalar(op, operand)
}

func (c *Column) arithColumn(op arithOp, o *Column) (*Column, error) {
	if c.Len() != o.Len() {
		return nil, lengthMismatch(op.String(), c.Len(), o.Len())
	}
	if !c.idx.Equal(o.idx) {
		return nil, indexMismatch(op.String())
	}
	target, ok := promote(c.dtype, o.dtype)
	if !ok {
		return nil, unsupported(op.String(), fmt.Sprintf("no rule for dtypes %s and %s", c.dtype, o.dtype))
	}
	switch {
	case target == Text:
		if op != opAdd {
			return nil, unsupported(op.String(), "text columns only support add")
		}
		return c.concatTexts(o), nil
	case op == opDiv:
		vals, nulls := kernel.Div(c.toFloats(), o.toFloats(), c.nulls, o.nulls)
		return floatResult(vals, nulls, c.idx), nil
	case target == Int64:
		var vals []int64
		var nulls []bool
		switch op {
		case opAdd:
			vals, nulls = kernel.Add(c.ints, o.ints, c.nulls, o.nulls)
		case opSub:
			vals, nulls = kernel.Sub(c.ints, o.ints, c.nulls, o.nulls)
		default:
			vals, nulls = kernel.Mul(c.ints, o.ints, c.nulls, o.nulls)
		}
		out := newColumnOfType(Int64, len(vals))
		out.ints, out.nulls, out.idx = vals, nulls, c.idx
		return out, nil
	default:
		a, b := c.toFloats(), o.toFloats()
		var vals []float64
		var nulls []bool
		switch op {
		case opAdd:
			vals, nulls = kernel.Add(a, b, c.nulls, o.nulls)
		case opSub:
			vals, nulls = kernel.Sub(a, b, c.nulls, o.nulls)
		default:
			vals, nulls = kernel.Mul(a, b, c.nulls, o.nulls)
		}
		return floatResult(vals, nulls, c.idx), nil
	}
}

func (c *Column) arithScalar(op arithOp, v interface{}) (*Column, error) {
	vt := valueDType(v)
	target, ok := promote(c.dtype, vt)
	if !ok {
		return nil, unsupported(op.String(), fmt.Sprintf("no rule for dtype %s and scalar %T", c.dtype, v))
	}
	switch {
	case target == Text:
		if op != opAdd {
			return nil, unsupported(op.String(), "text columns only support add")
		}
		s := v.(string)
		out := newColumnOfType(Text, c.Len())
		copy(out.nulls, c.nulls)
		for i := range out.texts {
			if !out.nulls[i] {
				out.texts[i] = c.texts[i] + s
			}
		}
		out.idx = c.idx
		return out, nil
	case op == opDiv:
		f, _ := asFloat64(v)
		vals, nulls := kernel.DivScalar(c.toFloats(), f, c.nulls)
		return floatResult(vals, nulls, c.idx), nil
	case target == Int64:
		s, _ := asInt64(v)
		var vals []int64
		var nulls []bool
		switch op {
		case opAdd:
			vals, nulls = kernel.AddScalar(c.ints, s, c.nulls)
		case opSub:
			vals, nulls = kernel.SubScalar(c.ints, s, c.nulls)
		default:
			vals, nulls = kernel.MulScalar(c.ints, s, c.nulls)
		}
		out := newColumnOfType(Int64, len(vals))
		out.ints, out.nulls, out.idx = vals, nulls, c.idx
		return out, nil
	default:
		f, _ := asFloat64(v)
		var vals []float64
		var nulls []bool
		switch op {
		case opAdd:
			vals, nulls = kernel.AddScalar(c.toFloats(), f, c.nulls)
		case opSub:
			vals, nulls = kernel.SubScalar(c.toFloats(), f, c.nulls)
		default:
			vals, nulls = kernel.MulScalar(c.toFloats(), f, c.nulls)
		}
		return floatResult(vals, nulls, c.idx), nil
	}
}

func (c *Column) concatTexts(o *Column) *Column {
	out := newColumnOfType(Text, c.Len())
	for i := range out.texts {
		out.nulls[i] = c.nulls[i] || o.nulls[i]
		if !out.nulls[i] {
			out.texts[i] = c.texts[i] + o.texts[i]
		}
	}
	out.idx = c.idx
	return out
}

func floatResult(vals []float64, nulls []bool, ix *Index) *Column {
	out := newColumnOfType(Float64, len(vals))
	out.floats, out.nulls, out.idx = vals, nulls, ix
	return out
}
