// Package kernel provides the typed slice loops shared by column operations.
// Every function treats a nil null slice as all-valid input.
package kernel

import "golang.org/x/exp/constraints"

// Number constrains the element types arithmetic kernels operate on.
type Number interface {
	constraints.Integer | constraints.Float
}

func isNull(nulls []bool, i int) bool {
	return nulls != nil && nulls[i]
}

// Add computes a[i]+b[i] element-wise, propagating nulls from either side.
func Add[T Number](a, b []T, anulls, bnulls []bool) ([]T, []bool) {
	return binary(a, b, anulls, bnulls, func(x, y T) T { return x + y })
}

// Sub computes a[i]-b[i] element-wise, propagating nulls from either side.
func Sub[T Number](a, b []T, anulls, bnulls []bool) ([]T, []bool) {
	return binary(a, b, anulls, bnulls, func(x, y T) T { return x - y })
}

// Mul computes a[i]*b[i] element-wise, propagating nulls from either side.
func Mul[T Number](a, b []T, anulls, bnulls []bool) ([]T, []bool) {
	return binary(a, b, anulls, bnulls, func(x, y T) T { return x * y })
}

// Div computes a[i]/b[i] element-wise as float64, propagating nulls from
// either side. Division by zero follows float64 semantics.
func Div[T Number](a, b []T, anulls, bnulls []bool) ([]float64, []bool) {
	out := make([]float64, len(a))
	nulls := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) || isNull(bnulls, i) {
			nulls[i] = true
			continue
		}
		out[i] = float64(a[i]) / float64(b[i])
	}
	return out, nulls
}

func binary[T Number](a, b []T, anulls, bnulls []bool, fn func(T, T) T) ([]T, []bool) {
	out := make([]T, len(a))
	nulls := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) || isNull(bnulls, i) {
			nulls[i] = true
			continue
		}
		out[i] = fn(a[i], b[i])
	}
	return out, nulls
}

// AddScalar computes a[i]+x element-wise, propagating nulls.
func AddScalar[T Number](a []T, x T, anulls []bool) ([]T, []bool) {
	return scalar(a, x, anulls, func(v, y T) T { return v + y })
}

// SubScalar computes a[i]-x element-wise, propagating nulls.
func SubScalar[T Number](a []T, x T, anulls []bool) ([]T, []bool) {
	return scalar(a, x, anulls, func(v, y T) T { return v - y })
}

// MulScalar computes a[i]*x element-wise, propagating nulls.
func MulScalar[T Number](a []T, x T, anulls []bool) ([]T, []bool) {
	return scalar(a, x, anulls, func(v, y T) T { return v * y })
}

// DivScalar computes a[i]/x element-wise as float64, propagating nulls.
func DivScalar[T Number](a []T, x T, anulls []bool) ([]float64, []bool) {
	out := make([]float64, len(a))
	nulls := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) {
			nulls[i] = true
			continue
		}
		out[i] = float64(a[i]) / float64(x)
	}
	return out, nulls
}

func scalar[T Number](a []T, x T, anulls []bool, fn func(T, T) T) ([]T, []bool) {
	out := make([]T, len(a))
	nulls := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) {
			nulls[i] = true
			continue
		}
		out[i] = fn(a[i], x)
	}
	return out, nulls
}

// Compare evaluates cmp(a[i], b[i]) element-wise. Positions where either
// operand is null compare false.
func Compare[T any](a, b []T, anulls, bnulls []bool, cmp func(T, T) bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) || isNull(bnulls, i) {
			continue
		}
		out[i] = cmp(a[i], b[i])
	}
	return out
}

// CompareScalar evaluates cmp(a[i], x) element-wise. Null positions compare
// false.
func CompareScalar[T any](a []T, x T, anulls []bool, cmp func(T, T) bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		if isNull(anulls, i) {
			continue
		}
		out[i] = cmp(a[i], x)
	}
	return out
}

// Take gathers vals at the given positions into a fresh slice. A negative
// position yields the zero value marked null.
func Take[T any](vals []T, nulls []bool, positions []int) ([]T, []bool) {
	out := make([]T, len(positions))
	outNulls := make([]bool, len(positions))
	for i, pos := range positions {
		if pos < 0 {
			outNulls[i] = true
			continue
		}
		out[i] = vals[pos]
		outNulls[i] = isNull(nulls, pos)
	}
	return out, outNulls
}

// FillForward copies vals and resolves nulls with the last preceding valid
// value. limit > 0 caps the number of consecutive fills taken from any one
// valid value; limit <= 0 means unlimited. Leading nulls stay null.
func FillForward[T any](vals []T, nulls []bool, limit int) ([]T, []bool) {
	out := make([]T, len(vals))
	copy(out, vals)
	outNulls := make([]bool, len(nulls))
	copy(outNulls, nulls)
	haveValid := false
	var last T
	run := 0
	for i := range out {
		if !outNulls[i] {
			haveValid = true
			last = out[i]
			run = 0
			continue
		}
		run++
		if !haveValid || (limit > 0 && run > limit) {
			continue
		}
		out[i] = last
		outNulls[i] = false
	}
	return out, outNulls
}

// FillBackward mirrors FillForward, resolving nulls with the next following
// valid value. Trailing nulls stay null.
func FillBackward[T any](vals []T, nulls []bool, limit int) ([]T, []bool) {
	out := make([]T, len(vals))
	copy(out, vals)
	outNulls := make([]bool, len(nulls))
	copy(outNulls, nulls)
	haveValid := false
	var next T
	run := 0
	for i := len(out) - 1; i >= 0; i-- {
		if !outNulls[i] {
			haveValid = true
			next = out[i]
			run = 0
			continue
		}
		run++
		if !haveValid || (limit > 0 && run > limit) {
			continue
		}
		out[i] = next
		outNulls[i] = false
	}
	return out, outNulls
}
