package slate

import (
	"math"

	errors "github.com/go-slate/slate/errors"
)

// DType identifies the storage type of a Column. The set is closed: Object
// is the documented escape hatch for heterogeneous boxed values and trades
// away the type guarantees the other dtypes carry.
type DType int

const (
	// Int64 stores 64-bit signed integers. Int64 columns cannot hold nulls;
	// introducing one upcasts the column to Float64.
	Int64 DType = iota
	// Float64 stores 64-bit floats and supports nulls natively.
	Float64
	// Bool stores booleans. Bool columns cannot hold nulls; introducing one
	// upcasts the column to Object.
	Bool
	// Text stores strings and supports nulls natively.
	Text
	// Object stores arbitrary boxed values and supports nulls natively.
	Object
)

// String returns the name of this DType
func (t DType) String() string {
	switch t {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Text:
		return "text"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether this DType participates in arithmetic promotion
func (t DType) IsNumeric() bool {
	return t == Int64 || t == Float64
}

// nullable returns the dtype a column of dtype t assumes the moment a null
// is introduced into it. Float64, Text and Object hold nulls natively.
func (t DType) nullable() DType {
	switch t {
	case Int64:
		return Float64
	case Bool:
		return Object
	default:
		return t
	}
}

// promote resolves the result dtype of combining a and b in an arithmetic
// context. The table is total: every pair resolves to exactly one outcome
// or to no rule at all.
func promote(a, b DType) (DType, bool) {
	switch {
	case a == Int64 && b == Int64:
		return Int64, true
	case a.IsNumeric() && b.IsNumeric():
		return Float64, true
	case a == Text && b == Text:
		return Text, true
	default:
		return 0, false
	}
}

// valueDType classifies a Go scalar into the dtype that stores it. Returns
// Object for anything outside the closed set.
func valueDType(v interface{}) DType {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int64
	case float32, float64:
		return Float64
	case bool:
		return Bool
	case string:
		return Text
	default:
		return Object
	}
}

// asInt64 widens any Go integer scalar to int64. Unsigned values above
// MaxInt64 do not fit and are rejected rather than wrapped.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// asFloat64 widens any Go numeric scalar to float64. Unsigned values keep
// their magnitude, including ones too large for int64.
func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		i, ok := asInt64(v)
		return float64(i), ok
	}
}

// coerce converts a non-nil scalar to dtype t's storage representation.
func coerce(v interface{}, t DType) (interface{}, bool) {
	switch t {
	case Int64:
		i, ok := asInt64(v)
		return i, ok
	case Float64:
		f, ok := asFloat64(v)
		return f, ok
	case Bool:
		b, ok := v.(bool)
		return b, ok
	case Text:
		s, ok := v.(string)
		return s, ok
	case Object:
		return v, true
	default:
		return nil, false
	}
}

// inferDType picks the narrowest dtype able to store every non-nil value,
// widening Int64 to Float64 on mixed numerics and falling back to Object.
func inferDType(values []interface{}) DType {
	seen := false
	result := Int64
	for _, v := range values {
		if v == nil {
			continue
		}
		t := valueDType(v)
		if !seen {
			result = t
			seen = true
			continue
		}
		if t == result {
			continue
		}
		if p, ok := promote(result, t); ok && p != Text {
			result = p
			continue
		}
		return Object
	}
	if !seen {
		return Object
	}
	return result
}

func unsupported(op, reason string) error {
	return errors.UnsupportedOperationError{Op: op, Reason: reason}
}

func lengthMismatch(op string, want, got int) error {
	return errors.LengthMismatchError{Op: op, Want: want, Got: got}
}

func indexMismatch(op string) error {
	return errors.IndexMismatchError{Op: op}
}
