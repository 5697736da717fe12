package errors

import (
	"fmt"
)

// LengthMismatchError occurs when a mask or column length does not equal the
// row count of the structure it is applied to
type LengthMismatchError struct {
	Op   string
	Want int
	Got  int
}

// Error returns a textual representation of this LengthMismatchError
func (e LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: length mismatch: want %d rows, got %d", e.Op, e.Want, e.Got)
}

// IndexMismatchError occurs when an operand's Index differs from the
// receiver's Index in an operation which requires alignment
type IndexMismatchError struct {
	Op string
}

// Error returns a textual representation of this IndexMismatchError
func (e IndexMismatchError) Error() string {
	return fmt.Sprintf("%s: operand index does not match receiver index", e.Op)
}

// UnknownColumnError occurs when a column is accessed by a name which is not
// present in the DataFrame
type UnknownColumnError struct {
	Name string
}

// Error returns a textual representation of this UnknownColumnError
func (e UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

// UnsupportedOperationError occurs when an operation is applied to a dtype
// or dtype pair for which no rule is defined
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

// Error returns a textual representation of this UnsupportedOperationError
func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: unsupported operation: %s", e.Op, e.Reason)
}

// DuplicateJoinKeyError occurs when a strict join finds duplicate key tuples
// on a side it requires to be unique
type DuplicateJoinKeyError struct {
	Side string
	Key  string
}

// Error returns a textual representation of this DuplicateJoinKeyError
func (e DuplicateJoinKeyError) Error() string {
	return fmt.Sprintf("duplicate join key %s on %s side of a strict merge", e.Key, e.Side)
}

// OutOfBoundsError occurs when a row position falls outside a Column or
// DataFrame
type OutOfBoundsError struct {
	Pos int
	Len int
}

// Error returns a textual representation of this OutOfBoundsError
func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("position %d out of bounds for length %d", e.Pos, e.Len)
}
