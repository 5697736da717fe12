package slate

import (
	"encoding/binary"
	"fmt"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
)

// Key cells encode as a tag byte plus a fixed binary form, so distinct
// values of distinct dtypes can never collide byte-wise. Hash collisions are
// resolved by comparing the encodings themselves.
const (
	keyTagNull  byte = 0xFF
	keyTagInt   byte = 0x01
	keyTagFloat byte = 0x02
	keyTagBool  byte = 0x03
	keyTagText  byte = 0x04
)

// A keyTable produces the hashable encoding of a row's key tuple across one
// or more key columns. An Int64 key column paired with a Float64 one on the
// other side of a join encodes as float, so 1 and 1.0 produce the same key.
type keyTable struct {
	cols    []*Column
	asFloat []bool
}

// newKeyTable validates key columns and pairs their encodings with the
// matching columns of the other side, when one exists. Object columns have
// no canonical encoding and cannot be keys; numeric columns of different
// dtypes reconcile through float, any other dtype mismatch is an error.
func newKeyTable(op string, cols []*Column, others []*Column) (*keyTable, error) {
	t := &keyTable{cols: cols, asFloat: make([]bool, len(cols))}
	for i, c := range cols {
		if c.dtype == Object {
			return nil, unsupported(op, "object columns have no canonical key encoding")
		}
		if others == nil {
			continue
		}
		o := others[i]
		if o.dtype == Object {
			return nil, unsupported(op, "object columns have no canonical key encoding")
		}
		if c.dtype == o.dtype {
			continue
		}
		if c.dtype.IsNumeric() && o.dtype.IsNumeric() {
			t.asFloat[i] = true
			continue
		}
		return nil, unsupported(op, fmt.Sprintf("key dtypes %s and %s are incompatible", c.dtype, o.dtype))
	}
	return t, nil
}

// encode appends the tagged key encoding of one row to buf. A null cell
// encodes as the null tag alone, so nulls form a valid key distinct from
// every value and equal to other nulls.
func (t *keyTable) encode(buf []byte, pos int) []byte {
	for i, c := range t.cols {
		if c.nulls[pos] {
			buf = append(buf, keyTagNull)
			continue
		}
		switch c.dtype {
		case Int64:
			if t.asFloat[i] {
				buf = appendKeyFloat(buf, float64(c.ints[pos]))
			} else {
				buf = append(buf, keyTagInt)
				buf = binary.BigEndian.AppendUint64(buf, uint64(c.ints[pos]))
			}
		case Float64:
			buf = appendKeyFloat(buf, c.floats[pos])
		case Bool:
			b := byte(0)
			if c.bools[pos] {
				b = 1
			}
			buf = append(buf, keyTagBool, b)
		default: // Text
			buf = append(buf, keyTagText)
			buf = binary.AppendUvarint(buf, uint64(len(c.texts[pos])))
			buf = append(buf, c.texts[pos]...)
		}
	}
	return buf
}

// appendKeyFloat writes a float key cell. Negative zero normalizes to zero
// so the two equal values share one encoding; NaN keeps its bits and so
// matches other NaNs, the same identity treatment nulls get.
func appendKeyFloat(buf []byte, v float64) []byte {
	if v == 0 {
		v = 0
	}
	buf = append(buf, keyTagFloat)
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
}

// rowKeys encodes and hashes every row's key tuple in one pass, reusing a
// single buffer. Returned encodings are the collision-proof identities;
// hashes bucket them.
func (t *keyTable) rowKeys(rows int) (hashes []uint64, encs []string) {
	hashes = make([]uint64, rows)
	encs = make([]string, rows)
	buf := make([]byte, 0, 64)
	for pos := 0; pos < rows; pos++ {
		buf = t.encode(buf[:0], pos)
		hashes[pos] = xxhash.Sum64(buf)
		encs[pos] = string(buf)
	}
	return hashes, encs
}

// keyValues returns the boxed key tuple of one row, in key-column order,
// widening to float where the table reconciles numeric dtypes. Used to
// render keys in errors and to build group labels.
func (t *keyTable) keyValues(pos int) []interface{} {
	out := make([]interface{}, len(t.cols))
	for i, c := range t.cols {
		if c.nulls[pos] {
			continue
		}
		if t.asFloat[i] && c.dtype == Int64 {
			out[i] = float64(c.ints[pos])
		} else {
			out[i] = c.valueAt(pos)
		}
	}
	return out
}

// renderKey formats a key tuple for error messages.
func renderKey(values []interface{}) string {
	if len(values) == 1 {
		if values[0] == nil {
			return "null"
		}
		return fmt.Sprintf("%v", values[0])
	}
	return GroupKey{vals: values}.String()
}
