package slate

import (
	"fmt"
	"log"
	"reflect"
	"strings"

	uuid "github.com/gofrs/uuid"

	errors "github.com/go-slate/slate/errors"
)

// GroupKey is the composite row label produced when grouping by more than
// one column. Values appear in key-column order.
type GroupKey struct {
	vals []interface{}
	enc  string
}

// Values returns the key-column values of this GroupKey, in key order
func (k GroupKey) Values() []interface{} {
	out := make([]interface{}, len(k.vals))
	copy(out, k.vals)
	return out
}

// String renders this GroupKey as a parenthesized tuple
func (k GroupKey) String() string {
	parts := make([]string, len(k.vals))
	for i, v := range k.vals {
		if v == nil {
			parts[i] = "null"
		} else {
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// encKey distinguishes composite-label map keys from plain string labels.
type encKey string

// labelKey converts a label into the value used to key the lookup map.
// Plain labels key by their own value; GroupKeys key by their canonical
// encoding, since slices are not hashable.
func labelKey(label interface{}) interface{} {
	if k, ok := label.(GroupKey); ok {
		return encKey(k.enc)
	}
	return label
}

// An Index is the ordered sequence of row labels shared by every column of a
// DataFrame. Labels need not be unique. An Index is immutable once built:
// structural row edits always produce a new Index, and lookups never mutate
// the receiver. Each instance carries a unique id so that shared-instance
// equality checks stay O(1).
type Index struct {
	id     string
	labels []interface{}
	lookup map[interface{}][]int
}

func newIndexID() string {
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID for Index: %v", err)
	}
	return id.String()
}

// NewIndex builds an Index from the given labels. Labels may repeat but must
// be hashable Go values (or GroupKeys).
func NewIndex(labels []interface{}) (*Index, error) {
	owned := make([]interface{}, len(labels))
	copy(owned, labels)
	lookup := make(map[interface{}][]int, len(owned))
	for pos, label := range owned {
		key := labelKey(label)
		if key != nil && !reflect.TypeOf(key).Comparable() {
			return nil, errors.UnsupportedOperationError{
				Op:     "index",
				Reason: fmt.Sprintf("label of type %T at position %d is not hashable", label, pos),
			}
		}
		lookup[key] = append(lookup[key], pos)
	}
	return &Index{id: newIndexID(), labels: owned, lookup: lookup}, nil
}

// NewRangeIndex builds the default positional Index 0..n-1.
func NewRangeIndex(n int) *Index {
	labels := make([]interface{}, n)
	lookup := make(map[interface{}][]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i
		lookup[i] = []int{i}
	}
	return &Index{id: newIndexID(), labels: labels, lookup: lookup}
}

// mustIndex wraps NewIndex for internal callers whose labels are already
// known to be hashable (gathered from an existing Index).
func mustIndex(labels []interface{}) *Index {
	ix, err := NewIndex(labels)
	if err != nil {
		log.Fatalf("internal label set rejected: %v", err)
	}
	return ix
}

// Len returns the number of labels in this Index
func (ix *Index) Len() int {
	return len(ix.labels)
}

// Label returns the label at the given position
func (ix *Index) Label(pos int) (interface{}, error) {
	if pos < 0 || pos >= len(ix.labels) {
		return nil, errors.OutOfBoundsError{Pos: pos, Len: len(ix.labels)}
	}
	return ix.labels[pos], nil
}

// Labels returns a copy of all labels in order
func (ix *Index) Labels() []interface{} {
	out := make([]interface{}, len(ix.labels))
	copy(out, ix.labels)
	return out
}

// Lookup returns every position holding the given label, in original row
// order. The result is a copy; missing labels yield an empty slice.
func (ix *Index) Lookup(label interface{}) []int {
	positions := ix.lookup[labelKey(label)]
	out := make([]int, len(positions))
	copy(out, positions)
	return out
}

// Has reports whether the given label occurs in this Index
func (ix *Index) Has(label interface{}) bool {
	return len(ix.lookup[labelKey(label)]) > 0
}

// Equal reports whether two Indexes carry the same labels in the same order.
// The shared-instance case short-circuits on id.
func (ix *Index) Equal(other *Index) bool {
	if other == nil {
		return false
	}
	if ix.id == other.id {
		return true
	}
	if len(ix.labels) != len(other.labels) {
		return false
	}
	for i, label := range ix.labels {
		if labelKey(label) != labelKey(other.labels[i]) {
			return false
		}
	}
	return true
}

// take gathers labels at the given positions into a fresh Index. Negative
// positions are not permitted here; join padding substitutes labels before
// building output indexes.
func (ix *Index) take(positions []int) *Index {
	labels := make([]interface{}, len(positions))
	for i, pos := range positions {
		labels[i] = ix.labels[pos]
	}
	return mustIndex(labels)
}

// labelPair records one aligned row pairing; -1 marks a missing side.
type labelPair struct {
	left  int
	right int
}

// alignPairs pairs the rows of two Indexes by label under the given join
// mode. Duplicate labels pair with every match (cartesian expansion), in
// original order on both sides.
func (ix *Index) alignPairs(other *Index, how JoinType) ([]labelPair, error) {
	var pairs []labelPair
	matched := make([]bool, other.Len())
	emitLeft := func() {
		for pos, label := range ix.labels {
			targets := other.lookup[labelKey(label)]
			if len(targets) == 0 {
				if how != InnerJoin {
					pairs = append(pairs, labelPair{left: pos, right: -1})
				}
				continue
			}
			for _, t := range targets {
				matched[t] = true
				pairs = append(pairs, labelPair{left: pos, right: t})
			}
		}
	}
	switch how {
	case InnerJoin, LeftJoin:
		emitLeft()
	case OuterJoin:
		emitLeft()
		for pos := range other.labels {
			if !matched[pos] {
				pairs = append(pairs, labelPair{left: -1, right: pos})
			}
		}
	case RightJoin:
		for pos, label := range other.labels {
			sources := ix.lookup[labelKey(label)]
			if len(sources) == 0 {
				pairs = append(pairs, labelPair{left: -1, right: pos})
				continue
			}
			for _, s := range sources {
				pairs = append(pairs, labelPair{left: s, right: pos})
			}
		}
	default:
		return nil, unsupported("align", fmt.Sprintf("unknown join type %d", how))
	}
	return pairs, nil
}

// Align produces the Index resulting from aligning this Index with another
// under the given join mode: matching labels pair up (duplicates expand), and
// non-matching labels survive according to the mode.
func (ix *Index) Align(other *Index, how JoinType) (*Index, error) {
	pairs, err := ix.alignPairs(other, how)
	if err != nil {
		return nil, err
	}
	labels := make([]interface{}, len(pairs))
	for i, p := range pairs {
		if p.left >= 0 {
			labels[i] = ix.labels[p.left]
		} else {
			labels[i] = other.labels[p.right]
		}
	}
	return NewIndex(labels)
}
