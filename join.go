package slate

import (
	"fmt"
	"time"

	errors "github.com/go-slate/slate/errors"
)

// JoinType selects which side's unmatched rows survive a merge.
type JoinType int

const (
	// InnerJoin keeps only rows whose key matches on both sides
	InnerJoin JoinType = iota
	// LeftJoin keeps every left row, padding missing right values with nulls
	LeftJoin
	// RightJoin keeps every right row, padding missing left values with nulls
	RightJoin
	// OuterJoin keeps every row of both sides
	OuterJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	default:
		return "outer"
	}
}

// JoinOptions configures Merge. The zero value is an inner join on the
// columns named in On with pandas-style collision suffixes.
type JoinOptions struct {
	// On names the key columns, which must exist in both frames. Ignored
	// when OnIndex is set.
	On []string
	// How selects the join mode. Defaults to InnerJoin.
	How JoinType
	// Strict rejects the merge when either side holds duplicate key tuples,
	// instead of expanding them cartesian-style.
	Strict bool
	// OnIndex joins rows by index label instead of key columns.
	OnIndex bool
	// LeftSuffix and RightSuffix disambiguate column names present on both
	// sides. They default to "_left" and "_right".
	LeftSuffix  string
	RightSuffix string
}

// Merge joins two DataFrames by key columns (or by index label), hashing the
// right side and probing it with the left. Matching is by key-tuple
// equality: a null key cell equals another null and nothing else, and an
// Int64 key reconciles with a Float64 key through float equality. Rows with
// duplicate keys pair with every match, so the output row count can exceed
// both inputs; result rows follow probe-side order with matches in build-side
// order. Key columns appear once in the output; other column names colliding
// across the sides get the configured suffixes. Column joins produce a fresh
// positional index, index joins keep the matched labels.
func Merge(left, right *DataFrame, opts JoinOptions) (*DataFrame, error) {
	start := time.Now()
	if opts.LeftSuffix == "" {
		opts.LeftSuffix = "_left"
	}
	if opts.RightSuffix == "" {
		opts.RightSuffix = "_right"
	}
	var out *DataFrame
	var err error
	if opts.OnIndex {
		out, err = mergeOnIndex(left, right, opts)
	} else {
		out, err = mergeOnColumns(left, right, opts)
	}
	if err != nil {
		return nil, err
	}
	observe(EventMerge, left.NumRows()+right.NumRows(), out.NumRows(), start)
	return out, nil
}

func mergeOnColumns(left, right *DataFrame, opts JoinOptions) (*DataFrame, error) {
	if len(opts.On) == 0 {
		return nil, unsupported("merge", "at least one key column is required unless joining on the index")
	}
	leftKeys := make([]*Column, len(opts.On))
	rightKeys := make([]*Column, len(opts.On))
	for i, name := range opts.On {
		var err error
		if leftKeys[i], err = left.Column(name); err != nil {
			return nil, err
		}
		if rightKeys[i], err = right.Column(name); err != nil {
			return nil, err
		}
	}
	lt, err := newKeyTable("merge", leftKeys, rightKeys)
	if err != nil {
		return nil, err
	}
	rt, err := newKeyTable("merge", rightKeys, leftKeys)
	if err != nil {
		return nil, err
	}
	lHashes, lEncs := lt.rowKeys(left.NumRows())
	rHashes, rEncs := rt.rowKeys(right.NumRows())
	if opts.Strict {
		if pos, dup := firstDuplicate(lEncs); dup {
			return nil, errors.DuplicateJoinKeyError{Side: "left", Key: renderKey(lt.keyValues(pos))}
		}
		if pos, dup := firstDuplicate(rEncs); dup {
			return nil, errors.DuplicateJoinKeyError{Side: "right", Key: renderKey(rt.keyValues(pos))}
		}
	}
	lpos, rpos := pairRows(opts.How, lHashes, lEncs, rHashes, rEncs)

	ix := NewRangeIndex(len(lpos))
	named := make([]NamedColumn, 0, left.NumColumns()+right.NumColumns())
	onSet := make(map[string]bool, len(opts.On))
	for i, name := range opts.On {
		onSet[name] = true
		col, err := mergedKeyColumn(leftKeys[i], rightKeys[i], lpos, rpos, ix)
		if err != nil {
			return nil, err
		}
		named = append(named, Col(name, col))
	}
	named, err = appendSideColumns(named, left, right, onSet, lpos, rpos, ix, opts)
	if err != nil {
		return nil, err
	}
	return NewDataFrame(ix, named...)
}

func mergeOnIndex(left, right *DataFrame, opts JoinOptions) (*DataFrame, error) {
	if opts.Strict {
		for _, side := range []struct {
			name string
			ix   *Index
		}{{"left", left.idx}, {"right", right.idx}} {
			for _, label := range side.ix.labels {
				if len(side.ix.lookup[labelKey(label)]) > 1 {
					return nil, errors.DuplicateJoinKeyError{Side: side.name, Key: fmt.Sprintf("%v", label)}
				}
			}
		}
	}
	pairs, err := left.idx.alignPairs(right.idx, opts.How)
	if err != nil {
		return nil, err
	}
	lpos := make([]int, len(pairs))
	rpos := make([]int, len(pairs))
	labels := make([]interface{}, len(pairs))
	for i, p := range pairs {
		lpos[i], rpos[i] = p.left, p.right
		if p.left >= 0 {
			labels[i] = left.idx.labels[p.left]
		} else {
			labels[i] = right.idx.labels[p.right]
		}
	}
	ix := mustIndex(labels)
	named, err := appendSideColumns(nil, left, right, nil, lpos, rpos, ix, opts)
	if err != nil {
		return nil, err
	}
	return NewDataFrame(ix, named...)
}

// appendSideColumns gathers the non-key columns of both frames at the paired
// positions, suffixing names that occur on both sides.
func appendSideColumns(named []NamedColumn, left, right *DataFrame, onSet map[string]bool, lpos, rpos []int, ix *Index, opts JoinOptions) ([]NamedColumn, error) {
	collides := make(map[string]bool)
	for _, name := range left.names {
		if !onSet[name] && right.HasColumn(name) {
			collides[name] = true
		}
	}
	used := make(map[string]bool, len(named))
	for _, nc := range named {
		used[nc.Name] = true
	}
	add := func(name string, col *Column) error {
		if used[name] {
			return unsupported("merge", fmt.Sprintf("output column %q collides after suffixing", name))
		}
		used[name] = true
		named = append(named, Col(name, col))
		return nil
	}
	for _, name := range left.names {
		if onSet[name] {
			continue
		}
		outName := name
		if collides[name] {
			outName = name + opts.LeftSuffix
		}
		if err := add(outName, left.cols[name].take(lpos, ix)); err != nil {
			return nil, err
		}
	}
	for _, name := range right.names {
		if onSet[name] {
			continue
		}
		outName := name
		if collides[name] {
			outName = name + opts.RightSuffix
		}
		if err := add(outName, right.cols[name].take(rpos, ix)); err != nil {
			return nil, err
		}
	}
	return named, nil
}

// pairRows matches probe rows to build rows by hash bucket, verifying each
// candidate against the stored encoding. Inner, left and outer joins probe
// with the left side; right joins probe with the right so output rows follow
// right-side order.
func pairRows(how JoinType, lHashes []uint64, lEncs []string, rHashes []uint64, rEncs []string) (lpos, rpos []int) {
	if how == RightJoin {
		rp, lp := pairRows(LeftJoin, rHashes, rEncs, lHashes, lEncs)
		return lp, rp
	}
	buckets := make(map[uint64][]int, len(rHashes))
	for pos, h := range rHashes {
		buckets[h] = append(buckets[h], pos)
	}
	var matched []bool
	if how == OuterJoin {
		matched = make([]bool, len(rHashes))
	}
	for i, h := range lHashes {
		found := false
		for _, r := range buckets[h] {
			if rEncs[r] != lEncs[i] {
				continue
			}
			found = true
			if matched != nil {
				matched[r] = true
			}
			lpos = append(lpos, i)
			rpos = append(rpos, r)
		}
		if !found && how != InnerJoin {
			lpos = append(lpos, i)
			rpos = append(rpos, -1)
		}
	}
	if how == OuterJoin {
		for r, seen := range matched {
			if !seen {
				lpos = append(lpos, -1)
				rpos = append(rpos, r)
			}
		}
	}
	return lpos, rpos
}

// mergedKeyColumn builds an output key column by taking each row's key from
// whichever side is present. Mixed Int64/Float64 key pairs widen to Float64.
func mergedKeyColumn(lc, rc *Column, lpos, rpos []int, ix *Index) (*Column, error) {
	target := lc.dtype
	if lc.dtype != rc.dtype {
		target = Float64
	}
	values := make([]interface{}, len(lpos))
	for i := range lpos {
		switch {
		case lpos[i] >= 0:
			if !lc.nulls[lpos[i]] {
				values[i] = lc.valueAt(lpos[i])
			}
		case rpos[i] >= 0:
			if !rc.nulls[rpos[i]] {
				values[i] = rc.valueAt(rpos[i])
			}
		}
	}
	col, err := NewColumn(target, values, nil)
	if err != nil {
		return nil, err
	}
	return col.WithIndex(ix)
}

// firstDuplicate reports the first position whose encoding occurs more than
// once.
func firstDuplicate(encs []string) (int, bool) {
	seen := make(map[string]bool, len(encs))
	for pos, enc := range encs {
		if seen[enc] {
			return pos, true
		}
		seen[enc] = true
	}
	return -1, false
}
