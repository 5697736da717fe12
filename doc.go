// Package slate is an in-memory columnar data engine built around three
// types: Column, a typed nullable value sequence; Index, the ordered row
// labels a Column or DataFrame is aligned by; and DataFrame, an ordered
// collection of equal-length Columns sharing one Index. On top of these the
// package provides null-aware filtering and arithmetic, hash joins with the
// four standard modes, group-by aggregation in first-seen order, and a
// missing-data toolkit (constant, directional and interpolating fills).
// Values are immutable by convention: operations return new structures, and
// the few in-place variants say so in their names.
package slate
