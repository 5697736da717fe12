package slate

import (
	"fmt"
	"time"

	errors "github.com/go-slate/slate/errors"
	"github.com/go-slate/slate/internal/kernel"
)

// FillMethod selects how FillNA resolves nulls.
type FillMethod int

const (
	// FillConstant replaces every null with FillOptions.Value
	FillConstant FillMethod = iota
	// FillForward replaces a null with the last preceding non-null value
	FillForward
	// FillBackward replaces a null with the next following non-null value
	FillBackward
)

func (m FillMethod) String() string {
	switch m {
	case FillConstant:
		return "constant"
	case FillForward:
		return "forward"
	default:
		return "backward"
	}
}

// FillOptions configures FillNA.
type FillOptions struct {
	// Method selects the fill strategy. Defaults to FillConstant.
	Method FillMethod
	// Value is the replacement for FillConstant. It must fit the column's
	// dtype.
	Value interface{}
	// Limit caps consecutive fills per gap for the directional methods, and
	// the total number of fills per column for FillConstant. Zero or
	// negative means no limit.
	Limit int
	// Columns restricts a DataFrame-level fill to the named columns. Empty
	// means every column that holds nulls.
	Columns []string
}

// FillNA returns a copy of this Column with nulls resolved per opts. With
// FillForward leading nulls survive, with FillBackward trailing ones do;
// directional fills never invent values. The dtype never changes: a Float64
// column that was upcast to hold nulls stays Float64 after they are gone.
func (c *Column) FillNA(opts FillOptions) (*Column, error) {
	out := c.Copy()
	if err := out.fillNA(opts); err != nil {
		return nil, err
	}
	return out, nil
}

// FillNAInPlace resolves nulls per opts, mutating the receiver. Not safe for
// concurrent use with any other access to this Column.
func (c *Column) FillNAInPlace(opts FillOptions) error {
	return c.fillNA(opts)
}

func (c *Column) fillNA(opts FillOptions) error {
	start := time.Now()
	rowsIn := c.NullCount()
	if rowsIn == 0 {
		return nil
	}
	switch opts.Method {
	case FillConstant:
		if opts.Value == nil {
			return unsupported("fill", "constant fill requires a non-nil value")
		}
		stored, ok := coerce(opts.Value, c.dtype)
		if !ok {
			return unsupported("fill", fmt.Sprintf("value %v (%T) does not fit dtype %s", opts.Value, opts.Value, c.dtype))
		}
		// fresh slices, like the directional kernels: storage siblings stay intact
		c.detach()
		filled := 0
		for i, isNull := range c.nulls {
			if !isNull {
				continue
			}
			if opts.Limit > 0 && filled >= opts.Limit {
				break
			}
			c.setStorage(i, stored)
			c.nulls[i] = false
			filled++
		}
	case FillForward, FillBackward:
		c.fillDirectional(opts.Method, opts.Limit)
	default:
		return unsupported("fill", fmt.Sprintf("unknown fill method %d", opts.Method))
	}
	observe(EventFill, rowsIn, c.NullCount(), start)
	return nil
}

func (c *Column) fillDirectional(method FillMethod, limit int) {
	switch c.dtype {
	case Float64:
		if method == FillForward {
			c.floats, c.nulls = kernel.FillForward(c.floats, c.nulls, limit)
		} else {
			c.floats, c.nulls = kernel.FillBackward(c.floats, c.nulls, limit)
		}
	case Text:
		if method == FillForward {
			c.texts, c.nulls = kernel.FillForward(c.texts, c.nulls, limit)
		} else {
			c.texts, c.nulls = kernel.FillBackward(c.texts, c.nulls, limit)
		}
	case Object:
		if method == FillForward {
			c.objects, c.nulls = kernel.FillForward(c.objects, c.nulls, limit)
		} else {
			c.objects, c.nulls = kernel.FillBackward(c.objects, c.nulls, limit)
		}
	}
	// Int64 and Bool never hold nulls
}

// DropNA returns a copy of this Column without its null rows. The index
// keeps the surviving labels.
func (c *Column) DropNA() *Column {
	positions := make([]int, 0, c.Len()-c.NullCount())
	for i, isNull := range c.nulls {
		if !isNull {
			positions = append(positions, i)
		}
	}
	return c.take(positions, c.idx.take(positions))
}

// FillNA returns a copy of this DataFrame with nulls resolved per opts in
// the named columns, or in every null-bearing column when none are named.
func (df *DataFrame) FillNA(opts FillOptions) (*DataFrame, error) {
	out := df.shallow()
	targets, err := df.fillTargets(opts)
	if err != nil {
		return nil, err
	}
	for _, name := range targets {
		col, err := df.cols[name].FillNA(opts)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out.cols[name] = col
	}
	return out, nil
}

// FillNAInPlace resolves nulls per opts, mutating this DataFrame's columns.
// Not safe for concurrent use with any other access to this DataFrame.
func (df *DataFrame) FillNAInPlace(opts FillOptions) error {
	targets, err := df.fillTargets(opts)
	if err != nil {
		return err
	}
	for _, name := range targets {
		if err := df.cols[name].FillNAInPlace(opts); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
	}
	return nil
}

func (df *DataFrame) fillTargets(opts FillOptions) ([]string, error) {
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			if !df.HasColumn(name) {
				return nil, errors.UnknownColumnError{Name: name}
			}
		}
		return opts.Columns, nil
	}
	var targets []string
	for _, name := range df.names {
		if df.cols[name].NullCount() > 0 {
			targets = append(targets, name)
		}
	}
	return targets, nil
}

// DropNA returns the rows of this DataFrame that hold no null in any
// column, in their original order.
func (df *DataFrame) DropNA() *DataFrame {
	start := time.Now()
	positions := make([]int, 0, df.NumRows())
rows:
	for i := 0; i < df.NumRows(); i++ {
		for _, name := range df.names {
			if df.cols[name].nulls[i] {
				continue rows
			}
		}
		positions = append(positions, i)
	}
	out := df.takeRows(positions, df.idx.take(positions))
	observe(EventDropNA, df.NumRows(), out.NumRows(), start)
	return out
}

// InterpolateOptions configures Interpolate.
type InterpolateOptions struct {
	// Keys supplies the x-coordinates for Column-level interpolation. Nil
	// means row positions. The column must be numeric, non-null and
	// strictly increasing.
	Keys *Column
	// KeyColumn names the x-coordinate column for DataFrame-level
	// interpolation. It is excluded from the interpolated targets.
	KeyColumn string
	// Columns restricts a DataFrame-level interpolation to the named
	// columns. Empty means every Float64 column.
	Columns []string
}

// Interpolate returns a copy of this Column with interior nulls replaced by
// linear interpolation between the nearest non-null neighbors, spaced by the
// key coordinates (row positions when no keys are given). Leading and
// trailing nulls survive: interpolation never extrapolates. Int64 columns
// hold no nulls and come back unchanged; non-numeric columns are an error.
func (c *Column) Interpolate(opts InterpolateOptions) (*Column, error) {
	start := time.Now()
	switch c.dtype {
	case Int64:
		return c.Copy(), nil
	case Float64:
	default:
		return nil, unsupported("interpolate", fmt.Sprintf("dtype %s is not numeric", c.dtype))
	}
	xs, err := interpolationKeys(opts.Keys, c.Len())
	if err != nil {
		return nil, err
	}
	out := c.Copy()
	rowsIn := out.NullCount()
	interpolateFloats(out.floats, out.nulls, xs)
	observe(EventInterpolate, rowsIn, out.NullCount(), start)
	return out, nil
}

// interpolationKeys validates the x-coordinates and widens them to float64.
// Nil keys mean unit spacing by row position.
func interpolationKeys(keys *Column, n int) ([]float64, error) {
	if keys == nil {
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		return xs, nil
	}
	if keys.Len() != n {
		return nil, lengthMismatch("interpolate", n, keys.Len())
	}
	if !keys.DType().IsNumeric() {
		return nil, unsupported("interpolate", fmt.Sprintf("key dtype %s is not numeric", keys.DType()))
	}
	if keys.NullCount() > 0 {
		return nil, unsupported("interpolate", "keys must not contain nulls")
	}
	xs := keys.toFloats()
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, unsupported("interpolate", fmt.Sprintf("keys must be strictly increasing, got %v then %v", xs[i-1], xs[i]))
		}
	}
	return xs, nil
}

// interpolateFloats fills interior null runs in place, linearly between the
// surrounding valid values along the xs coordinates.
func interpolateFloats(vals []float64, nulls []bool, xs []float64) {
	prev := -1
	for i := range vals {
		if nulls[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			x0, y0 := xs[prev], vals[prev]
			x1, y1 := xs[i], vals[i]
			for j := prev + 1; j < i; j++ {
				t := (xs[j] - x0) / (x1 - x0)
				vals[j] = y0 + t*(y1-y0)
				nulls[j] = false
			}
		}
		prev = i
	}
}

// Interpolate returns a copy of this DataFrame with the named columns (or
// every Float64 column) linearly interpolated. When KeyColumn names a
// column it supplies the x-coordinates and is excluded from the targets.
func (df *DataFrame) Interpolate(opts InterpolateOptions) (*DataFrame, error) {
	var keys *Column
	if opts.KeyColumn != "" {
		col, err := df.Column(opts.KeyColumn)
		if err != nil {
			return nil, err
		}
		keys = col
	} else if opts.Keys != nil {
		keys = opts.Keys
	}
	targets := opts.Columns
	if len(targets) == 0 {
		for _, name := range df.names {
			if name != opts.KeyColumn && df.cols[name].DType() == Float64 {
				targets = append(targets, name)
			}
		}
	}
	out := df.shallow()
	colOpts := InterpolateOptions{Keys: keys}
	for _, name := range targets {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		if name == opts.KeyColumn {
			return nil, unsupported("interpolate", fmt.Sprintf("column %q is the key column", name))
		}
		filled, err := col.Interpolate(colOpts)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out.cols[name] = filled
	}
	return out, nil
}
