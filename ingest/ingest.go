// Package ingest declares the column specifications shared by the text
// parsers and turns their parsed rows into DataFrames.
package ingest

import (
	"fmt"

	"github.com/golang-module/carbon/v2"

	slate "github.com/go-slate/slate"
)

// A ColumnSpec declares one output column of a parse: its name, target
// dtype, and where in the source a value comes from.
type ColumnSpec struct {
	// Name is the output column name.
	Name string
	// DType is the target dtype values are coerced into.
	DType slate.DType
	// Path overrides where the value is read from: a field position header
	// name for DSV, a gjson path for JSONL. Defaults to Name.
	Path string
	// TimeLayout marks a text source field as a timestamp. Values parse via
	// the layout (or by detection when the layout is "auto") and land as
	// epoch milliseconds, so DType must be Int64.
	TimeLayout string
}

// SourcePath returns where this column's values are read from.
func (s ColumnSpec) SourcePath() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}

// ValidateSpecs rejects spec lists no parser can honor: empty lists,
// duplicate or empty names, and timestamp columns not landing as Int64.
func ValidateSpecs(specs []ColumnSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("at least one column spec is required")
	}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("column spec name must not be empty")
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate column spec %q", spec.Name)
		}
		seen[spec.Name] = true
		if spec.TimeLayout != "" && spec.DType != slate.Int64 {
			return fmt.Errorf("column %q: timestamps land as epoch milliseconds and need dtype int64, got %s", spec.Name, spec.DType)
		}
	}
	return nil
}

// ParseTime parses a source timestamp into epoch milliseconds. An "auto"
// layout lets the parser detect the format.
func ParseTime(value, layout string) (int64, error) {
	var c carbon.Carbon
	if layout == "" || layout == "auto" {
		c = carbon.Parse(value, "UTC")
	} else {
		c = carbon.ParseByLayout(value, layout, "UTC")
	}
	if c.Error != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", value, c.Error)
	}
	return c.StdTime().UnixMilli(), nil
}

// A Builder accumulates parsed rows column-wise and assembles the final
// DataFrame. Parsers append one boxed value per spec per row, nil for null.
type Builder struct {
	specs  []ColumnSpec
	values [][]interface{}
}

// NewBuilder prepares a Builder for the given specs.
func NewBuilder(specs []ColumnSpec) *Builder {
	return &Builder{specs: specs, values: make([][]interface{}, len(specs))}
}

// Append adds one row of boxed values, in spec order.
func (b *Builder) Append(row []interface{}) error {
	if len(row) != len(b.specs) {
		return fmt.Errorf("row has %d values, want %d", len(row), len(b.specs))
	}
	for i, v := range row {
		b.values[i] = append(b.values[i], v)
	}
	return nil
}

// Rows returns the number of rows appended so far.
func (b *Builder) Rows() int {
	if len(b.values) == 0 {
		return 0
	}
	return len(b.values[0])
}

// Build assembles the DataFrame with a positional index.
func (b *Builder) Build() (*slate.DataFrame, error) {
	descs := make([]slate.ColumnDescriptor, len(b.specs))
	for i, spec := range b.specs {
		descs[i] = slate.ColumnDescriptor{Name: spec.Name, DType: spec.DType, Values: b.values[i]}
	}
	return slate.FromDescriptors(nil, descs...)
}
