// Package dsv parses delimiter-separated values into DataFrames.
package dsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	slate "github.com/go-slate/slate"
	"github.com/go-slate/slate/ingest"
)

// ParserConf configures a DSV Parser
type ParserConf struct {
	HeaderLines int    // The number of lines to ignore from the beginning of the input. Defaults to 0.
	Delimiter   rune   // The delimiter separating columns. Defaults to ,
	Comment     rune   // Lines beginning with the comment character are ignored. Cannot be equal to the Delimiter. Defaults to no comment character.
	NilValue    string // A special string which represents nil values in the dataset. Defaults to "" (the empty string).
}

// Parser produces DataFrames from DSV data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new DSV Parser
func CreateParser(conf *ParserConf) *Parser {
	if conf.Delimiter == 0 {
		conf.Delimiter = ','
	}
	return &Parser{conf: conf}
}

// Parse reads DSV data and produces a DataFrame with one column per spec, in
// spec order. Fields are matched to specs by position. An empty field or one
// equal to NilValue becomes a null.
func (p *Parser) Parse(r io.Reader, specs []ingest.ColumnSpec) (*slate.DataFrame, error) {
	if err := ingest.ValidateSpecs(specs); err != nil {
		return nil, err
	}
	reader := csv.NewReader(r)
	reader.Comma = p.conf.Delimiter
	reader.Comment = p.conf.Comment
	reader.FieldsPerRecord = len(specs)
	reader.ReuseRecord = true

	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	builder := ingest.NewBuilder(specs)
	row := make([]interface{}, len(specs))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := p.scanRow(specs, record, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", builder.Rows()+p.conf.HeaderLines+1, err)
		}
		if err := builder.Append(row); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// scanRow parses a slice of strings into boxed values, according to the specs
func (p *Parser) scanRow(specs []ingest.ColumnSpec, record []string, row []interface{}) error {
	for i, spec := range specs {
		colVal := record[i]
		// check for a nil value
		if len(colVal) == 0 || colVal == p.conf.NilValue {
			row[i] = nil
			continue
		}
		// otherwise, parse type
		if spec.TimeLayout != "" {
			ms, err := ingest.ParseTime(colVal, spec.TimeLayout)
			if err != nil {
				return fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[i] = ms
			continue
		}
		switch spec.DType {
		case slate.Int64:
			ival, err := strconv.ParseInt(colVal, 10, 64)
			if err != nil {
				return fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[i] = ival
		case slate.Float64:
			fval, err := strconv.ParseFloat(colVal, 64)
			if err != nil {
				return fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[i] = fval
		case slate.Bool:
			bval, err := strconv.ParseBool(colVal)
			if err != nil {
				return fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[i] = bval
		case slate.Text, slate.Object:
			row[i] = colVal
		default:
			return fmt.Errorf("column %q: unsupported dtype %s", spec.Name, spec.DType)
		}
	}
	return nil
}
