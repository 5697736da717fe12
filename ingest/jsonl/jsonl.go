// Package jsonl parses JSON Lines data into DataFrames. This parser uses
// https://github.com/tidwall/gjson to process rows, and supports column
// source paths formatted as gjson paths.
package jsonl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	slate "github.com/go-slate/slate"
	"github.com/go-slate/slate/ingest"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data
type ParserConf struct {
	HeaderLines   int  // The number of lines to ignore from the beginning of the input. Defaults to 0.
	Comment       rune // Lines beginning with the comment character are ignored. Defaults to no comment character.
	MaxBufferSize int  // Maximum size in bytes of the buffer used to read lines. Defaults to bufio.MaxScanTokenSize.
}

// Parser produces DataFrames from JSONL data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser. Values are located in each row of
// JSON using the spec's source path, which should be a gjson path. Paths
// absent from a row, and JSON nulls, become null cells.
func CreateParser(conf *ParserConf) *Parser {
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// Parse reads JSON lines and produces a DataFrame with one column per spec,
// in spec order. Blank lines are skipped.
func (p *Parser) Parse(r io.Reader, specs []ingest.ColumnSpec) (*slate.DataFrame, error) {
	if err := ingest.ValidateSpecs(specs); err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		scanner.Scan()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	builder := ingest.NewBuilder(specs)
	row := make([]interface{}, len(specs))
	line := p.conf.HeaderLines
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if p.conf.Comment != 0 && strings.HasPrefix(text, string(p.conf.Comment)) {
			continue
		}
		if err := scanRow(specs, gjson.Parse(text), row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := builder.Append(row); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return builder.Build()
}

// scanRow locates and parses one boxed value per spec from a parsed JSON row
func scanRow(specs []ingest.ColumnSpec, parsed gjson.Result, row []interface{}) error {
	for i, spec := range specs {
		res := parsed.Get(spec.SourcePath())
		if !res.Exists() || res.Type == gjson.Null {
			row[i] = nil
			continue
		}
		if spec.TimeLayout != "" {
			if res.Type != gjson.String {
				return fmt.Errorf("column %q was not a string timestamp. Was: %s", spec.Name, res.Raw)
			}
			ms, err := ingest.ParseTime(res.String(), spec.TimeLayout)
			if err != nil {
				return fmt.Errorf("column %q: %w", spec.Name, err)
			}
			row[i] = ms
			continue
		}
		switch spec.DType {
		case slate.Int64:
			if res.Type != gjson.Number {
				return fmt.Errorf("column %q was not a number. Was: %s", spec.Name, res.Raw)
			}
			row[i] = res.Int()
		case slate.Float64:
			if res.Type != gjson.Number {
				return fmt.Errorf("column %q was not a number. Was: %s", spec.Name, res.Raw)
			}
			row[i] = res.Float()
		case slate.Bool:
			if res.Type != gjson.True && res.Type != gjson.False {
				return fmt.Errorf("column %q was not a boolean. Was: %s", spec.Name, res.Raw)
			}
			row[i] = res.Bool()
		case slate.Text:
			if res.Type != gjson.String {
				return fmt.Errorf("column %q was not a string. Was: %s", spec.Name, res.Raw)
			}
			row[i] = res.String()
		case slate.Object:
			row[i] = res.Value()
		default:
			return fmt.Errorf("column %q: unsupported dtype %s", spec.Name, spec.DType)
		}
	}
	return nil
}
