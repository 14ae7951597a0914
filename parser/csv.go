package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVReader handles comma- and tab-separated files. The first record holds
// the column names; records may have a varying number of fields.
type CSVReader struct{}

func (p *CSVReader) SupportedFormats() []string { return []string{"csv", "tsv"} }

func (p *CSVReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	comma := ','
	if FormatOf(path) == "tsv" {
		comma = '\t'
	}
	return ReadDelimited(ctx, f, comma)
}

// ReadDelimited reads a delimited stream into a Table.
func ReadDelimited(ctx context.Context, r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("no data found in CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}
		rows = append(rows, rec)
	}

	return &Table{Columns: header, Rows: rows}, nil
}
