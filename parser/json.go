package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// JSONReader reads a JSON array of flat objects, one object per row.
type JSONReader struct{}

func (p *JSONReader) SupportedFormats() []string { return []string{"json"} }

func (p *JSONReader) Read(ctx context.Context, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding JSON records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data found in JSON")
	}
	return FromRecords(records), nil
}

// FromRecords converts decoded JSON objects into a Table. Columns are the
// union of all keys, sorted; absent keys and nulls read as "".
func FromRecords(records []map[string]any) *Table {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = cellString(rec[col])
		}
		rows[i] = row
	}
	return &Table{Columns: columns, Rows: rows, Source: "inline"}
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
