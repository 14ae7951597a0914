package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads the first non-empty sheet of a workbook. The first row
// holds the column names.
type XLSXReader struct{}

func (p *XLSXReader) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXReader) Read(ctx context.Context, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		if len(rows) == 0 {
			continue
		}

		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(h)
		}

		// excelize trims trailing empty cells, so pad every row to the
		// header width.
		data := make([][]string, 0, len(rows)-1)
		for _, row := range rows[1:] {
			if len(row) < len(header) {
				padded := make([]string, len(header))
				copy(padded, row)
				row = padded
			}
			data = append(data, row)
		}

		return &Table{Columns: header, Rows: data}, nil
	}

	return nil, fmt.Errorf("no data found in XLSX")
}
