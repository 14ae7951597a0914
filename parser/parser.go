package parser

import (
	"context"
	"math/rand/v2"
	"sort"
)

// Table is a column-named grid of string cells, the common form every
// input file is read into before normalisation. Column names are matched
// exactly and case-sensitively.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Source  string     `json:"source,omitempty"` // file name or "inline"
}

// Reader can read a specific file format into a Table.
type Reader interface {
	Read(ctx context.Context, path string) (*Table, error)
	SupportedFormats() []string
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the index of col, or -1 if the table has no such column.
func (t *Table) Column(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table has a column named col.
func (t *Table) Has(col string) bool { return t.Column(col) >= 0 }

// Missing returns the columns from want the table lacks, in want order.
func (t *Table) Missing(want ...string) []string {
	var missing []string
	for _, col := range want {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Cell returns the value of col in row i. Absent columns and short rows
// read as the empty string.
func (t *Table) Cell(i int, col string) string {
	idx := t.Column(col)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

// Sample returns a table holding n rows drawn without replacement using
// a PCG source seeded with seed. Sampled rows keep their original
// relative order. n <= 0 or n >= Len() returns t itself.
func (t *Table) Sample(n int, seed uint64) *Table {
	if n <= 0 || n >= len(t.Rows) {
		return t
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	picked := rng.Perm(len(t.Rows))[:n]
	sort.Ints(picked)

	rows := make([][]string, n)
	for i, idx := range picked {
		rows[i] = t.Rows[idx]
	}
	return &Table{Columns: t.Columns, Rows: rows, Source: t.Source}
}
