// Package table holds the minimal in-memory tabular representation shared
// by the ingestion, cross-referencing and scoring stages. Every cell is a
// string; typed interpretation happens in the consuming package.
package table

import "strings"

type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the given header, or -1.
func (t Table) ColumnIndex(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is ragged.
func (t Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// DropUnnamed removes placeholder columns: blank headers and the
// "Unnamed: N" headers spreadsheet exports emit for stray cells.
func (t Table) DropUnnamed() Table {
	keep := make([]int, 0, len(t.Headers))
	for i, h := range t.Headers {
		trimmed := strings.TrimSpace(h)
		if trimmed == "" || strings.HasPrefix(trimmed, "Unnamed") {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(t.Headers) {
		return t
	}
	out := Table{Headers: make([]string, 0, len(keep))}
	for _, i := range keep {
		out.Headers = append(out.Headers, t.Headers[i])
	}
	out.Rows = make([][]string, 0, len(t.Rows))
	for ri := range t.Rows {
		row := make([]string, 0, len(keep))
		for _, i := range keep {
			row = append(row, t.Cell(ri, i))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Concat appends the rows of every table into one, aligning columns by
// header name. Headers are the union in first-seen order; cells missing
// from a source table come out empty.
func Concat(tables ...Table) Table {
	var out Table
	pos := map[string]int{}
	for _, t := range tables {
		for _, h := range t.Headers {
			if _, ok := pos[h]; !ok {
				pos[h] = len(out.Headers)
				out.Headers = append(out.Headers, h)
			}
		}
	}
	for _, t := range tables {
		idx := make([]int, len(t.Headers))
		for i, h := range t.Headers {
			idx[i] = pos[h]
		}
		for ri := range t.Rows {
			row := make([]string, len(out.Headers))
			for i := range t.Headers {
				row[idx[i]] = t.Cell(ri, i)
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
