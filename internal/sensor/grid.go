package sensor

import (
	"strconv"
	"time"
)

// Cell is one decoded spreadsheet cell. Text is always set; the typed forms
// are filled in when the decoder knows the cell holds a number or a date.
type Cell struct {
	Text     string
	Number   float64
	IsNumber bool
	Time     time.Time
	IsTime   bool
}

// TextCell builds an untyped cell.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, IsNumber: true}
}

// TimeCell builds a date/time cell. The wall clock of t is what matters; any
// location attached by the decoder is not trusted as a zone.
func TimeCell(t time.Time) Cell {
	return Cell{Text: t.Format(dateTimeLayout), Time: t, IsTime: true}
}

// Grid is a decoded sheet: an optional header row plus data rows.
type Grid struct {
	// Header is nil when the source declares no header row.
	Header []string
	Rows   [][]Cell
}

// TextRows is a convenience for building grids from plain strings.
func TextRows(rows ...[]string) [][]Cell {
	out := make([][]Cell, 0, len(rows))
	for _, r := range rows {
		cells := make([]Cell, len(r))
		for i, s := range r {
			cells[i] = TextCell(s)
		}
		out = append(out, cells)
	}
	return out
}

// HasHeader reports whether a header row was declared.
func (g Grid) HasHeader() bool {
	return g.Header != nil
}

// Width is the header length when declared, otherwise the widest row.
func (g Grid) Width() int {
	if g.HasHeader() {
		return len(g.Header)
	}
	w := 0
	for _, r := range g.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// headerAsRow returns g with its header moved back in front of the rows as
// text cells. Grids without a header are returned unchanged.
func (g Grid) headerAsRow() Grid {
	if len(g.Header) == 0 {
		return Grid{Rows: g.Rows}
	}
	rows := make([][]Cell, 0, len(g.Rows)+1)
	rows = append(rows, TextRows(g.Header)...)
	rows = append(rows, g.Rows...)
	return Grid{Rows: rows}
}

// cell returns the cell at (row, col) or an empty cell when out of range.
func (g Grid) cell(row, col int) Cell {
	if col < 0 || row < 0 || row >= len(g.Rows) || col >= len(g.Rows[row]) {
		return Cell{}
	}
	return g.Rows[row][col]
}

// RowText renders a row's text forms, for diagnostics.
func (g Grid) RowText(row int) []string {
	if row < 0 || row >= len(g.Rows) {
		return nil
	}
	out := make([]string, len(g.Rows[row]))
	for i, c := range g.Rows[row] {
		out[i] = c.Text
	}
	return out
}
