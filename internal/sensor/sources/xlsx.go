package sources

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

// DecodeXLSX reads one sheet of a workbook into a grid. An empty sheet name
// selects the first sheet. With header set, the first row becomes the header.
func DecodeXLSX(r io.Reader, sheet string, header bool) (sensor.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return sensor.Grid{}, fmt.Errorf("%w: xlsx: %v", errDecode, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return sensor.Grid{}, fmt.Errorf("%w: xlsx: workbook has no sheets", errDecode)
		}
		sheet = sheets[0]
	}

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return sensor.Grid{}, fmt.Errorf("%w: xlsx sheet %q: %v", errDecode, sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sensor.Grid{}, fmt.Errorf("%w: xlsx sheet %q: %v", errDecode, sheet, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows := make([][]sensor.Cell, 0, len(formatted))
	for i, texts := range formatted {
		var raws []string
		if i < len(raw) {
			raws = raw[i]
		}
		cells := make([]sensor.Cell, len(texts))
		for j, text := range texts {
			rawText := text
			if j < len(raws) {
				rawText = raws[j]
			}
			cells[j] = xlsxCell(f, sheet, i, j, text, rawText, date1904)
		}
		rows = append(rows, cells)
	}

	grid := sensor.Grid{Rows: rows}
	if header {
		grid = splitHeader(grid)
	}
	return grid, nil
}

func xlsxCell(f *excelize.File, sheet string, row, col int, text, raw string, date1904 bool) sensor.Cell {
	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return sensor.TextCell(text)
	}

	if isDateCell(f, sheet, row, col) && num >= 0 {
		if t, err := excelize.ExcelDateToTime(num, date1904); err == nil {
			t = t.Round(time.Second)
			c := sensor.TimeCell(t)
			c.Text = serialText(t, num)
			return c
		}
	}

	c := sensor.NumberCell(num)
	c.Text = text
	return c
}

// serialText renders a date serial the way the sheet means it: a bare
// time-of-day, a bare date, or both.
func serialText(t time.Time, serial float64) string {
	switch {
	case serial < 1:
		return t.Format("15:04:05")
	case serial == math.Trunc(serial):
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01-02 15:04:05")
	}
}

func isDateCell(f *excelize.File, sheet string, row, col int) bool {
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return false
	}
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return hasDateTokens(*style.CustomNumFmt)
	}
	// built-in date and time formats
	n := style.NumFmt
	return (n >= 14 && n <= 22) || (n >= 45 && n <= 47)
}

func hasDateTokens(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '[' && !quoted:
			bracket = true
		case r == ']' && !quoted:
			bracket = false
		case !quoted && !bracket:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydhs")
}

// splitHeader promotes the first row to the header.
func splitHeader(g sensor.Grid) sensor.Grid {
	if len(g.Rows) == 0 {
		return sensor.Grid{Header: []string{}}
	}
	first := g.Rows[0]
	header := make([]string, len(first))
	for i, c := range first {
		header[i] = strings.TrimSpace(c.Text)
	}
	return sensor.Grid{Header: header, Rows: g.Rows[1:]}
}
