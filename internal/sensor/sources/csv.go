package sources

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

const utf8BOM = "\uFEFF"

// DecodeCSV reads a delimited export into a grid of text cells. The
// delimiter is detected from the first line among ',', ';' and tab.
func DecodeCSV(r io.Reader, header bool) (sensor.Grid, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return sensor.Grid{}, fmt.Errorf("%w: csv: %v", errDecode, err)
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	reader.Comma = detectDelimiter(first)
	// Allow ragged rows; footers and notes rarely span every column.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return sensor.Grid{}, fmt.Errorf("%w: csv: %v", errDecode, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}

	grid := sensor.Grid{Rows: sensor.TextRows(records...)}
	if header {
		grid = splitHeader(grid)
	}
	return grid, nil
}

func detectDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
