package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSVSemicolonWithBOM(t *testing.T) {
	input := "\uFEFFData;Hora;Umidade;Chuva\n2024-05-01;08:00:00;55;2,0\n2024-05-01;09:00:00;57;0,0\n"

	grid, err := DecodeCSV(strings.NewReader(input), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"Data", "Hora", "Umidade", "Chuva"}, grid.Header)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, []string{"2024-05-01", "09:00:00", "57", "0,0"}, grid.RowText(1))
}

func TestDecodeCSVWithoutHeader(t *testing.T) {
	input := "Data/Hora,d1,d2,d3,d4,d5\n2024-05-01 08:00:00,10,11,12,13,14\n"

	grid, err := DecodeCSV(strings.NewReader(input), false)
	require.NoError(t, err)

	assert.False(t, grid.HasHeader())
	assert.Len(t, grid.Rows, 2)
	assert.Equal(t, 6, grid.Width())
}

func TestDecodeCSVEmpty(t *testing.T) {
	grid, err := DecodeCSV(strings.NewReader(""), true)
	require.NoError(t, err)
	assert.Empty(t, grid.Rows)
	assert.Empty(t, grid.Header)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter("a,b,c"))
	assert.Equal(t, ';', detectDelimiter("a;b;c,d"))
	assert.Equal(t, '\t', detectDelimiter("a\tb\tc"))
	assert.Equal(t, ',', detectDelimiter("single"))
}
