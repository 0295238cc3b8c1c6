package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*60*60)

func normalizeGrid(t *testing.T, g Grid, opts ...NormalizerOption) (*Dataset, Report) {
	t.Helper()
	m, err := Recognize(g)
	require.NoError(t, err)
	ds, report, err := NewNormalizer(brt, opts...).Normalize(g, m)
	require.NoError(t, err)
	return ds, report
}

func TestNormalizeDualFieldSynthesizesTemperature(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Sensor_Umidade (%)", "Sensor_Chuva (mm)"},
		Rows: TextRows(
			[]string{"2024-05-01", "08:00:00", "55", "2.0"},
			[]string{"2024-05-01", "09:00:00", "57", "0.0"},
		),
	}

	ds, report := normalizeGrid(t, g)

	require.Len(t, ds.Records, 2)
	assert.Equal(t, LayoutDualField, ds.Layout)
	assert.Equal(t, []Channel{ChannelTemperature}, report.Synthesized)

	assert.True(t, ds.Records[0].Timestamp.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, brt)))
	assert.True(t, ds.Records[1].Timestamp.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, brt)))

	assert.Equal(t, Value{Value: 55, Quality: QualityMeasured}, ds.Records[0].Channels[ChannelHumidity])
	assert.Equal(t, Value{Value: 2.0, Quality: QualityMeasured}, ds.Records[0].Channels[ChannelRainfall])
	assert.Equal(t, Value{Value: 57, Quality: QualityMeasured}, ds.Records[1].Channels[ChannelHumidity])

	for _, r := range ds.Records {
		temp := r.Channels[ChannelTemperature]
		assert.Equal(t, QualitySynthesized, temp.Quality)
		assert.GreaterOrEqual(t, temp.Value, SynthMin)
		assert.LessOrEqual(t, temp.Value, SynthMax)
	}
}

func TestNormalizeSynthesisIsReproducible(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Umidade", "Chuva"},
		Rows: TextRows(
			[]string{"2024-05-01", "08:00", "55", "2"},
			[]string{"2024-05-01", "09:00", "56", "1"},
		),
	}

	a, _ := normalizeGrid(t, g, WithSeed(7))
	b, _ := normalizeGrid(t, g, WithSeed(7))
	for i := range a.Records {
		assert.Equal(t, a.Records[i].Channels[ChannelTemperature], b.Records[i].Channels[ChannelTemperature])
	}
}

func TestNormalizePositionalDropsStrayHeaderRow(t *testing.T) {
	g := Grid{
		Rows: [][]Cell{
			{TextCell("Data/Hora"), TextCell("10cm"), TextCell("20cm"), TextCell("30cm"), TextCell("40cm"), TextCell("50cm")},
			{TextCell("2024-05-01 08:00:00"), NumberCell(10), NumberCell(11), NumberCell(12), NumberCell(13), NumberCell(14)},
		},
	}

	ds, report := normalizeGrid(t, g)

	require.Len(t, ds.Records, 1)
	require.Len(t, report.Dropped, 1)
	assert.ErrorIs(t, report.Dropped[0], ErrTimestampParse)
	assert.Equal(t, 0, report.Dropped[0].Row)

	rec := ds.Records[0]
	assert.True(t, rec.Timestamp.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, brt)))
	for i, ch := range LayoutPositionalDepth.Channels() {
		v, ok := rec.Get(ch)
		require.True(t, ok)
		assert.Equal(t, float64(10+i), v)
	}
}

func TestNormalizeStableSort(t *testing.T) {
	g := Grid{
		Header: []string{"timestamp", "humidity", "temperature", "rainfall"},
		Rows: TextRows(
			[]string{"2024-05-02 10:00:00", "1", "20", "0"},
			[]string{"2024-05-01 10:00:00", "2", "20", "0"},
			[]string{"2024-05-02 10:00:00", "3", "20", "0"},
			[]string{"2024-05-01 09:00:00", "4", "20", "0"},
		),
	}

	ds, _ := normalizeGrid(t, g)

	var got []float64
	for i, r := range ds.Records {
		if i > 0 {
			assert.False(t, r.Timestamp.Before(ds.Records[i-1].Timestamp))
		}
		h, _ := r.Get(ChannelHumidity)
		got = append(got, h)
	}
	assert.Equal(t, []float64{4, 2, 1, 3}, got)
}

func TestNormalizeCombinedConvertsZoneAwareTimestamps(t *testing.T) {
	g := Grid{
		Header: []string{"timestamp", "humidity", "temperature", "rainfall"},
		Rows: TextRows(
			[]string{"2024-05-01T11:00:00Z", "50", "21", "0"},
			[]string{"2024-05-01 12:00:00", "51", "22", "0"},
			[]string{"2024-05-01T10:00:00-03:00", "52", "23", "0"},
		),
	}

	ds, _ := normalizeGrid(t, g)
	require.Len(t, ds.Records, 3)

	// 11:00Z is converted; naive 12:00 is already a local wall clock.
	assert.Equal(t, "2024-05-01 08:00:00", ds.Records[0].Timestamp.Format(dateTimeLayout))
	assert.Equal(t, "2024-05-01 10:00:00", ds.Records[1].Timestamp.Format(dateTimeLayout))
	assert.Equal(t, "2024-05-01 12:00:00", ds.Records[2].Timestamp.Format(dateTimeLayout))
	for _, r := range ds.Records {
		assert.Equal(t, brt, r.Timestamp.Location())
	}
}

func TestNormalizeCombinedKeepsTypedWallClock(t *testing.T) {
	g := Grid{
		Header: []string{"timestamp", "humidity", "temperature", "rainfall"},
		Rows: [][]Cell{{
			TimeCell(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
			NumberCell(50), NumberCell(21), NumberCell(0),
		}},
	}

	ds, report := normalizeGrid(t, g)
	require.Len(t, ds.Records, 1)
	assert.Empty(t, report.Dropped)
	assert.True(t, ds.Records[0].Timestamp.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, brt)))
	assert.Equal(t, brt, ds.Records[0].Timestamp.Location())
}

func TestNormalizePositionalWithDeclaredHeader(t *testing.T) {
	t.Run("named header row is dropped", func(t *testing.T) {
		g := Grid{
			Header: []string{"Data", "P10", "P20", "P30", "P40", "P50"},
			Rows:   TextRows([]string{"2024-05-01 08:00:00", "10", "11", "12", "13", "14"}),
		}

		ds, report := normalizeGrid(t, g)
		assert.Equal(t, LayoutPositionalDepth, ds.Layout)
		require.Len(t, ds.Records, 1)
		require.Len(t, report.Dropped, 1)
		assert.Equal(t, "Data", report.Dropped[0].Text)
		assert.Equal(t, 2, report.RowsIn)
	})

	t.Run("first reading taken as header is kept", func(t *testing.T) {
		g := Grid{
			Header: []string{"2024-05-01 07:00:00", "9", "10", "11", "12", "13"},
			Rows:   TextRows([]string{"2024-05-01 08:00:00", "10", "11", "12", "13", "14"}),
		}

		ds, report := normalizeGrid(t, g)
		require.Len(t, ds.Records, 2)
		assert.Empty(t, report.Dropped)
		assert.True(t, ds.Records[0].Timestamp.Equal(time.Date(2024, 5, 1, 7, 0, 0, 0, brt)))
		v, ok := ds.Records[0].Get(ChannelDepth1)
		require.True(t, ok)
		assert.Equal(t, 9.0, v)
	})
}

func TestNormalizeDropsBadRowsAndMarksMissingCells(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Umidade", "Temperatura", "Chuva"},
		Rows: TextRows(
			[]string{"2024-05-01", "08:00:00", "abc", "21,5", "0"},
			[]string{"not a date", "??", "50", "20", "0"},
			[]string{"01/05/2024", "10:00:00", "", "22", "1,25"},
		),
	}

	ds, report := normalizeGrid(t, g)

	require.Len(t, ds.Records, 2)
	assert.Equal(t, 3, report.RowsIn)
	assert.Equal(t, 2, report.RowsOut)
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, 1, report.Dropped[0].Row)
	require.Len(t, report.Coercions, 2)
	assert.ErrorIs(t, report.Coercions[0], ErrChannelCoercion)

	first := ds.Records[0]
	assert.Equal(t, QualityMissing, first.Channels[ChannelHumidity].Quality)
	temp, ok := first.Get(ChannelTemperature)
	require.True(t, ok)
	assert.Equal(t, 21.5, temp)

	second := ds.Records[1]
	assert.True(t, second.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, brt)))
	rain, _ := second.Get(ChannelRainfall)
	assert.Equal(t, 1.25, rain)
}

func TestNormalizeTypedCells(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Umidade", "Chuva"},
		Rows: [][]Cell{{
			TimeCell(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
			TimeCell(time.Date(1899, 12, 30, 8, 30, 0, 0, time.UTC)),
			NumberCell(60),
			NumberCell(0.2),
		}},
	}

	ds, _ := normalizeGrid(t, g)
	require.Len(t, ds.Records, 1)
	assert.True(t, ds.Records[0].Timestamp.Equal(time.Date(2024, 5, 1, 8, 30, 0, 0, brt)))
}

func TestNormalizeNoParsableRows(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Umidade", "Chuva"},
		Rows:   TextRows([]string{"x", "y", "1", "2"}),
	}
	m, err := Recognize(g)
	require.NoError(t, err)

	ds, report, err := NewNormalizer(brt).Normalize(g, m)
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, ErrNoParsableRows)
	assert.Equal(t, 0, report.RowsOut)
}

func TestNormalizeChannelSetIsUniform(t *testing.T) {
	g := Grid{
		Header: []string{"Data", "Hora", "Umidade", "Chuva"},
		Rows: TextRows(
			[]string{"2024-05-01", "08:00:00", "55", ""},
			[]string{"2024-05-01", "09:00:00", "", "1"},
		),
	}

	ds, _ := normalizeGrid(t, g)
	for _, r := range ds.Records {
		assert.Len(t, r.Channels, len(ds.Channels))
		for _, ch := range ds.Channels {
			assert.Contains(t, r.Channels, ch)
		}
	}
}

func TestResolve(t *testing.T) {
	local := time.Date(2024, 5, 1, 8, 0, 0, 0, brt)

	t.Run("already in reference zone is a no-op", func(t *testing.T) {
		assert.True(t, Resolve(local, TZLocalize, brt).Equal(local))
		assert.True(t, Resolve(local, TZConvert, brt).Equal(local))
	})

	t.Run("localize keeps the wall clock", func(t *testing.T) {
		naive := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		got := Resolve(naive, TZLocalize, brt)
		assert.Equal(t, 8, got.Hour())
		assert.Equal(t, brt, got.Location())
	})

	t.Run("convert round-trips to the source zone", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		orig := time.Date(2024, 5, 1, 20, 0, 0, 0, tokyo)
		got := Resolve(orig, TZConvert, brt)
		assert.Equal(t, brt, got.Location())
		assert.True(t, got.In(tokyo).Equal(orig))
		assert.Equal(t, orig.Format(time.RFC3339), got.In(tokyo).Format(time.RFC3339))
	})
}

func TestCoerceLocaleNumbers(t *testing.T) {
	cases := map[string]float64{
		"2,0":       2,
		"1,25":      1.25,
		"1.234,5":   1234.5,
		"1,234.5":   1234.5,
		"1.234.567": 1234567,
		"1,234,567": 1234567,
		" 12 ":      12,
		"1 234,5":   1234.5,
		"-0,5":      -0.5,
	}
	for in, want := range cases {
		got, ok := coerce(TextCell(in))
		assert.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	for _, in := range []string{"", "abc", "1,2,3.4.5", "NaN"} {
		_, ok := coerce(TextCell(in))
		assert.False(t, ok, in)
	}
}
