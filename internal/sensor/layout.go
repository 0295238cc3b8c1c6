package sensor

import (
	"fmt"

	"github.com/i474232898/sensor-feed/internal/common"
)

// LayoutID identifies one of the known spreadsheet arrangements.
type LayoutID int

const (
	LayoutUnknown LayoutID = iota
	LayoutDualField
	LayoutCombinedField
	LayoutPositionalDepth
)

func (l LayoutID) String() string {
	switch l {
	case LayoutDualField:
		return "dual-field"
	case LayoutCombinedField:
		return "combined-field"
	case LayoutPositionalDepth:
		return "positional-depth"
	default:
		return "unknown"
	}
}

// MarshalText renders the layout by name in JSON and logs.
func (l LayoutID) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the names MarshalText produces; anything else is unknown.
func (l *LayoutID) UnmarshalText(text []byte) error {
	switch string(text) {
	case "dual-field":
		*l = LayoutDualField
	case "combined-field":
		*l = LayoutCombinedField
	case "positional-depth":
		*l = LayoutPositionalDepth
	default:
		*l = LayoutUnknown
	}
	return nil
}

// TimezoneStrategy says how parsed timestamps reach the reference zone.
type TimezoneStrategy int

const (
	// TZLocalize reads the wall clock as reference-zone time, no shift.
	TZLocalize TimezoneStrategy = iota
	// TZConvert reads a zone-aware instant and converts it to the reference zone.
	TZConvert
)

// Channels is the channel set every record of a dataset with this layout carries.
func (l LayoutID) Channels() []Channel {
	switch l {
	case LayoutDualField, LayoutCombinedField:
		return []Channel{ChannelHumidity, ChannelTemperature, ChannelRainfall}
	case LayoutPositionalDepth:
		return []Channel{ChannelDepth1, ChannelDepth2, ChannelDepth3, ChannelDepth4, ChannelDepth5}
	default:
		return nil
	}
}

// Timezone is fixed per layout so one dataset never mixes strategies.
func (l LayoutID) Timezone() TimezoneStrategy {
	switch l {
	case LayoutCombinedField:
		return TZConvert
	default:
		// dual-field and positional sheets carry naive local wall clocks
		return TZLocalize
	}
}

// Header aliases, already in common.NormalizeHeader form.
var (
	dualDateAliases     = []string{"data", "date", "dia"}
	dualTimeAliases     = []string{"hora", "time", "horario"}
	dualHumidityAliases = []string{"sensor_umidade (%)", "umidade (%)", "umidade", "humidity (%)", "humidity"}
	dualRainfallAliases = []string{"sensor_chuva (mm)", "chuva (mm)", "chuva", "rainfall (mm)", "rainfall", "precipitacao"}
	dualTempAliases     = []string{"sensor_temperatura (°c)", "sensor_temperatura (c)", "temperatura (°c)", "temperatura", "temperature"}

	combinedTimestampAliases = []string{"timestamp", "datetime", "date_time", "data_hora", "data/hora", "data e hora"}
	combinedHumidityAliases  = []string{"humidity", "umidade", "umidade_solo", "rh", "rh (%)"}
	combinedTempAliases      = []string{"temperature", "temperatura", "temp", "temp (c)", "temp (°c)"}
	combinedRainfallAliases  = []string{"rainfall", "chuva", "precipitation", "rain", "rain (mm)"}
)

// PositionalWidth is the exact column count of the depth-profile layout.
const PositionalWidth = 6

// absent marks a declared channel with no source column.
const absent = -1

// Mapping ties a recognized layout to grid column positions.
type Mapping struct {
	Layout LayoutID

	// Timestamp is the combined date-time column (combined and positional layouts).
	Timestamp int
	// Date and Clock are the split columns of the dual-field layout.
	Date  int
	Clock int

	// Columns maps every channel of Layout.Channels() to a column, or -1 when absent.
	Columns map[Channel]int

	// HeaderAsData is set when the declared header is read as the first row.
	HeaderAsData bool
}

// Absent reports whether ch has no source column and must be synthesized.
func (m Mapping) Absent(ch Channel) bool {
	col, ok := m.Columns[ch]
	return !ok || col == absent
}

// Recognize classifies a grid into one of the known layouts. Rules are tried
// in priority order: dual-field, combined-field, positional depth. A header
// that matches no named layout is read back as the first data row; the
// normalizer drops it if it is not a reading.
func Recognize(g Grid) (Mapping, error) {
	if len(g.Header) == 0 && len(g.Rows) == 0 {
		return Mapping{}, fmt.Errorf("%w: empty grid", ErrUnknownLayout)
	}

	if g.HasHeader() {
		if m, ok := recognizeDualField(g.Header); ok {
			return m, nil
		}
		if m, ok := recognizeCombinedField(g.Header); ok {
			return m, nil
		}
	}

	m, err := recognizePositional(g.headerAsRow())
	if err != nil {
		if g.HasHeader() && namesTimestamp(g.Header) {
			return Mapping{}, fmt.Errorf("%w: header %q names date/time columns but no known channel set", ErrUnknownLayout, g.Header)
		}
		return Mapping{}, err
	}
	m.HeaderAsData = len(g.Header) > 0
	return m, nil
}

func recognizeDualField(header []string) (Mapping, bool) {
	date := common.IndexOfAny(header, dualDateAliases...)
	clock := common.IndexOfAny(header, dualTimeAliases...)
	hum := common.IndexOfAny(header, dualHumidityAliases...)
	rain := common.IndexOfAny(header, dualRainfallAliases...)
	if date < 0 || clock < 0 || hum < 0 || rain < 0 {
		return Mapping{}, false
	}

	// Temperature is optional; -1 marks it absent.
	temp := common.IndexOfAny(header, dualTempAliases...)

	return Mapping{
		Layout:    LayoutDualField,
		Timestamp: absent,
		Date:      date,
		Clock:     clock,
		Columns: map[Channel]int{
			ChannelHumidity:    hum,
			ChannelTemperature: temp,
			ChannelRainfall:    rain,
		},
	}, true
}

func recognizeCombinedField(header []string) (Mapping, bool) {
	ts := common.IndexOfAny(header, combinedTimestampAliases...)
	hum := common.IndexOfAny(header, combinedHumidityAliases...)
	temp := common.IndexOfAny(header, combinedTempAliases...)
	rain := common.IndexOfAny(header, combinedRainfallAliases...)
	if ts < 0 || hum < 0 || temp < 0 || rain < 0 {
		return Mapping{}, false
	}

	return Mapping{
		Layout:    LayoutCombinedField,
		Timestamp: ts,
		Date:      absent,
		Clock:     absent,
		Columns: map[Channel]int{
			ChannelHumidity:    hum,
			ChannelTemperature: temp,
			ChannelRainfall:    rain,
		},
	}, true
}

func recognizePositional(g Grid) (Mapping, error) {
	if w := g.Width(); w != PositionalWidth {
		return Mapping{}, fmt.Errorf("%w: positional layout needs %d columns, got %d", ErrColumnCountMismatch, PositionalWidth, w)
	}

	cols := make(map[Channel]int, PositionalWidth-1)
	for i, ch := range LayoutPositionalDepth.Channels() {
		cols[ch] = i + 1
	}
	return Mapping{
		Layout:    LayoutPositionalDepth,
		Timestamp: 0,
		Date:      absent,
		Clock:     absent,
		Columns:   cols,
	}, nil
}

// namesTimestamp reports whether a header looks like a named layout at all.
func namesTimestamp(header []string) bool {
	return common.IndexOfAny(header, dualDateAliases...) >= 0 ||
		common.IndexOfAny(header, dualTimeAliases...) >= 0 ||
		common.IndexOfAny(header, combinedTimestampAliases...) >= 0
}
