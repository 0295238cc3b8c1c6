package sensor

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	monthLayout    = "2006-01"
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04:05"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Wall-clock formats seen in the exports, read in the reference zone.
var naiveLayouts = []string{
	dateTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02 15:04:05",
}

// Formats carrying their own offset; only tried for TZConvert layouts.
var awareLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-0700",
}

// Bounds of synthesized placeholder values.
const (
	SynthMin = 18.0
	SynthMax = 30.0
)

// DefaultSeed keeps synthesized channels reproducible across reloads.
const DefaultSeed uint64 = 42

// Normalizer turns recognized grids into canonical datasets.
type Normalizer struct {
	loc  *time.Location
	seed uint64
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithSeed sets the seed of the placeholder generator.
func WithSeed(seed uint64) NormalizerOption {
	return func(n *Normalizer) {
		n.seed = seed
	}
}

// NewNormalizer creates a Normalizer resolving timestamps into loc (UTC when nil).
func NewNormalizer(loc *time.Location, opts ...NormalizerOption) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	n := &Normalizer{
		loc:  loc,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location is the reference zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Report summarizes one normalization pass. Per-row problems end up here
// instead of failing the dataset.
type Report struct {
	RowsIn      int
	RowsOut     int
	Dropped     []*TimestampParseError
	Coercions   []*ChannelCoercionError
	Synthesized []Channel
}

// Normalize converts every row of g according to m. Rows whose timestamp
// cannot be parsed are dropped; cells that are not numeric become missing
// values. The result is stable-sorted by timestamp.
func (n *Normalizer) Normalize(g Grid, m Mapping) (*Dataset, Report, error) {
	if m.HeaderAsData {
		g = g.headerAsRow()
	}
	report := Report{RowsIn: len(g.Rows)}

	channels := m.Layout.Channels()
	if len(channels) == 0 {
		return nil, report, fmt.Errorf("%w: %s", ErrUnknownLayout, m.Layout)
	}
	for _, ch := range channels {
		if m.Absent(ch) {
			report.Synthesized = append(report.Synthesized, ch)
		}
	}

	rng := rand.New(rand.NewPCG(n.seed, n.seed))
	strategy := m.Layout.Timezone()

	records := make([]Record, 0, len(g.Rows))
	for row := range g.Rows {
		text, typed, isTyped := timestampSource(g, m, row)

		ts, err := n.instant(text, typed, isTyped, strategy)
		if err != nil {
			report.Dropped = append(report.Dropped, &TimestampParseError{Row: row, Text: text})
			continue
		}
		ts = ts.Truncate(time.Second)

		rec := Record{
			Timestamp: ts,
			Channels:  make(map[Channel]Value, len(channels)),
		}
		for _, ch := range channels {
			if m.Absent(ch) {
				rec.Channels[ch] = Value{Value: synthesize(rng), Quality: QualitySynthesized}
				continue
			}
			c := g.cell(row, m.Columns[ch])
			v, ok := coerce(c)
			if !ok {
				report.Coercions = append(report.Coercions, &ChannelCoercionError{Row: row, Channel: ch, Text: c.Text})
				rec.Channels[ch] = Value{Quality: QualityMissing}
				continue
			}
			rec.Channels[ch] = Value{Value: v, Quality: QualityMeasured}
		}
		records = append(records, rec)
	}

	report.RowsOut = len(records)
	if len(records) == 0 {
		return nil, report, fmt.Errorf("%w: %d rows read, none with a usable timestamp", ErrNoParsableRows, len(g.Rows))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return &Dataset{
		Layout:   m.Layout,
		Channels: channels,
		Records:  records,
	}, report, nil
}

// timestampSource returns either the text to parse or an already typed time.
func timestampSource(g Grid, m Mapping, row int) (string, time.Time, bool) {
	switch m.Layout {
	case LayoutDualField:
		date := dateText(g.cell(row, m.Date))
		clock := clockText(g.cell(row, m.Clock))
		return strings.TrimSpace(date + " " + clock), time.Time{}, false
	case LayoutCombinedField, LayoutPositionalDepth:
		c := g.cell(row, m.Timestamp)
		if c.IsTime {
			return c.Text, c.Time, true
		}
		return strings.TrimSpace(c.Text), time.Time{}, false
	default:
		return "", time.Time{}, false
	}
}

// instant resolves one row's timestamp into the reference zone. Typed cells
// and text without an offset are wall clocks in the reference zone, so only
// text carrying its own offset is ever shifted, and only under TZConvert.
func (n *Normalizer) instant(text string, typed time.Time, isTyped bool, strategy TimezoneStrategy) (time.Time, error) {
	if isTyped {
		return wallClock(typed, n.loc), nil
	}
	t, err := parseTimestamp(text, strategy, n.loc)
	if err != nil {
		return time.Time{}, err
	}
	return Resolve(t, strategy, n.loc), nil
}

// Resolve brings a parsed timestamp into loc. TZLocalize keeps the wall clock
// and attaches loc; TZConvert keeps the instant.
func Resolve(t time.Time, strategy TimezoneStrategy, loc *time.Location) time.Time {
	switch strategy {
	case TZConvert:
		return t.In(loc)
	default:
		return wallClock(t, loc)
	}
}

func wallClock(t time.Time, loc *time.Location) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), loc)
}

// parseTimestamp reads s as an instant. Offsets are honored only under
// TZConvert; every other form is a wall clock in loc.
func parseTimestamp(s string, strategy TimezoneStrategy, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrTimestampParse
	}
	if strategy == TZConvert {
		for _, layout := range awareLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrTimestampParse
}

// dateText renders the date half of a dual-field row.
func dateText(c Cell) string {
	if c.IsTime {
		return c.Time.Format(dateLayout)
	}
	s := strings.TrimSpace(c.Text)
	// date columns exported as full datetimes carry a midnight suffix
	return strings.TrimSuffix(s, " 00:00:00")
}

// clockText renders the time-of-day half of a dual-field row.
func clockText(c Cell) string {
	if c.IsTime {
		return c.Time.Format(clockLayout)
	}
	return strings.TrimSpace(c.Text)
}

func coerce(c Cell) (float64, bool) {
	if c.IsNumber {
		return c.Number, finite(c.Number)
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(decimalText(s), 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// decimalText rewrites a locale-formatted number ("1.234,5", "1,234.5",
// "2,0") with '.' as the only separator. The last of ',' and '.' is the
// decimal point; a lone separator repeated is a thousands separator.
func decimalText(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", "")
	s = strings.ReplaceAll(s, " ", "")

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func synthesize(rng *rand.Rand) float64 {
	v := SynthMin + rng.Float64()*(SynthMax-SynthMin)
	return math.Round(v*100) / 100
}
