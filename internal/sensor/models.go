package sensor

import (
	"maps"
	"time"
)

// Channel names a measured (or synthesized) quantity carried by a record.
type Channel string

const (
	ChannelHumidity    Channel = "humidity"
	ChannelTemperature Channel = "temperature"
	ChannelRainfall    Channel = "rainfall"
	ChannelDepth1      Channel = "depth_1"
	ChannelDepth2      Channel = "depth_2"
	ChannelDepth3      Channel = "depth_3"
	ChannelDepth4      Channel = "depth_4"
	ChannelDepth5      Channel = "depth_5"
)

// Quality is the provenance flag of a single channel value.
type Quality string

const (
	QualityMeasured    Quality = "measured"    // read from the sheet
	QualityMissing     Quality = "missing"     // cell empty or not numeric
	QualitySynthesized Quality = "synthesized" // placeholder, channel absent from the layout
)

// Value is one channel reading on one record.
type Value struct {
	Value   float64 `json:"value"`
	Quality Quality `json:"quality"`
}

// Valid reports whether the value carries a number.
func (v Value) Valid() bool {
	return v.Quality != QualityMissing
}

// Record is a canonical reading: a timestamp in the reference zone plus one
// value per channel of the dataset's layout.
type Record struct {
	Timestamp time.Time         `json:"timestamp"`
	Channels  map[Channel]Value `json:"channels"`
}

// Get returns the numeric value of a channel and whether it is usable.
func (r Record) Get(ch Channel) (float64, bool) {
	v, ok := r.Channels[ch]
	if !ok || !v.Valid() {
		return 0, false
	}
	return v.Value, true
}

func (r Record) clone() Record {
	r.Channels = maps.Clone(r.Channels)
	return r
}

// Month returns the record's year-month key (YYYY-MM).
func (r Record) Month() string {
	return r.Timestamp.Format(monthLayout)
}

// Dataset is the normalized, time-ordered result of one ingestion pass.
// Once published it is never mutated.
type Dataset struct {
	Layout   LayoutID  `json:"layout"`
	Channels []Channel `json:"channels"`
	Records  []Record  `json:"-"`

	// Generation changes only when the cache is invalidated, so the rotating
	// cursor can tell a reload from an on-demand reparse of the same source.
	Generation uint64    `json:"generation"`
	LoadID     string    `json:"loadId"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// EmptyDataset is what queries see after a failed ingestion.
func EmptyDataset() *Dataset {
	return &Dataset{
		Layout:   LayoutUnknown,
		Channels: LayoutDualField.Channels(),
	}
}

// Len is nil-safe.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasChannel reports whether the dataset declares ch.
func (d *Dataset) HasChannel(ch Channel) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Status is the at-a-glance view of the latest record.
type Status struct {
	Timestamp time.Time `json:"timestamp"`
	Layout    LayoutID  `json:"layout"`
	Humidity  float64   `json:"humidity"`
	Rainfall  float64   `json:"rainfall"`
}

// ChannelSummary describes one channel over a window of records.
type ChannelSummary struct {
	Channel     Channel `json:"channel"`
	Count       int     `json:"count"`
	Missing     int     `json:"missing"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	Synthesized bool    `json:"synthesized"`
}
