package httpapi

import (
	"slices"
	"time"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

const (
	displayLayout = "02/01/2006 15:04:05"
	chartLayout   = "15:04:05"
)

// readingView is the wire form of one record.
type readingView struct {
	Timestamp   string                      `json:"timestamp"`
	DisplayTime string                      `json:"display_time"`
	ChartTime   string                      `json:"chart_time"`
	Values      map[sensor.Channel]*float64 `json:"values"`
	Synthesized []sensor.Channel            `json:"synthesized"`
}

// newReadingView renders every channel the record carries; a dataset gives
// all its records the same channel set.
func newReadingView(r sensor.Record) readingView {
	v := readingView{
		Timestamp:   r.Timestamp.Format(time.RFC3339),
		DisplayTime: r.Timestamp.Format(displayLayout),
		ChartTime:   r.Timestamp.Format(chartLayout),
		Values:      make(map[sensor.Channel]*float64, len(r.Channels)),
		Synthesized: []sensor.Channel{},
	}
	for ch, cv := range r.Channels {
		if !cv.Valid() {
			v.Values[ch] = nil
			continue
		}
		value := cv.Value
		v.Values[ch] = &value
		if cv.Quality == sensor.QualitySynthesized {
			v.Synthesized = append(v.Synthesized, ch)
		}
	}
	slices.Sort(v.Synthesized)
	return v
}

func newReadingViews(records []sensor.Record) []readingView {
	views := make([]readingView, 0, len(records))
	for _, r := range records {
		views = append(views, newReadingView(r))
	}
	return views
}

type statusView struct {
	Available   bool            `json:"available"`
	Timestamp   *string         `json:"timestamp"`
	DisplayTime *string         `json:"display_time"`
	Layout      sensor.LayoutID `json:"layout"`
	Humidity    float64         `json:"humidity"`
	Rainfall    float64         `json:"rainfall"`
}

// newStatusView renders st; a nil st means there is no data yet.
func newStatusView(st *sensor.Status, layout sensor.LayoutID) statusView {
	if st == nil {
		return statusView{Layout: layout}
	}
	ts := st.Timestamp.Format(time.RFC3339)
	display := st.Timestamp.Format(displayLayout)
	return statusView{
		Available:   true,
		Timestamp:   &ts,
		DisplayTime: &display,
		Layout:      st.Layout,
		Humidity:    st.Humidity,
		Rainfall:    st.Rainfall,
	}
}
