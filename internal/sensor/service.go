package sensor

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindow is how many trailing records WindowedQuery returns when no month is given.
const DefaultWindow = 30

// Service answers dashboard queries over the cached dataset and owns the
// rotating cursor that replays the dataset as a live feed.
type Service struct {
	datasets Datasets
	window   int

	mu         sync.Mutex
	cursor     int
	generation uint64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithWindow overrides DefaultWindow.
func WithWindow(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

// NewService creates a new Service.
func NewService(datasets Datasets, opts ...ServiceOption) *Service {
	s := &Service{
		datasets: datasets,
		window:   DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dataset returns the dataset queries currently run against.
func (s *Service) Dataset() *Dataset {
	ds := s.datasets.Current()
	if ds == nil {
		return EmptyDataset()
	}
	return ds
}

// ParseMonth validates a YYYY-MM key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

// Snapshot pins the current dataset so several queries answer from the same
// data, even if the cache reloads in between.
func (s *Service) Snapshot() Snapshot {
	return Snapshot{Dataset: s.Dataset(), window: s.window}
}

// WindowedQuery returns the records of one month (YYYY-MM) in ascending
// order, or the trailing window when month is empty.
func (s *Service) WindowedQuery(month string) ([]Record, error) {
	return s.Snapshot().WindowedQuery(month)
}

// AvailableMonths lists the distinct YYYY-MM keys present, most recent first.
func (s *Service) AvailableMonths() []string {
	return s.Snapshot().AvailableMonths()
}

// LatestStatus reduces the most recent record to the status channels.
func (s *Service) LatestStatus() (Status, error) {
	return s.Snapshot().LatestStatus()
}

// Summary aggregates the same window WindowedQuery would return.
func (s *Service) Summary(month string) ([]ChannelSummary, error) {
	return s.Snapshot().Summary(month)
}

// Snapshot answers queries against one dataset. Returned records are copies;
// the published dataset stays untouched.
type Snapshot struct {
	*Dataset
	window int
}

func (sn Snapshot) WindowedQuery(month string) ([]Record, error) {
	if month == "" {
		start := len(sn.Records) - sn.window
		if start < 0 {
			start = 0
		}
		return cloneRecords(sn.Records[start:], nil), nil
	}

	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}

	return cloneRecords(sn.Records, func(r Record) bool {
		return r.Month() == month
	}), nil
}

func (sn Snapshot) AvailableMonths() []string {
	seen := make(map[string]struct{})
	months := []string{}
	for _, r := range sn.Records {
		m := r.Month()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// NextRotating returns the record under the cursor and advances it, wrapping
// at the end of the dataset. Concurrent callers receive consecutive offsets.
func (s *Service) NextRotating() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.Dataset()
	if ds.Generation != s.generation {
		s.cursor = 0
		s.generation = ds.Generation
	}

	n := ds.Len()
	if n == 0 {
		s.cursor = 0
		return Record{}, ErrNoData
	}
	// an on-demand reparse may return fewer rows under the same generation
	if s.cursor >= n {
		s.cursor = 0
	}

	rec := ds.Records[s.cursor].clone()
	s.cursor = (s.cursor + 1) % n
	return rec, nil
}

// LatestStatus reduces the most recent record to the status channels.
// Depth sheets report depth_1 as humidity, and layouts without rainfall
// report a fixed zero, so the status shape stays the same for every layout.
func (sn Snapshot) LatestStatus() (Status, error) {
	if sn.Len() == 0 {
		return Status{}, ErrNoData
	}

	last := sn.Records[len(sn.Records)-1]
	st := Status{
		Timestamp: last.Timestamp,
		Layout:    sn.Layout,
	}

	switch sn.Layout {
	case LayoutPositionalDepth:
		st.Humidity, _ = last.Get(ChannelDepth1)
	case LayoutDualField, LayoutCombinedField:
		st.Humidity, _ = last.Get(ChannelHumidity)
	}
	st.Rainfall, _ = last.Get(ChannelRainfall)

	return st, nil
}

func (sn Snapshot) Summary(month string) ([]ChannelSummary, error) {
	records, err := sn.WindowedQuery(month)
	if err != nil {
		return nil, err
	}
	return Summarize(sn.Channels, records), nil
}

// cloneRecords copies the records keep accepts (all when keep is nil).
func cloneRecords(records []Record, keep func(Record) bool) []Record {
	out := []Record{}
	for _, r := range records {
		if keep == nil || keep(r) {
			out = append(out, r.clone())
		}
	}
	return out
}
