package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

// DefaultLoadTimeout bounds a lazy load triggered by Current.
const DefaultLoadTimeout = 30 * time.Second

// Diagnostic describes the most recent ingestion attempt.
type Diagnostic struct {
	LoadID      string           `json:"loadId"`
	Source      string           `json:"source"`
	Layout      sensor.LayoutID  `json:"layout"`
	Generation  uint64           `json:"generation"`
	RowsIn      int              `json:"rowsIn"`
	RowsOut     int              `json:"rowsOut"`
	Dropped     int              `json:"dropped"`
	Coerced     int              `json:"coerced"`
	Synthesized []sensor.Channel `json:"synthesized,omitempty"`
	Header      []string         `json:"header,omitempty"`
	FirstRow    []string         `json:"firstRow,omitempty"`
	Error       string           `json:"error,omitempty"`
	At          time.Time        `json:"at"`
}

// DatasetCache holds the normalized dataset in memory. It loads at most once
// until invalidated and turns every ingestion failure into an empty dataset.
type DatasetCache struct {
	source     sensor.GridSource
	normalizer *sensor.Normalizer
	logger     zerolog.Logger
	enabled    bool
	timeout    time.Duration

	mu         sync.Mutex // serializes loads
	generation uint64     // guarded by mu

	current atomic.Pointer[sensor.Dataset]
	diag    atomic.Pointer[Diagnostic]
}

// CacheOption configures a DatasetCache.
type CacheOption func(*DatasetCache)

// WithCaching turns load-once caching on or off. When off, every Current
// call re-reads and re-normalizes the source.
func WithCaching(enabled bool) CacheOption {
	return func(c *DatasetCache) {
		c.enabled = enabled
	}
}

// WithLoadTimeout bounds lazy loads.
func WithLoadTimeout(d time.Duration) CacheOption {
	return func(c *DatasetCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) CacheOption {
	return func(c *DatasetCache) {
		c.logger = l
	}
}

// NewDatasetCache creates a cache over source. Nothing is read until the
// first Load or Current call.
func NewDatasetCache(source sensor.GridSource, normalizer *sensor.Normalizer, opts ...CacheOption) *DatasetCache {
	c := &DatasetCache{
		source:     source,
		normalizer: normalizer,
		logger:     zerolog.Nop(),
		enabled:    true,
		timeout:    DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.diag.Store(&Diagnostic{Source: source.Name()})
	return c
}

// Current returns the cached dataset, loading it first if needed. It never
// returns nil.
func (c *DatasetCache) Current() *sensor.Dataset {
	if c.enabled {
		if ds := c.current.Load(); ds != nil {
			return ds
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.Load(ctx)
}

// Load ingests the source unless a valid dataset is already cached.
func (c *DatasetCache) Load(ctx context.Context) *sensor.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		if ds := c.current.Load(); ds != nil {
			return ds
		}
	}

	ds := c.build(ctx)
	c.current.Store(ds)
	return ds
}

// Invalidate drops the cached dataset; the next Current call reloads.
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.current.Store(nil)
	c.logger.Info().Uint64("generation", c.generation).Msg("dataset invalidated")
}

// Reload re-ingests the source now. Readers keep seeing the previous dataset
// until the new one is swapped in.
func (c *DatasetCache) Reload(ctx context.Context) *sensor.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	ds := c.build(ctx)
	c.current.Store(ds)
	return ds
}

// Diagnostics returns the record of the latest ingestion attempt. It never
// waits for a load in progress.
func (c *DatasetCache) Diagnostics() Diagnostic {
	return *c.diag.Load()
}

// build runs recognition and normalization. Must be called with mu held.
func (c *DatasetCache) build(ctx context.Context) *sensor.Dataset {
	start := time.Now()
	diag := Diagnostic{
		LoadID:     uuid.NewString(),
		Source:     c.source.Name(),
		Generation: c.generation,
		At:         start,
	}
	log := c.logger.With().Str("load_id", diag.LoadID).Str("source", diag.Source).Logger()

	ds, err := c.ingest(ctx, log, &diag)
	if err != nil {
		diag.Error = err.Error()
		log.Error().
			Err(err).
			Strs("header", diag.Header).
			Strs("first_row", diag.FirstRow).
			Int("rows_in", diag.RowsIn).
			Msg("ingestion failed; serving empty dataset")
		ds = sensor.EmptyDataset()
	} else {
		log.Info().
			Stringer("layout", ds.Layout).
			Int("rows_in", diag.RowsIn).
			Int("rows_out", diag.RowsOut).
			Int("dropped", diag.Dropped).
			Int("coerced", diag.Coerced).
			Dur("took", time.Since(start)).
			Msg("dataset loaded")
	}

	ds.Generation = c.generation
	ds.LoadID = diag.LoadID
	ds.LoadedAt = start
	diag.Layout = ds.Layout
	c.diag.Store(&diag)
	return ds
}

func (c *DatasetCache) ingest(ctx context.Context, log zerolog.Logger, diag *Diagnostic) (ds *sensor.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("ingestion panic: %v", r)
		}
	}()

	grid, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.source.Name(), err)
	}
	diag.Header = grid.Header
	diag.FirstRow = grid.RowText(0)
	diag.RowsIn = len(grid.Rows)

	m, err := sensor.Recognize(grid)
	if err != nil {
		return nil, err
	}
	log.Debug().Stringer("layout", m.Layout).Msg("layout recognized")

	ds, report, err := c.normalizer.Normalize(grid, m)
	diag.RowsIn = report.RowsIn
	diag.RowsOut = report.RowsOut
	diag.Dropped = len(report.Dropped)
	diag.Coerced = len(report.Coercions)
	diag.Synthesized = report.Synthesized

	for _, d := range report.Dropped {
		log.Debug().Err(d).Msg("row dropped")
	}
	for _, ce := range report.Coercions {
		log.Debug().Err(ce).Msg("cell marked missing")
	}
	if err != nil {
		return nil, err
	}

	if len(report.Synthesized) > 0 {
		log.Warn().Interface("channels", report.Synthesized).Msg("channels absent from the sheet are synthesized")
	}
	return ds, nil
}
