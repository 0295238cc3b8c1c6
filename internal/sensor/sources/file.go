package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

// FileConfig describes a spreadsheet export on disk.
type FileConfig struct {
	Path string
	// Sheet selects the workbook sheet; empty means the first one.
	Sheet string
	// Header promotes the first row to the header row.
	Header  bool
	Backoff BackoffConfig
}

// FileSource implements sensor.GridSource for xlsx and csv exports.
type FileSource struct {
	name    string
	cfg     FileConfig
	circuit *gobreaker.CircuitBreaker
}

// NewFileSource creates a source for cfg.Path. A zero Backoff uses DefaultBackoff.
func NewFileSource(cfg FileConfig) *FileSource {
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}
	name := "file:" + filepath.Base(cfg.Path)
	return &FileSource{
		name:    name,
		cfg:     cfg,
		circuit: newBreaker(name),
	}
}

func (s *FileSource) Name() string {
	return s.name
}

func (s *FileSource) Fetch(ctx context.Context) (sensor.Grid, error) {
	decode, err := s.decoder()
	if err != nil {
		return sensor.Grid{}, err
	}

	return fetchWithResilience(ctx, s.cfg.Backoff, s.circuit, func() (sensor.Grid, error) {
		f, err := os.Open(s.cfg.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return sensor.Grid{}, fmt.Errorf("%w: %s", sensor.ErrSourceNotFound, s.cfg.Path)
			}
			return sensor.Grid{}, err
		}
		defer f.Close()

		return decode(f)
	})
}

func (s *FileSource) decoder() (func(io.Reader) (sensor.Grid, error), error) {
	switch strings.ToLower(filepath.Ext(s.cfg.Path)) {
	case ".xlsx", ".xlsm":
		return func(r io.Reader) (sensor.Grid, error) {
			return DecodeXLSX(r, s.cfg.Sheet, s.cfg.Header)
		}, nil
	case ".csv", ".txt":
		return func(r io.Reader) (sensor.Grid, error) {
			return DecodeCSV(r, s.cfg.Header)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedExt, filepath.Ext(s.cfg.Path))
	}
}
