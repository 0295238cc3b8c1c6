package sensor

import (
	"errors"
	"fmt"
)

var (
	// Recognition failures.
	ErrUnknownLayout       = errors.New("unknown spreadsheet layout")
	ErrColumnCountMismatch = errors.New("column count mismatch")

	// Normalization failures. Only ErrNoParsableRows is fatal for a dataset.
	ErrTimestampParse  = errors.New("timestamp parse failure")
	ErrChannelCoercion = errors.New("channel coercion failure")
	ErrNoParsableRows  = errors.New("no parsable rows")

	// ErrSourceNotFound is returned by grid sources when the export is missing.
	ErrSourceNotFound = errors.New("sensor source not found")

	// Query outcomes.
	ErrNoData       = errors.New("no sensor data loaded")
	ErrInvalidMonth = errors.New("invalid month; use YYYY-MM")
)

// TimestampParseError reports a row dropped because its timestamp could not be parsed.
type TimestampParseError struct {
	Row  int
	Text string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("row %d: %v: %q", e.Row, ErrTimestampParse, e.Text)
}

func (e *TimestampParseError) Unwrap() error { return ErrTimestampParse }

// ChannelCoercionError reports a cell that could not be read as a number.
type ChannelCoercionError struct {
	Row     int
	Channel Channel
	Text    string
}

func (e *ChannelCoercionError) Error() string {
	return fmt.Sprintf("row %d channel %s: %v: %q", e.Row, e.Channel, ErrChannelCoercion, e.Text)
}

func (e *ChannelCoercionError) Unwrap() error { return ErrChannelCoercion }
