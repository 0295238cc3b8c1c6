package sensor

import (
	"context"
)

// GridSource abstracts the spreadsheet decoder (xlsx export, csv export, ...).
// It is the only place file I/O happens.
type GridSource interface {
	Name() string
	Fetch(ctx context.Context) (Grid, error)
}

// Datasets is the contract the dataset cache must satisfy for the query engine.
// Current never returns nil and never fails; a failed ingestion is an empty dataset.
type Datasets interface {
	Current() *Dataset
}
