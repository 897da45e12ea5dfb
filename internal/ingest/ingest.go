// Package ingest produces the canonical in-memory dataset from one of the
// supported backends: CSV fixture files, a sqlite database or a Google
// spreadsheet. Sources load the four tables concurrently and return explicit
// empty tables for data a backend does not carry.
package ingest

import (
	"context"

	"finsight/internal/core"
)

// Source loads a complete dataset. Implementations are read-only and safe
// to call once per session; callers hand the result to the aggregation
// engine, which takes its own defensive copy.
type Source interface {
	Load(ctx context.Context) (core.Dataset, error)
}
