package ports

import (
	"context"

	"featprep/domain/table"
)

// TableSource yields a raw, typed table for one pipeline run. Implementations
// infer column kinds from content and keep source row order.
type TableSource interface {
	Load(ctx context.Context) (*table.Table, error)
}

// TableSink persists the final feature table
type TableSink interface {
	Save(ctx context.Context, tbl *table.Table) error
}
