package hours

import (
	"context"
	"time"
)

type ImportStatus string

const (
	ImportProcessed ImportStatus = "processed"
	ImportFailed    ImportStatus = "failed"
)

// Import is the history row of one uploaded batch, kept for failed batches too.
type Import struct {
	ID         int64
	FileName   string
	UploadedBy *int64
	RowsCount  int
	Written    int
	Status     ImportStatus
	Errors     []string
	UploadedAt time.Time
}

type ImportRepository interface {
	CreateImport(ctx context.Context, item Import) (Import, error)
	// ListImports returns the newest uploads first. A non-positive limit returns all.
	ListImports(ctx context.Context, limit int) ([]Import, error)
}
