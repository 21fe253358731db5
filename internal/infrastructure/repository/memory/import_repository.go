package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
)

type ImportRepository struct {
	mu     sync.RWMutex
	items  []hours.Import
	nextID int64
}

func NewImportRepository() *ImportRepository {
	return &ImportRepository{}
}

func (r *ImportRepository) CreateImport(_ context.Context, item hours.Import) (hours.Import, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	if item.UploadedAt.IsZero() {
		item.UploadedAt = time.Now().UTC()
	}
	item.Errors = append([]string(nil), item.Errors...)
	r.items = append(r.items, item)
	return item, nil
}

func (r *ImportRepository) ListImports(_ context.Context, limit int) ([]hours.Import, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.items)
	if limit > 0 {
		n = min(limit, n)
	}
	out := make([]hours.Import, 0, n)
	for i := len(r.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.items[i])
	}
	return out, nil
}
