package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
)

type AuditRepository struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Insert(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.Payload = append([]byte(nil), entry.Payload...)
	r.entries = append(r.entries, entry)
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(_ context.Context, limit int) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]audit.Entry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
