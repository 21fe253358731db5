package transition

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

var ErrAlreadyApplied = errors.New("season end transitions already applied")

// Record is the stored outcome of the one season-end pass a season gets.
type Record struct {
	SeasonID  int64
	Result    Result
	AppliedAt time.Time
}

// Repository stores role changes together with the record of the pass that produced them.
type Repository interface {
	// Apply writes changes and the record in one step. A season that already has a record
	// is left untouched and ErrAlreadyApplied is returned.
	Apply(ctx context.Context, record Record, changes []hierarchy.Change) error
	Get(ctx context.Context, seasonID int64) (Record, bool, error)
}
