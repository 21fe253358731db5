package aggregate

import "context"

// Repository describes aggregate persistence needs from use cases.
type Repository interface {
	// UpsertDaily replaces rows by (participant, season, date).
	UpsertDaily(ctx context.Context, rows []Daily) error
	// UpsertSeason replaces rows by (participant, season) without touching rank columns.
	UpsertSeason(ctx context.Context, rows []Season) error
	ListBySeason(ctx context.Context, seasonID int64) ([]Season, error)
	UpdateRanks(ctx context.Context, seasonID int64, updates []RankUpdate) error
	// Prune deletes daily and season rows of participants outside keep and reports how many
	// season rows went away.
	Prune(ctx context.Context, seasonID int64, keep []int64) (int, error)
}
