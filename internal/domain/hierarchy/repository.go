package hierarchy

import "context"

// Repository describes assignment persistence needs from use cases.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID int64) ([]Assignment, error)
	Update(ctx context.Context, assignmentID int64, patch Patch) error
	ApplyChanges(ctx context.Context, seasonID int64, changes []Change) error
}
