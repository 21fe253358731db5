package season

import "context"

// Repository describes season persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Season, error)
	GetByID(ctx context.Context, seasonID int64) (Season, bool, error)
	GetActive(ctx context.Context) (Season, bool, error)
	Create(ctx context.Context, s Season) (Season, error)
	// Activate marks seasonID active and closes any other active season in one step.
	Activate(ctx context.Context, seasonID int64) error
	UpdateStatus(ctx context.Context, seasonID int64, status Status) error
}
