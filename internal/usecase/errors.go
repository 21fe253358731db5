package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

// Handlers map these sentinels to HTTP statuses; wrap them, never replace them.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// lookupSeason resolves a season id from a request, rejecting non-positive ids
// before touching storage.
func lookupSeason(ctx context.Context, seasons season.Repository, seasonID int64) (season.Season, error) {
	if seasonID <= 0 {
		return season.Season{}, invalidInputf("season id must be positive")
	}
	item, exists, err := seasons.GetByID(ctx, seasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, notFoundf("season=%d", seasonID)
	}
	return item, nil
}
