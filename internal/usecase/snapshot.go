package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/sourcegraph/conc/pool"
)

// snapshot is everything one engine pass reads. It is loaded once and
// never re-read mid-pass.
type snapshot struct {
	Season      season.Season
	Assignments []hierarchy.Assignment
	Records     []hours.Record
	Aggregates  []aggregate.Season
}

type snapshotParts struct {
	hours      bool
	aggregates bool
}

type snapshotLoader struct {
	seasons     season.Repository
	assignments hierarchy.Repository
	hours       hours.Repository
	aggregates  aggregate.Repository
}

func (l snapshotLoader) load(ctx context.Context, seasonID int64, parts snapshotParts) (snapshot, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.loadSnapshot", seasonID)
	defer span.End()

	s, err := l.season(ctx, seasonID)
	if err != nil {
		return snapshot{}, err
	}

	out := snapshot{Season: s}
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		items, err := l.assignments.ListBySeason(ctx, seasonID)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		out.Assignments = items
		return nil
	})
	if parts.hours {
		p.Go(func(ctx context.Context) error {
			items, err := l.hours.ListInRange(ctx, s.StartDate, s.EndDate)
			if err != nil {
				return fmt.Errorf("list hours: %w", err)
			}
			out.Records = items
			return nil
		})
	}
	if parts.aggregates {
		p.Go(func(ctx context.Context) error {
			items, err := l.aggregates.ListBySeason(ctx, seasonID)
			if err != nil {
				return fmt.Errorf("list season aggregates: %w", err)
			}
			out.Aggregates = items
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return snapshot{}, err
	}

	return out, nil
}

func (l snapshotLoader) season(ctx context.Context, seasonID int64) (season.Season, error) {
	return lookupSeason(ctx, l.seasons, seasonID)
}

func seasonLockKey(seasonID int64) string {
	return "season:" + strconv.FormatInt(seasonID, 10)
}
