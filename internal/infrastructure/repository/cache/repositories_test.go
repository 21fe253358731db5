package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/pyramid-league/internal/platform/cache"
)

type countingSeasonRepo struct {
	season.Repository
	gets atomic.Int32
}

func (r *countingSeasonRepo) GetActive(ctx context.Context) (season.Season, bool, error) {
	r.gets.Add(1)
	return r.Repository.GetActive(ctx)
}

type countingParticipantRepo struct {
	participant.Repository
	lists   atomic.Int32
	lastIDs []int64
}

func (r *countingParticipantRepo) ListByIDs(ctx context.Context, ids []int64) ([]participant.Participant, error) {
	r.lists.Add(1)
	r.lastIDs = append([]int64(nil), ids...)
	return r.Repository.ListByIDs(ctx, ids)
}

func TestSeasonRepository_ActivateInvalidatesActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inner := &countingSeasonRepo{Repository: memory.NewSeasonRepository([]season.Season{
		{ID: 1, Name: "march", StartDate: start, EndDate: start.AddDate(0, 0, 30), Status: season.StatusActive},
		{ID: 2, Name: "april", StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 1, 29), Status: season.StatusPlanned},
	})}
	repo := NewSeasonRepository(inner, basecache.NewStore(time.Minute))

	for range 3 {
		got, ok, err := repo.GetActive(ctx)
		if err != nil || !ok || got.ID != 1 {
			t.Fatalf("unexpected active season: got=%+v ok=%v err=%v", got, ok, err)
		}
	}
	if got := inner.gets.Load(); got != 1 {
		t.Fatalf("expected one backing read, got %d", got)
	}

	if err := repo.Activate(ctx, 2); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, ok, err := repo.GetActive(ctx)
	if err != nil || !ok || got.ID != 2 {
		t.Fatalf("expected season 2 active after activation: got=%+v ok=%v err=%v", got, ok, err)
	}
	if got := inner.gets.Load(); got != 2 {
		t.Fatalf("expected a fresh backing read after activation, got %d", got)
	}
}

func TestParticipantRepository_ListByIDsFetchesOnlyMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := &countingParticipantRepo{Repository: memory.NewParticipantRepository([]participant.Participant{
		{ID: 1, Phone: "+628100000001", FullName: "Ayu"},
		{ID: 2, Phone: "+628100000002", FullName: "Budi"},
		{ID: 3, Phone: "+628100000003", FullName: "Citra"},
	})}
	repo := NewParticipantRepository(inner, basecache.NewStore(time.Minute))

	if _, _, err := repo.GetByID(ctx, 2); err != nil {
		t.Fatalf("get by id: %v", err)
	}

	got, err := repo.ListByIDs(ctx, []int64{3, 2, 99, 3, 1})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(got) != 3 || got[0].ID != 3 || got[1].ID != 2 || got[2].ID != 1 {
		t.Fatalf("unexpected participants: %+v", got)
	}
	if len(inner.lastIDs) != 3 || inner.lastIDs[0] != 3 || inner.lastIDs[1] != 99 || inner.lastIDs[2] != 1 {
		t.Fatalf("expected only cache misses to be fetched, got %v", inner.lastIDs)
	}

	if _, err := repo.ListByIDs(ctx, []int64{1, 2, 3}); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if got := inner.lists.Load(); got != 1 {
		t.Fatalf("expected warm cache to skip backing store, got %d calls", got)
	}
}
