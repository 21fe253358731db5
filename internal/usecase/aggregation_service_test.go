package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
)

func seasonRows(t *testing.T, env *testEnv) map[int64]aggregate.Season {
	t.Helper()
	rows, err := env.aggregates.ListBySeason(context.Background(), testSeasonID)
	if err != nil {
		t.Fatalf("list aggregates: %v", err)
	}
	out := make(map[int64]aggregate.Season, len(rows))
	for _, row := range rows {
		out[row.ParticipantID] = row
	}
	return out
}

func TestAggregationService_RecalculateAggregates_RollsUpPyramid(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	env := newTestEnv(t, assignments, uniformHours(assignments, 2, 2, 3))

	got, err := env.aggregationSvc.RecalculateAggregates(context.Background(), testSeasonID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if got.DailyRows != 30 || got.SeasonRows != 15 || got.RankedRows != 15 {
		t.Fatalf("unexpected result: %+v", got)
	}

	rows := seasonRows(t, env)
	cases := []struct {
		id                            int64
		personal, team, total, target float64
	}{
		{id: 1, personal: 4, team: 56, total: 60, target: 1200},
		{id: 2, personal: 4, team: 24, total: 28, target: 560},
		{id: 4, personal: 4, team: 8, total: 12, target: 240},
		{id: 8, personal: 4, team: 0, total: 4, target: 80},
	}
	for _, tc := range cases {
		row := rows[tc.id]
		if row.PersonalTotal != tc.personal || row.TeamTotal != tc.team || row.Total != tc.total || row.Target != tc.target {
			t.Fatalf("participant %d got=%+v want personal=%v team=%v total=%v target=%v",
				tc.id, row, tc.personal, tc.team, tc.total, tc.target)
		}
	}
	if rows[1].TargetPercent != 5 {
		t.Fatalf("leader target percent got=%v want=5", rows[1].TargetPercent)
	}
}

func TestAggregationService_RecalculateAggregates_WritesRanks(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	records := uniformHours(assignments, 2, 2)
	records = append(records,
		hours.Record{ParticipantID: 9, WorkDate: testDay(4), Hours: 6},
		hours.Record{ParticipantID: 3, WorkDate: testDay(4), Hours: 10},
	)
	env := newTestEnv(t, assignments, records)

	if _, err := env.aggregationSvc.RecalculateAggregates(context.Background(), testSeasonID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	rows := seasonRows(t, env)
	if rows[1].CaptainRank != nil || rows[1].RankInGroup != nil {
		t.Fatalf("leader must not be ranked: %+v", rows[1])
	}
	if rank := rows[3].CaptainRank; rank == nil || *rank != 1 {
		t.Fatalf("captain 3 rank got=%v want=1", rank)
	}
	if rank := rows[2].CaptainRank; rank == nil || *rank != 2 {
		t.Fatalf("captain 2 rank got=%v want=2", rank)
	}
	if rank := rows[9].RankInGroup; rank == nil || *rank != 1 {
		t.Fatalf("member 9 group rank got=%v want=1", rank)
	}
	if rank := rows[8].RankInGroup; rank == nil || *rank != 2 {
		t.Fatalf("member 8 group rank got=%v want=2", rank)
	}
	if rank := rows[4].RankInGroup; rank == nil || *rank != 1 {
		t.Fatalf("subcaptain 4 group rank got=%v want=1", rank)
	}
}

func TestAggregationService_RecalculateAggregates_Idempotent(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	env := newTestEnv(t, assignments, uniformHours(assignments, 3.25, 1, 5, 10))
	ctx := context.Background()

	if _, err := env.aggregationSvc.RecalculateAggregates(ctx, testSeasonID); err != nil {
		t.Fatalf("first recalculate: %v", err)
	}
	first := seasonRows(t, env)
	if _, err := env.aggregationSvc.RecalculateAggregates(ctx, testSeasonID); err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	second := seasonRows(t, env)

	for id, row := range first {
		again := second[id]
		if row.Total != again.Total || row.TargetPercent != again.TargetPercent || row.ID != again.ID {
			t.Fatalf("participant %d changed between runs: %+v vs %+v", id, row, again)
		}
	}
}

func TestAggregationService_RecalculateAggregates_PrunesUnassignedRows(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	env := newTestEnv(t, assignments, uniformHours(assignments, 2, 2))
	ctx := context.Background()

	stale := aggregate.Season{ParticipantID: 99, SeasonID: testSeasonID, Role: hierarchy.RoleMember, Total: 500}
	if err := env.aggregates.UpsertSeason(ctx, []aggregate.Season{stale}); err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	got, err := env.aggregationSvc.RecalculateAggregates(ctx, testSeasonID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if got.PrunedRows != 1 {
		t.Fatalf("pruned rows got=%d want=1", got.PrunedRows)
	}

	rows := seasonRows(t, env)
	if _, ok := rows[99]; ok {
		t.Fatalf("unassigned participant still has a season row")
	}
	if len(rows) != len(assignments) {
		t.Fatalf("row count got=%d want=%d", len(rows), len(assignments))
	}

	top, err := env.hierarchySvc.TopMembers(ctx, testSeasonID, 3)
	if err != nil {
		t.Fatalf("top members: %v", err)
	}
	for _, e := range top {
		if e.ParticipantID == 99 {
			t.Fatalf("unassigned participant listed on the leaderboard: %+v", e)
		}
	}
}

func TestAggregationService_RecalculateAggregates_ConcurrentTriggersSerialize(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	env := newTestEnv(t, assignments, uniformHours(assignments, 1, 2, 3, 4))

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.aggregationSvc.RecalculateAggregates(context.Background(), testSeasonID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("recalculate: %v", err)
		}
	}

	if got := seasonRows(t, env)[1].Total; got != 45 {
		t.Fatalf("leader total got=%v want=45", got)
	}
}

func TestAggregationService_RecalculateAggregates_UnknownSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, smallPyramid(), nil)

	_, err := env.aggregationSvc.RecalculateAggregates(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	entries, _ := env.audits.List(context.Background(), 10)
	if len(entries) != 0 {
		t.Fatalf("unexpected audit entries: %d", len(entries))
	}
}

func TestAggregationService_RecalculateAggregates_NoAssignmentsIsNoop(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	got, err := env.aggregationSvc.RecalculateAggregates(context.Background(), testSeasonID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if got.SeasonRows != 0 || got.DailyRows != 0 {
		t.Fatalf("unexpected rows written: %+v", got)
	}

	entries, _ := env.audits.List(context.Background(), 10)
	if len(entries) != 1 || entries[0].Action != audit.ActionAggregatesRecalc {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}
