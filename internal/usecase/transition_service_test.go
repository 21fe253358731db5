package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
)

func TestTransitionService_ApplySeasonEndTransitions_OncePerSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assignments := smallPyramid()
	env := newTestEnv(t, assignments, uniformHours(assignments, 2, 2))
	if _, err := env.aggregationSvc.RecalculateAggregates(ctx, testSeasonID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	first, err := env.transitionSvc.ApplySeasonEndTransitions(ctx, testSeasonID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	before := roleCounts(t, env)

	_, err = env.transitionSvc.ApplySeasonEndTransitions(ctx, testSeasonID)
	if !errors.Is(err, ErrConflict) || !errors.Is(err, transition.ErrAlreadyApplied) {
		t.Fatalf("second apply err got=%v want ErrConflict wrapping ErrAlreadyApplied", err)
	}
	after := roleCounts(t, env)
	for role, n := range before {
		if after[role] != n {
			t.Fatalf("role %s count changed on second apply: got=%d want=%d", role, after[role], n)
		}
	}

	record, ok, err := env.transitions.Get(ctx, testSeasonID)
	if err != nil || !ok {
		t.Fatalf("get record ok=%v err=%v", ok, err)
	}
	if len(record.Result.Promotions) != len(first.Promotions) || record.Result.Mode != first.Mode {
		t.Fatalf("stored record %+v does not match result %+v", record.Result, first)
	}
}
