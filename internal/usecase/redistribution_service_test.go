package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

func TestRedistributionService_RedistributeGroups_Balances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assignments := smallPyramid()
	// Pile every member under subcaptain 4.
	for i := range assignments {
		if assignments[i].Role == hierarchy.RoleMember {
			sub := int64(4)
			assignments[i].ParentSubcaptainID = &sub
		}
	}
	env := newTestEnv(t, assignments, nil)
	env.redistribution.WithRandom(func() hierarchy.RandomSource {
		return rand.New(rand.NewPCG(7, 11))
	})

	got, err := env.redistribution.RedistributeGroups(ctx, testSeasonID)
	if err != nil {
		t.Fatalf("redistribute: %v", err)
	}
	if got.Moved == 0 {
		t.Fatalf("expected moves, got %+v", got)
	}

	after, _ := env.assignments.ListBySeason(ctx, testSeasonID)
	tree := hierarchy.BuildTree(after)
	for _, c := range tree.Captains() {
		if n := len(tree.SubcaptainsOf(c.ParticipantID)); n != 2 {
			t.Fatalf("captain %d subcaptains got=%d want=2", c.ParticipantID, n)
		}
	}
	for _, sub := range tree.Subcaptains() {
		if n := len(tree.MembersOf(sub.ParticipantID)); n != 2 {
			t.Fatalf("subcaptain %d members got=%d want=2", sub.ParticipantID, n)
		}
	}
	if len(tree.Orphans()) != 0 {
		t.Fatalf("unexpected orphans: %+v", tree.Orphans())
	}
}

func TestRedistributionService_RedistributeGroups_UnknownSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, smallPyramid(), nil)
	if _, err := env.redistribution.RedistributeGroups(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err got=%v want=%v", err, ErrNotFound)
	}
}
