package transition_test

import (
	"errors"
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy/hierarchytest"
	"github.com/riskibarqy/pyramid-league/internal/domain/ranking"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
)

// rankedAggregates gives every participant total = participant id, so higher ids rank ahead,
// and fills rank columns the way the ranking pass would.
func rankedAggregates(assignments []hierarchy.Assignment) []aggregate.Season {
	rows := make([]aggregate.Season, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, aggregate.Season{
			ParticipantID: a.ParticipantID,
			SeasonID:      a.SeasonID,
			Role:          a.Role,
			Total:         float64(a.ParticipantID),
			PersonalTotal: float64(a.ParticipantID),
		})
	}

	updates := ranking.Assign(assignments, rows)
	byParticipant := make(map[int64]aggregate.RankUpdate, len(updates))
	for _, u := range updates {
		byParticipant[u.ParticipantID] = u
	}
	for i := range rows {
		u := byParticipant[rows[i].ParticipantID]
		rows[i].RankInGroup = u.RankInGroup
		rows[i].CaptainRank = u.CaptainRank
	}
	return rows
}

func TestPlan_BootstrapCapsPyramid(t *testing.T) {
	t.Parallel()

	assignments := hierarchytest.Members(1, 1500)
	result, changes, err := transition.Plan(assignments, rankedAggregates(assignments), transition.DefaultPolicy())
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if result.Mode != transition.ModeBootstrap {
		t.Fatalf("unexpected mode: got=%s want=%s", result.Mode, transition.ModeBootstrap)
	}

	got := hierarchytest.CountRoles(hierarchy.ApplyChanges(assignments, changes))
	want := map[hierarchy.Role]int{
		hierarchy.RoleLeader:     1,
		hierarchy.RoleCaptain:    10,
		hierarchy.RoleSubcaptain: 100,
		hierarchy.RoleMember:     1389,
	}
	for role, n := range want {
		if got[role] != n {
			t.Fatalf("unexpected %s count: got=%d want=%d", role, got[role], n)
		}
	}

	if len(result.Promotions) != 111 || len(result.Demotions) != 0 || len(result.Maintained) != 1389 {
		t.Fatalf("unexpected result sizes: promotions=%d demotions=%d maintained=%d",
			len(result.Promotions), len(result.Demotions), len(result.Maintained))
	}

	// best performer has the highest id
	for _, p := range result.Promotions {
		if p.To == hierarchy.RoleLeader && p.ParticipantID != 1500 {
			t.Fatalf("unexpected leader: got=%d want=1500", p.ParticipantID)
		}
		if p.ParticipantID <= 1500-111 {
			t.Fatalf("participant %d promoted outside the top 111", p.ParticipantID)
		}
	}
}

func TestPlan_BootstrapSmallPool(t *testing.T) {
	t.Parallel()

	assignments := hierarchytest.Members(1, 50)
	_, changes, err := transition.Plan(assignments, rankedAggregates(assignments), transition.DefaultPolicy())
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	got := hierarchytest.CountRoles(hierarchy.ApplyChanges(assignments, changes))
	if got[hierarchy.RoleLeader] != 1 || got[hierarchy.RoleCaptain] != 0 || got[hierarchy.RoleSubcaptain] != 5 || got[hierarchy.RoleMember] != 44 {
		t.Fatalf("unexpected counts for 50 members: %+v", got)
	}
}

func TestPlan_RegularCascadeSlotBounds(t *testing.T) {
	t.Parallel()

	assignments := hierarchytest.Pyramid(1, hierarchytest.FullPyramid)
	aggregates := rankedAggregates(assignments)

	result, changes, err := transition.Plan(assignments, aggregates, transition.DefaultPolicy())
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if result.Mode != transition.ModeRegular {
		t.Fatalf("unexpected mode: got=%s", result.Mode)
	}

	next := hierarchy.ApplyChanges(assignments, changes)
	got := hierarchytest.CountRoles(next)
	want := map[hierarchy.Role]int{
		hierarchy.RoleLeader:     1,
		hierarchy.RoleCaptain:    10,
		hierarchy.RoleSubcaptain: 100,
		hierarchy.RoleMember:     1000,
	}
	for role, n := range want {
		if got[role] != n {
			t.Fatalf("unexpected %s count: got=%d want=%d", role, got[role], n)
		}
	}

	moves := map[[2]hierarchy.Role]int{}
	for _, m := range result.Promotions {
		moves[[2]hierarchy.Role{m.From, m.To}]++
	}
	for _, m := range result.Demotions {
		moves[[2]hierarchy.Role{m.From, m.To}]++
	}
	wantMoves := map[[2]hierarchy.Role]int{
		{hierarchy.RoleCaptain, hierarchy.RoleLeader}:     1,
		{hierarchy.RoleLeader, hierarchy.RoleCaptain}:     1,
		{hierarchy.RoleCaptain, hierarchy.RoleSubcaptain}: 5,
		{hierarchy.RoleSubcaptain, hierarchy.RoleCaptain}: 5,
		{hierarchy.RoleSubcaptain, hierarchy.RoleMember}:  90,
		{hierarchy.RoleMember, hierarchy.RoleSubcaptain}:  90,
	}
	if len(moves) != len(wantMoves) {
		t.Fatalf("unexpected move kinds: %+v", moves)
	}
	for k, n := range wantMoves {
		if moves[k] != n {
			t.Fatalf("unexpected %s->%s moves: got=%d want=%d", k[0], k[1], moves[k], n)
		}
	}
	if total := len(result.Promotions) + len(result.Demotions) + len(result.Maintained); total != len(assignments) {
		t.Fatalf("every participant must be reported once: got=%d want=%d", total, len(assignments))
	}

	// Captains are ids 2..11; id 11 is best and takes the leader slot.
	tree := hierarchy.BuildTree(next)
	leader, _ := tree.Leader()
	if leader.ParticipantID != 11 {
		t.Fatalf("unexpected new leader: got=%d want=11", leader.ParticipantID)
	}
	if a, _ := tree.Get(1); a.Role != hierarchy.RoleCaptain {
		t.Fatalf("old leader should be captain, got %s", a.Role)
	}
	for _, id := range []int64{7, 8, 9, 10} {
		if a, _ := tree.Get(id); a.Role != hierarchy.RoleCaptain {
			t.Fatalf("captain %d should be retained, got %s", id, a.Role)
		}
	}
	for _, id := range []int64{2, 3, 4, 5, 6} {
		if a, _ := tree.Get(id); a.Role != hierarchy.RoleSubcaptain {
			t.Fatalf("captain %d should drop to subcaptain, got %s", id, a.Role)
		}
	}

	for _, o := range tree.Orphans() {
		if o.Reason != hierarchy.OrphanMissingParent {
			t.Fatalf("edges must be cleared rather than left dangling: %+v", o)
		}
	}
}

func TestPlan_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := transition.Plan(nil, nil, transition.DefaultPolicy()); !errors.Is(err, transition.ErrNoAssignments) {
		t.Fatalf("expected ErrNoAssignments, got %v", err)
	}

	assignments := []hierarchy.Assignment{
		{ID: 1, ParticipantID: 1, Role: hierarchy.RoleLeader},
		{ID: 2, ParticipantID: 2, Role: hierarchy.RoleLeader},
		{ID: 3, ParticipantID: 3, Role: hierarchy.RoleCaptain},
	}
	if _, _, err := transition.Plan(assignments, rankedAggregates(assignments), transition.DefaultPolicy()); !errors.Is(err, transition.ErrMultipleLeaders) {
		t.Fatalf("expected ErrMultipleLeaders, got %v", err)
	}
}

func TestPlan_PartialPyramidClampsSlots(t *testing.T) {
	t.Parallel()

	assignments := hierarchytest.Pyramid(1, hierarchytest.Shape{
		Captains:              3,
		SubcaptainsPerCaptain: 2,
		MembersPerSubcaptain:  2,
		WithoutLeader:         true,
	})

	result, changes, err := transition.Plan(assignments, rankedAggregates(assignments), transition.DefaultPolicy())
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	got := hierarchytest.CountRoles(hierarchy.ApplyChanges(assignments, changes))
	// 1 captain becomes leader, 2 retained, 3 first-place subcaptains promoted,
	// the other 3 subcaptains demoted and all 6 first-place members promoted.
	want := map[hierarchy.Role]int{
		hierarchy.RoleLeader:     1,
		hierarchy.RoleCaptain:    5,
		hierarchy.RoleSubcaptain: 6,
		hierarchy.RoleMember:     9,
	}
	for role, n := range want {
		if got[role] != n {
			t.Fatalf("unexpected %s count: got=%d want=%d (%+v)", role, got[role], n, result)
		}
	}
}
