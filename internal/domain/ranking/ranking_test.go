package ranking_test

import (
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy/hierarchytest"
	"github.com/riskibarqy/pyramid-league/internal/domain/ranking"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b aggregate.Season
		want int
	}{
		{
			name: "higher total wins",
			a:    aggregate.Season{ParticipantID: 2, Total: 100, PersonalTotal: 1},
			b:    aggregate.Season{ParticipantID: 1, Total: 90, PersonalTotal: 90},
			want: -1,
		},
		{
			name: "personal total breaks total tie",
			a:    aggregate.Season{ParticipantID: 1, Total: 100, PersonalTotal: 40},
			b:    aggregate.Season{ParticipantID: 2, Total: 100, PersonalTotal: 60},
			want: 1,
		},
		{
			name: "target percent breaks personal tie",
			a:    aggregate.Season{ParticipantID: 5, Total: 100, PersonalTotal: 40, TargetPercent: 80},
			b:    aggregate.Season{ParticipantID: 2, Total: 100, PersonalTotal: 40, TargetPercent: 70},
			want: -1,
		},
		{
			name: "participant id is the final tie break",
			a:    aggregate.Season{ParticipantID: 9, Total: 100, PersonalTotal: 40, TargetPercent: 70},
			b:    aggregate.Season{ParticipantID: 3, Total: 100, PersonalTotal: 40, TargetPercent: 70},
			want: 1,
		},
		{
			name: "identical rows",
			a:    aggregate.Season{ParticipantID: 3, Total: 1},
			b:    aggregate.Season{ParticipantID: 3, Total: 1},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ranking.Compare(tc.a, tc.b); got != tc.want {
				t.Fatalf("Compare got=%d want=%d", got, tc.want)
			}
			if tc.want != 0 {
				if got := ranking.Compare(tc.b, tc.a); got != -tc.want {
					t.Fatalf("Compare is not antisymmetric: got=%d want=%d", got, -tc.want)
				}
			}
		})
	}
}

func TestAssign_RankTotalityWithinScope(t *testing.T) {
	t.Parallel()

	assignments := hierarchytest.Pyramid(1, hierarchytest.Shape{
		Captains:              4,
		SubcaptainsPerCaptain: 3,
		MembersPerSubcaptain:  5,
	})

	aggregates := make([]aggregate.Season, 0, len(assignments))
	for _, a := range assignments {
		// many ties so the participant id tie break is exercised
		total := float64(a.ParticipantID % 4)
		aggregates = append(aggregates, aggregate.Season{
			ParticipantID: a.ParticipantID,
			SeasonID:      1,
			Role:          a.Role,
			Total:         total,
			PersonalTotal: total,
		})
	}

	updates := ranking.Assign(assignments, aggregates)
	if len(updates) != len(aggregates) {
		t.Fatalf("unexpected update count: got=%d want=%d", len(updates), len(aggregates))
	}
	byParticipant := make(map[int64]aggregate.RankUpdate, len(updates))
	for _, u := range updates {
		byParticipant[u.ParticipantID] = u
	}

	tree := hierarchy.BuildTree(assignments)

	leader, _ := tree.Leader()
	if u := byParticipant[leader.ParticipantID]; u.RankInGroup != nil || u.CaptainRank != nil {
		t.Fatalf("leader must stay unranked: %+v", u)
	}

	assertPermutation(t, "captains", collect(tree.Captains(), byParticipant, func(u aggregate.RankUpdate) *int { return u.CaptainRank }))
	for _, c := range tree.Captains() {
		if byParticipant[c.ParticipantID].RankInGroup != nil {
			t.Fatalf("captain must not get rankInGroup")
		}
		assertPermutation(t, "subcaptains", collect(tree.SubcaptainsOf(c.ParticipantID), byParticipant, func(u aggregate.RankUpdate) *int { return u.RankInGroup }))
	}
	for _, sub := range tree.Subcaptains() {
		if byParticipant[sub.ParticipantID].CaptainRank != nil {
			t.Fatalf("subcaptain must not get captainRank")
		}
		assertPermutation(t, "members", collect(tree.MembersOf(sub.ParticipantID), byParticipant, func(u aggregate.RankUpdate) *int { return u.RankInGroup }))
	}
}

func TestAssign_OrderFollowsComparator(t *testing.T) {
	t.Parallel()

	assignments := []hierarchy.Assignment{
		{ID: 1, ParticipantID: 1, Role: hierarchy.RoleCaptain},
		{ID: 2, ParticipantID: 2, Role: hierarchy.RoleCaptain},
		{ID: 3, ParticipantID: 3, Role: hierarchy.RoleCaptain},
		{ID: 4, ParticipantID: 4, Role: hierarchy.RoleSubcaptain, ParentCaptainID: hierarchytest.Int64(1)},
		{ID: 5, ParticipantID: 5, Role: hierarchy.RoleSubcaptain, ParentCaptainID: hierarchytest.Int64(1)},
		{ID: 6, ParticipantID: 6, Role: hierarchy.RoleSubcaptain},
	}
	aggregates := []aggregate.Season{
		{ParticipantID: 1, Total: 50},
		{ParticipantID: 2, Total: 70},
		{ParticipantID: 3, Total: 70, PersonalTotal: 10},
		{ParticipantID: 4, Total: 5},
		{ParticipantID: 5, Total: 8},
		{ParticipantID: 6, Total: 100},
		{ParticipantID: 99, Total: 1000},
	}

	updates := ranking.Assign(assignments, aggregates)
	got := make(map[int64]aggregate.RankUpdate, len(updates))
	for _, u := range updates {
		got[u.ParticipantID] = u
	}

	wantCaptain := map[int64]int{3: 1, 2: 2, 1: 3}
	for id, want := range wantCaptain {
		if got[id].CaptainRank == nil || *got[id].CaptainRank != want {
			t.Fatalf("captain %d rank got=%v want=%d", id, got[id].CaptainRank, want)
		}
	}
	if got[5].RankInGroup == nil || *got[5].RankInGroup != 1 || *got[4].RankInGroup != 2 {
		t.Fatalf("unexpected subcaptain ranks: 4=%v 5=%v", got[4].RankInGroup, got[5].RankInGroup)
	}
	if got[6].RankInGroup != nil {
		t.Fatalf("orphan subcaptain must stay unranked")
	}
	if got[99].RankInGroup != nil || got[99].CaptainRank != nil {
		t.Fatalf("row without assignment must stay unranked")
	}
}

func TestTop(t *testing.T) {
	t.Parallel()

	rows := []aggregate.Season{
		{ParticipantID: 1, Role: hierarchy.RoleMember, Total: 10, PersonalTotal: 10},
		{ParticipantID: 2, Role: hierarchy.RoleMember, Total: 30, PersonalTotal: 5},
		{ParticipantID: 3, Role: hierarchy.RoleMember, Total: 20, PersonalTotal: 20},
		{ParticipantID: 4, Role: hierarchy.RoleCaptain, Total: 500, PersonalTotal: 50},
	}

	byTotal := ranking.Top(rows, hierarchy.RoleMember, 2, nil)
	if len(byTotal) != 2 || byTotal[0].ParticipantID != 2 || byTotal[1].ParticipantID != 3 {
		t.Fatalf("unexpected top by total: %+v", byTotal)
	}

	byPersonal := ranking.Top(rows, hierarchy.RoleMember, 0, ranking.ByPersonal)
	if len(byPersonal) != 3 || byPersonal[0].ParticipantID != 3 || byPersonal[2].ParticipantID != 2 {
		t.Fatalf("unexpected top by personal: %+v", byPersonal)
	}
}

func collect(group []hierarchy.Assignment, updates map[int64]aggregate.RankUpdate, field func(aggregate.RankUpdate) *int) []int {
	out := make([]int, 0, len(group))
	for _, a := range group {
		if v := field(updates[a.ParticipantID]); v != nil {
			out = append(out, *v)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

func assertPermutation(t *testing.T, scope string, ranks []int) {
	t.Helper()

	seen := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		if r < 1 || r > len(ranks) {
			t.Fatalf("%s rank %d outside 1..%d", scope, r, len(ranks))
		}
		if seen[r] {
			t.Fatalf("%s rank %d assigned twice", scope, r)
		}
		seen[r] = true
	}
}
