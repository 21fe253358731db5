package transition

import (
	"fmt"
	"sort"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/ranking"
)

// Plan computes the season-end role changes against one immutable snapshot.
//
// When every assignment is a member the bootstrap pass fills the pyramid from the ranked pool.
// Otherwise the regular cascade runs: the best captain becomes leader, the old leader becomes a
// captain, captains beyond the retained slots drop to subcaptain, first-place subcaptains compete
// for captain slots while every other subcaptain drops to member, and first-place members compete
// for subcaptain slots. Parent edges that no longer point at the right tier are cleared.
func Plan(assignments []hierarchy.Assignment, aggregates []aggregate.Season, policy Policy) (Result, []hierarchy.Change, error) {
	if len(assignments) == 0 {
		return Result{}, nil, ErrNoAssignments
	}

	tree := hierarchy.BuildTree(assignments)
	if n := len(tree.Leaders()); n > 1 {
		return Result{}, nil, fmt.Errorf("%w: found %d", ErrMultipleLeaders, n)
	}

	byParticipant := make(map[int64]aggregate.Season, len(aggregates))
	for _, row := range aggregates {
		byParticipant[row.ParticipantID] = row
	}

	roles := make(map[int64]hierarchy.Role, tree.Len())
	for _, a := range tree.All() {
		roles[a.ParticipantID] = a.Role
	}

	mode := ModeRegular
	if tree.AllOnlyMembers() {
		mode = ModeBootstrap
		planBootstrap(tree, byParticipant, policy, roles)
	} else {
		planRegular(tree, byParticipant, policy, roles)
	}

	return summarize(mode, tree, roles)
}

func planBootstrap(tree *hierarchy.Tree, aggs map[int64]aggregate.Season, policy Policy, roles map[int64]hierarchy.Role) {
	pool := rowsOf(tree.Members(), aggs)
	ranking.Sort(pool)
	if policy.PoolCap > 0 && len(pool) > policy.PoolCap {
		pool = pool[:policy.PoolCap]
	}
	if len(pool) == 0 {
		return
	}

	captains, subcaptains := policy.bootstrapSlots(len(pool))

	roles[pool[0].ParticipantID] = hierarchy.RoleLeader
	pos := 1
	for i := 0; i < captains && pos < len(pool); i++ {
		roles[pool[pos].ParticipantID] = hierarchy.RoleCaptain
		pos++
	}
	for i := 0; i < subcaptains && pos < len(pool); i++ {
		roles[pool[pos].ParticipantID] = hierarchy.RoleSubcaptain
		pos++
	}
}

func planRegular(tree *hierarchy.Tree, aggs map[int64]aggregate.Season, policy Policy, roles map[int64]hierarchy.Role) {
	// Captains without aggregate rows cannot be ranked and keep their role.
	captains := rowsOf(tree.Captains(), aggs)
	sort.SliceStable(captains, func(i, j int) bool {
		return byRankThenCompare(captains[i].CaptainRank, captains[j].CaptainRank, captains[i], captains[j])
	})

	remaining := captains
	if len(captains) > 0 {
		roles[captains[0].ParticipantID] = hierarchy.RoleLeader
		remaining = captains[1:]
		if oldLeader, ok := tree.Leader(); ok {
			roles[oldLeader.ParticipantID] = hierarchy.RoleCaptain
		}
	}

	for i, row := range remaining {
		if i < policy.RetainedCaptains {
			continue
		}
		roles[row.ParticipantID] = hierarchy.RoleSubcaptain
	}

	firstSubcaptains := make([]aggregate.Season, 0, len(tree.Captains()))
	for _, c := range tree.Captains() {
		if best, ok := firstPlace(tree.SubcaptainsOf(c.ParticipantID), aggs); ok {
			firstSubcaptains = append(firstSubcaptains, best)
		}
	}
	ranking.Sort(firstSubcaptains)

	isFirst := make(map[int64]bool, len(firstSubcaptains))
	for i, row := range firstSubcaptains {
		isFirst[row.ParticipantID] = true
		if i < policy.SubcaptainPromotions {
			roles[row.ParticipantID] = hierarchy.RoleCaptain
		}
	}
	for _, sub := range tree.Subcaptains() {
		if !isFirst[sub.ParticipantID] {
			roles[sub.ParticipantID] = hierarchy.RoleMember
		}
	}

	firstMembers := make([]aggregate.Season, 0, len(tree.Subcaptains()))
	for _, sub := range tree.Subcaptains() {
		if best, ok := firstPlace(tree.MembersOf(sub.ParticipantID), aggs); ok {
			firstMembers = append(firstMembers, best)
		}
	}
	ranking.Sort(firstMembers)
	for i := 0; i < min(policy.MemberPromotions, len(firstMembers)); i++ {
		roles[firstMembers[i].ParticipantID] = hierarchy.RoleSubcaptain
	}
}

// firstPlace picks the group's best row by rankInGroup, falling back to the comparator
// for unranked rows and ties.
func firstPlace(group []hierarchy.Assignment, aggs map[int64]aggregate.Season) (aggregate.Season, bool) {
	rows := rowsOf(group, aggs)
	if len(rows) == 0 {
		return aggregate.Season{}, false
	}
	best := rows[0]
	for _, row := range rows[1:] {
		if byRankThenCompare(row.RankInGroup, best.RankInGroup, row, best) {
			best = row
		}
	}
	return best, true
}

// byRankThenCompare orders by ascending rank with nil last, then by the comparator.
func byRankThenCompare(rankA, rankB *int, a, b aggregate.Season) bool {
	switch {
	case rankA != nil && rankB != nil && *rankA != *rankB:
		return *rankA < *rankB
	case rankA != nil && rankB == nil:
		return true
	case rankA == nil && rankB != nil:
		return false
	default:
		return ranking.Compare(a, b) < 0
	}
}

func rowsOf(group []hierarchy.Assignment, aggs map[int64]aggregate.Season) []aggregate.Season {
	out := make([]aggregate.Season, 0, len(group))
	for _, a := range group {
		if row, ok := aggs[a.ParticipantID]; ok {
			out = append(out, row)
		}
	}
	return out
}

// summarize turns the role map into a result and the patches needed to reach it.
func summarize(mode Mode, tree *hierarchy.Tree, roles map[int64]hierarchy.Role) (Result, []hierarchy.Change, error) {
	result := Result{Mode: mode}
	var changes []hierarchy.Change

	for _, before := range tree.All() {
		after := before.Clone()
		after.Role = roles[before.ParticipantID]
		reattach(&after, roles)
		if after.Role != before.Role {
			after.GroupIndex = nil
		}

		switch {
		case after.Role == before.Role:
			result.Maintained = append(result.Maintained, Kept{ParticipantID: before.ParticipantID, Role: before.Role})
		case after.Role.Tier() < before.Role.Tier():
			result.Promotions = append(result.Promotions, Move{ParticipantID: before.ParticipantID, From: before.Role, To: after.Role})
		default:
			result.Demotions = append(result.Demotions, Move{ParticipantID: before.ParticipantID, From: before.Role, To: after.Role})
		}

		if patch := hierarchy.Diff(before, after); !patch.IsEmpty() {
			changes = append(changes, hierarchy.Change{
				AssignmentID:  before.ID,
				ParticipantID: before.ParticipantID,
				Patch:         patch,
			})
		}
	}

	return result, changes, nil
}

// reattach drops parent edges that do not match the participant's new tier.
func reattach(a *hierarchy.Assignment, roles map[int64]hierarchy.Role) {
	switch a.Role {
	case hierarchy.RoleLeader, hierarchy.RoleCaptain:
		a.ParentCaptainID = nil
		a.ParentSubcaptainID = nil
	case hierarchy.RoleSubcaptain:
		a.ParentSubcaptainID = nil
		if a.ParentCaptainID != nil && roles[*a.ParentCaptainID] != hierarchy.RoleCaptain {
			a.ParentCaptainID = nil
		}
	case hierarchy.RoleMember:
		a.ParentCaptainID = nil
		if a.ParentSubcaptainID != nil && roles[*a.ParentSubcaptainID] != hierarchy.RoleSubcaptain {
			a.ParentSubcaptainID = nil
		}
	default:
		return
	}
	if a.ParentCaptainID == nil && a.ParentSubcaptainID == nil {
		a.GroupIndex = nil
	}
}
