package ranking

import (
	"sort"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

// Compare orders two season rows, negative when a ranks ahead of b.
// Higher total wins, then higher personal total, then higher target percent.
// Remaining ties go to the lower participant id so the order is total.
func Compare(a, b aggregate.Season) int {
	switch {
	case a.Total != b.Total:
		return descending(a.Total, b.Total)
	case a.PersonalTotal != b.PersonalTotal:
		return descending(a.PersonalTotal, b.PersonalTotal)
	case a.TargetPercent != b.TargetPercent:
		return descending(a.TargetPercent, b.TargetPercent)
	case a.ParticipantID < b.ParticipantID:
		return -1
	case a.ParticipantID > b.ParticipantID:
		return 1
	default:
		return 0
	}
}

func descending(a, b float64) int {
	if a > b {
		return -1
	}
	return 1
}

// Sort orders rows best first.
func Sort(rows []aggregate.Season) {
	sort.SliceStable(rows, func(i, j int) bool {
		return Compare(rows[i], rows[j]) < 0
	})
}

// Assign computes rank columns for every aggregate row.
//
// captainRank is global across captains. rankInGroup ranks subcaptains within their captain
// and members within their subcaptain, restarting at 1 per group. The leader, orphans and rows
// without a matching assignment get nil ranks. Updates are returned ordered by participant id.
func Assign(assignments []hierarchy.Assignment, aggregates []aggregate.Season) []aggregate.RankUpdate {
	tree := hierarchy.BuildTree(assignments)

	byParticipant := make(map[int64]aggregate.Season, len(aggregates))
	for _, row := range aggregates {
		byParticipant[row.ParticipantID] = row
	}

	updates := make(map[int64]*aggregate.RankUpdate, len(aggregates))
	for _, row := range aggregates {
		updates[row.ParticipantID] = &aggregate.RankUpdate{ParticipantID: row.ParticipantID}
	}

	for i, row := range scope(tree.Captains(), byParticipant) {
		rank := i + 1
		updates[row.ParticipantID].CaptainRank = &rank
	}
	for _, captain := range tree.Captains() {
		for i, row := range scope(tree.SubcaptainsOf(captain.ParticipantID), byParticipant) {
			rank := i + 1
			updates[row.ParticipantID].RankInGroup = &rank
		}
	}
	for _, sub := range tree.Subcaptains() {
		for i, row := range scope(tree.MembersOf(sub.ParticipantID), byParticipant) {
			rank := i + 1
			updates[row.ParticipantID].RankInGroup = &rank
		}
	}

	out := make([]aggregate.RankUpdate, 0, len(updates))
	for _, u := range updates {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

// scope returns the aggregate rows of group members that have one, best first.
func scope(group []hierarchy.Assignment, byParticipant map[int64]aggregate.Season) []aggregate.Season {
	rows := make([]aggregate.Season, 0, len(group))
	for _, a := range group {
		if row, ok := byParticipant[a.ParticipantID]; ok {
			rows = append(rows, row)
		}
	}
	Sort(rows)
	return rows
}

// Top returns up to limit rows of the given role, best first. A non-positive limit returns all.
func Top(rows []aggregate.Season, role hierarchy.Role, limit int, less func(a, b aggregate.Season) bool) []aggregate.Season {
	out := make([]aggregate.Season, 0)
	for _, row := range rows {
		if row.Role == role {
			out = append(out, row)
		}
	}
	if less == nil {
		Sort(out)
	} else {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByPersonal orders by personal total, then the standard comparator.
func ByPersonal(a, b aggregate.Season) bool {
	if a.PersonalTotal != b.PersonalTotal {
		return a.PersonalTotal > b.PersonalTotal
	}
	return Compare(a, b) < 0
}
