package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

// Compute rolls raw hours up the season's pyramid.
//
// Daily rows are produced for every date that has at least one record inside the season
// range, one row per assigned participant. Team hours fold bottom-up: a subcaptain sums its
// members, a captain sums (personal+team) of its subcaptains and the leader sums (personal+team)
// of every captain. Orphans contribute nothing to the missing parent.
func Compute(s season.Season, assignments []hierarchy.Assignment, records []hours.Record) Result {
	if len(assignments) == 0 {
		return Result{}
	}

	tree := hierarchy.BuildTree(assignments)
	days := groupByDay(s, records)

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	personalTotals := make(map[int64]float64, tree.Len())
	teamTotals := make(map[int64]float64, tree.Len())
	daily := make([]Daily, 0, len(dates)*tree.Len())

	for _, date := range dates {
		personal := days[date]
		team := rollUp(tree, personal)

		for _, a := range tree.All() {
			p := personal[a.ParticipantID]
			tm := team[a.ParticipantID]
			personalTotals[a.ParticipantID] += p
			teamTotals[a.ParticipantID] += tm

			daily = append(daily, Daily{
				ParticipantID: a.ParticipantID,
				SeasonID:      s.ID,
				WorkDate:      date,
				Role:          a.Role,
				PersonalHours: round(p, 2),
				TeamHours:     round(tm, 2),
				TotalHours:    round(p+tm, 2),
			})
		}
	}

	unit := s.UnitTarget()
	rows := make([]Season, 0, tree.Len())
	for _, a := range tree.All() {
		personalTotal := round(personalTotals[a.ParticipantID], 2)
		teamTotal := round(teamTotals[a.ParticipantID], 2)
		total := round(personalTotal+teamTotal, 2)
		target := round(unit*float64(tree.Units(a.ParticipantID)), 2)

		rows = append(rows, Season{
			ParticipantID: a.ParticipantID,
			SeasonID:      s.ID,
			Role:          a.Role,
			PersonalTotal: personalTotal,
			TeamTotal:     teamTotal,
			Total:         total,
			Target:        target,
			TargetPercent: Percent(total, target),
		})
	}

	return Result{
		Daily:   daily,
		Season:  rows,
		Orphans: tree.Orphans(),
	}
}

// rollUp computes team hours for one day. Subcaptain sums are reused for captains and
// captain sums for the leader, so every edge is visited once.
func rollUp(tree *hierarchy.Tree, personal map[int64]float64) map[int64]float64 {
	team := make(map[int64]float64, len(tree.Subcaptains())+len(tree.Captains())+len(tree.Leaders()))

	for _, sub := range tree.Subcaptains() {
		var sum float64
		for _, m := range tree.MembersOf(sub.ParticipantID) {
			sum += personal[m.ParticipantID]
		}
		team[sub.ParticipantID] = sum
	}

	var organization float64
	for _, c := range tree.Captains() {
		var sum float64
		for _, sub := range tree.SubcaptainsOf(c.ParticipantID) {
			sum += personal[sub.ParticipantID] + team[sub.ParticipantID]
		}
		team[c.ParticipantID] = sum
		organization += personal[c.ParticipantID] + sum
	}

	for _, l := range tree.Leaders() {
		team[l.ParticipantID] = organization
	}

	return team
}

func groupByDay(s season.Season, records []hours.Record) map[time.Time]map[int64]float64 {
	out := make(map[time.Time]map[int64]float64)
	for _, r := range records {
		if !s.Contains(r.WorkDate) {
			continue
		}
		day := season.Day(r.WorkDate)
		byParticipant, ok := out[day]
		if !ok {
			byParticipant = make(map[int64]float64)
			out[day] = byParticipant
		}
		byParticipant[r.ParticipantID] += r.Hours
	}
	return out
}

// Percent returns 100*total/target rounded to three decimals, or 0 when either side is not positive.
func Percent(total, target float64) float64 {
	if total <= 0 || target <= 0 {
		return 0
	}
	return round(100*total/target, 3)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
