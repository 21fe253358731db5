package fraud

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

// Scan runs the high-hours, anomaly-spike and zero-streak checks as of now.
// Alerts for participants missing from people are dropped.
func Scan(now time.Time, assignments []hierarchy.Assignment, records []hours.Record, people map[int64]participant.Participant, th Thresholds) []Alert {
	today := season.Day(now)

	var alerts []Alert
	alerts = append(alerts, scanHighHours(today, records, people, th)...)
	alerts = append(alerts, scanAnomalies(today, assignments, records, people, th)...)
	alerts = append(alerts, scanZeroStreaks(today, assignments, records, people, th)...)
	return alerts
}

// inWindow reports whether d lies in [today-days, today].
func inWindow(d, today time.Time, days int) bool {
	day := season.Day(d)
	return !day.After(today) && !day.Before(today.AddDate(0, 0, -days))
}

func scanHighHours(today time.Time, records []hours.Record, people map[int64]participant.Participant, th Thresholds) []Alert {
	var out []Alert
	for _, r := range sortedRecords(records) {
		if !inWindow(r.WorkDate, today, th.HighHoursWindow) || r.Hours <= th.DailyHours {
			continue
		}
		p, ok := people[r.ParticipantID]
		if !ok {
			continue
		}
		date := season.Day(r.WorkDate)
		out = append(out, Alert{
			ID:            fmt.Sprintf("%s_%d_%s", AlertHighHours, r.ParticipantID, date.Format(season.DateLayout)),
			ParticipantID: r.ParticipantID,
			Phone:         p.Phone,
			Type:          AlertHighHours,
			Severity:      SeverityHigh,
			Message:       fmt.Sprintf("%v hours on %s exceeds the %v hour threshold", r.Hours, date.Format(season.DateLayout), th.DailyHours),
			Date:          date,
			Data:          map[string]any{"hours": r.Hours, "date": date.Format(season.DateLayout)},
		})
	}
	return out
}

// scanAnomalies compares every recent record of a member with the upper median of its
// subcaptain group's recent records.
func scanAnomalies(today time.Time, assignments []hierarchy.Assignment, records []hours.Record, people map[int64]participant.Participant, th Thresholds) []Alert {
	groups := make(map[int64]map[int64]bool)
	for _, a := range assignments {
		if a.Role != hierarchy.RoleMember || a.ParentSubcaptainID == nil {
			continue
		}
		members, ok := groups[*a.ParentSubcaptainID]
		if !ok {
			members = make(map[int64]bool)
			groups[*a.ParentSubcaptainID] = members
		}
		members[a.ParticipantID] = true
	}

	groupIDs := make([]int64, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	recent := sortedRecords(records)
	var out []Alert
	for _, groupID := range groupIDs {
		members := groups[groupID]
		var groupRecords []hours.Record
		for _, r := range recent {
			if members[r.ParticipantID] && inWindow(r.WorkDate, today, th.AnomalyWindow) {
				groupRecords = append(groupRecords, r)
			}
		}
		if len(groupRecords) == 0 {
			continue
		}

		median := upperMedian(groupRecords)
		if median == 0 {
			continue
		}

		for _, r := range groupRecords {
			ratio := r.Hours / median
			if ratio <= th.AnomalyMultiplier {
				continue
			}
			p, ok := people[r.ParticipantID]
			if !ok {
				continue
			}
			date := season.Day(r.WorkDate)
			out = append(out, Alert{
				ID:            fmt.Sprintf("anomaly_%d_%s", r.ParticipantID, date.Format(season.DateLayout)),
				ParticipantID: r.ParticipantID,
				Phone:         p.Phone,
				Type:          AlertAnomalySpike,
				Severity:      SeverityMedium,
				Message:       fmt.Sprintf("spike of +%d%% over the group median", int(math.Round((ratio-1)*100))),
				Date:          date,
				Data: map[string]any{
					"hours":  r.Hours,
					"median": median,
					"ratio":  int(math.Round(ratio * 100)),
				},
			})
		}
	}
	return out
}

func upperMedian(records []hours.Record) float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		values = append(values, r.Hours)
	}
	sort.Float64s(values)
	return values[len(values)/2]
}

// scanZeroStreaks looks for the longest run of zero-hour days over the window ending today.
// Days without a record count as zero.
func scanZeroStreaks(today time.Time, assignments []hierarchy.Assignment, records []hours.Record, people map[int64]participant.Participant, th Thresholds) []Alert {
	type key struct {
		participant int64
		day         time.Time
	}
	worked := make(map[key]float64, len(records))
	for _, r := range records {
		worked[key{r.ParticipantID, season.Day(r.WorkDate)}] += r.Hours
	}

	seen := make(map[int64]bool, len(assignments))
	var out []Alert
	for _, a := range assignments {
		if seen[a.ParticipantID] {
			continue
		}
		seen[a.ParticipantID] = true

		streak, longest := 0, 0
		for i := 0; i < th.ZeroStreakWindow; i++ {
			day := today.AddDate(0, 0, -i)
			if worked[key{a.ParticipantID, day}] == 0 {
				streak++
				longest = max(longest, streak)
				continue
			}
			streak = 0
		}
		if longest < th.ZeroStreakDays {
			continue
		}

		p, ok := people[a.ParticipantID]
		if !ok {
			continue
		}
		out = append(out, Alert{
			ID:            fmt.Sprintf("%s_%d_%s", AlertZeroStreak, a.ParticipantID, today.Format(season.DateLayout)),
			ParticipantID: a.ParticipantID,
			Phone:         p.Phone,
			Type:          AlertZeroStreak,
			Severity:      SeverityLow,
			Message:       fmt.Sprintf("no hours for %d consecutive days", longest),
			Date:          today,
			Data:          map[string]any{"consecutiveDays": longest},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

func sortedRecords(records []hours.Record) []hours.Record {
	out := make([]hours.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}
