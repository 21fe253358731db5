package memory

import (
	"fmt"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

const DemoSeasonID int64 = 1

// Dataset is a self-consistent demo fixture for STORAGE_DRIVER=memory.
type Dataset struct {
	Seasons      []season.Season
	Participants []participant.Participant
	Assignments  []hierarchy.Assignment
	Hours        []hours.Record
}

// SeedDemo builds an active 30-day season ending 15 days after now with a
// 1/3/9/36 pyramid and deterministic hours for every elapsed day.
func SeedDemo(now time.Time) Dataset {
	today := season.Day(now)
	start := today.AddDate(0, 0, -14)
	end := today.AddDate(0, 0, 15)

	ds := Dataset{
		Seasons: []season.Season{{
			ID:               DemoSeasonID,
			Name:             fmt.Sprintf("Season %s", start.Format("2006-01")),
			StartDate:        start,
			EndDate:          end,
			DailyTargetHours: 8,
			DaysCount:        30,
			Status:           season.StatusActive,
			CreatedAt:        start,
		}},
	}

	next := int64(0)
	add := func(role hierarchy.Role, captainID, subcaptainID *int64, group *int) int64 {
		next++
		id := next
		ds.Participants = append(ds.Participants, participant.Participant{
			ID:       id,
			Phone:    fmt.Sprintf("+62811000%04d", id),
			FullName: fmt.Sprintf("Driver %d", id),
			Status:   participant.StatusActive,
		})
		ds.Assignments = append(ds.Assignments, hierarchy.Assignment{
			ID:                 id,
			SeasonID:           DemoSeasonID,
			ParticipantID:      id,
			Role:               role,
			ParentCaptainID:    captainID,
			ParentSubcaptainID: subcaptainID,
			GroupIndex:         group,
		})
		return id
	}

	add(hierarchy.RoleLeader, nil, nil, nil)
	for c := 0; c < 3; c++ {
		captainID := add(hierarchy.RoleCaptain, nil, nil, nil)
		for s := 0; s < 3; s++ {
			subcaptainID := add(hierarchy.RoleSubcaptain, &captainID, nil, &s)
			for m := 0; m < 4; m++ {
				add(hierarchy.RoleMember, nil, &subcaptainID, &m)
			}
		}
	}

	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		for _, p := range ds.Participants {
			h := float64((p.ID*7+int64(day.YearDay())*3)%11) + 0.5
			ds.Hours = append(ds.Hours, hours.Record{ParticipantID: p.ID, WorkDate: day, Hours: h})
		}
	}
	return ds
}
