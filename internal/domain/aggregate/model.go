package aggregate

import (
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

// Daily is one participant's rolled-up hours for one calendar day, keyed by (participant, season, date).
type Daily struct {
	ID            int64
	ParticipantID int64
	SeasonID      int64
	WorkDate      time.Time
	Role          hierarchy.Role
	PersonalHours float64
	TeamHours     float64
	TotalHours    float64
}

// Season is one participant's season-cumulative standing, keyed by (participant, season).
// Ranks stay nil until the ranking pass sets them.
type Season struct {
	ID            int64
	ParticipantID int64
	SeasonID      int64
	Role          hierarchy.Role
	PersonalTotal float64
	TeamTotal     float64
	Total         float64
	Target        float64
	TargetPercent float64
	RankInGroup   *int
	CaptainRank   *int
}

// RankUpdate overwrites both rank columns of one season row. A nil rank is written as NULL.
type RankUpdate struct {
	ParticipantID int64
	RankInGroup   *int
	CaptainRank   *int
}

// Result is the output of one aggregation pass.
type Result struct {
	Daily   []Daily
	Season  []Season
	Orphans []hierarchy.Orphan
}
