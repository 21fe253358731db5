package audit

import (
	"context"
	"time"
)

// Action names written by admin triggers.
const (
	ActionSeasonActivated     = "SEASON_ACTIVATED"
	ActionSeasonClosed        = "SEASON_CLOSED"
	ActionAggregatesRecalc    = "AGGREGATES_RECALCULATED"
	ActionGroupsRedistributed = "GROUPS_REDISTRIBUTED"
	ActionHoursImported       = "HOURS_IMPORTED"
	ActionFraudAlert          = "FRAUD_ALERT"
	ActionWaitlistApproved    = "WAITLIST_APPROVED"
	ActionWaitlistRejected    = "WAITLIST_REJECTED"
)

const (
	EntitySeason   = "season"
	EntityUser     = "user"
	EntityHours    = "hours"
	EntityWaitlist = "waitlist"
)

// Entry is one append-only audit log row. Payload holds encoded JSON.
type Entry struct {
	ID         string
	ActorID    *int64
	Action     string
	EntityType string
	EntityID   int64
	Payload    []byte
	CreatedAt  time.Time
}

type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}
