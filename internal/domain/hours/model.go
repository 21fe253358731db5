package hours

import (
	"context"
	"fmt"
	"time"
)

// MaxPerDay bounds a single day's record.
const MaxPerDay = 24

// Record is the hours one participant worked on one calendar day. (ParticipantID, WorkDate) is unique.
type Record struct {
	ID            int64
	ParticipantID int64
	WorkDate      time.Time
	Hours         float64
}

func (r Record) Validate() error {
	if r.ParticipantID <= 0 {
		return fmt.Errorf("hours participant id is required")
	}
	if r.WorkDate.IsZero() {
		return fmt.Errorf("hours work date is required")
	}
	if r.Hours < 0 || r.Hours > MaxPerDay {
		return fmt.Errorf("hours must be between 0 and %d, got %v", MaxPerDay, r.Hours)
	}
	return nil
}

// Repository describes hours persistence needs from use cases.
type Repository interface {
	// ListInRange returns records whose work date falls in [start, end], both inclusive.
	ListInRange(ctx context.Context, start, end time.Time) ([]Record, error)
	Upsert(ctx context.Context, records []Record) error
}
