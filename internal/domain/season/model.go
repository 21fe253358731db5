package season

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSeason = errors.New("invalid season")
	ErrUnknownStatus = errors.New("unknown season status")
)

// Status is the lifecycle state of a season. At most one season is active at a time.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

func ParseStatus(v string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(v)))
	switch status {
	case StatusPlanned, StatusActive, StatusClosed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, v)
	}
}

// Season is one incentive period with an inclusive date range.
type Season struct {
	ID               int64
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	DailyTargetHours float64
	DaysCount        int
	Status           Status
	CreatedAt        time.Time
}

// UnitTarget is the season goal of a single individual.
func (s Season) UnitTarget() float64 {
	return s.DailyTargetHours * float64(s.DaysCount)
}

// Contains reports whether the calendar day of d falls inside the season range.
func (s Season) Contains(d time.Time) bool {
	day := Day(d)
	return !day.Before(Day(s.StartDate)) && !day.After(Day(s.EndDate))
}

func (s Season) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSeason)
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidSeason)
	}
	if Day(s.EndDate).Before(Day(s.StartDate)) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidSeason, s.EndDate.Format(DateLayout), s.StartDate.Format(DateLayout))
	}
	if s.DailyTargetHours < 0 {
		return fmt.Errorf("%w: daily target hours must be >= 0", ErrInvalidSeason)
	}
	if s.DaysCount < 0 {
		return fmt.Errorf("%w: days count must be >= 0", ErrInvalidSeason)
	}

	return nil
}

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", v, err)
	}
	return t, nil
}
