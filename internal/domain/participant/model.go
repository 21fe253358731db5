package participant

import (
	"context"
	"fmt"
	"strings"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Participant is a phone-keyed identity independent of any season.
type Participant struct {
	ID             int64
	Phone          string
	FullName       string
	TelegramUserID *int64
	Status         Status
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.Phone) == "" {
		return fmt.Errorf("participant phone is required")
	}
	return nil
}

// DisplayName falls back to the phone number when no name is known.
func (p Participant) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Phone
}

// Repository describes participant persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, participantID int64) (Participant, bool, error)
	GetByPhone(ctx context.Context, phone string) (Participant, bool, error)
	ListByIDs(ctx context.Context, participantIDs []int64) ([]Participant, error)
	// List returns every participant ordered by id.
	List(ctx context.Context) ([]Participant, error)
}

// NormalizePhone keeps a leading plus and the digits, so "+62 811-000" and
// "+62811000" address the same person.
func NormalizePhone(v string) string {
	v = strings.TrimSpace(v)
	var b strings.Builder
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
