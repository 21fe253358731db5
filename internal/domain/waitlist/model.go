package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownStatus = errors.New("unknown waitlist status")

// Status tracks an applicant from sign-up to an admin decision.
type Status string

const (
	StatusNew      Status = "new"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(v string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(v)))
	switch status {
	case StatusNew, StatusApproved, StatusRejected:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, v)
	}
}

// Entry is someone who asked to join while the pyramid was full. Approved
// applicants are placed when the next season is assembled.
type Entry struct {
	ID       int64
	Phone    string
	FullName string
	Status   Status
	AddedAt  time.Time
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Phone) == "" {
		return fmt.Errorf("waitlist phone is required")
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	return nil
}

type Repository interface {
	Add(ctx context.Context, entry Entry) (Entry, error)
	GetByID(ctx context.Context, entryID int64) (Entry, bool, error)
	GetByPhone(ctx context.Context, phone string) (Entry, bool, error)
	// List returns the newest entries first.
	List(ctx context.Context) ([]Entry, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	UpdateStatus(ctx context.Context, entryID int64, status Status) error
}
