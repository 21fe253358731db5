package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// ParticipantView is a participant with their role in the active season, if any.
type ParticipantView struct {
	participant.Participant
	Role *hierarchy.Role
}

type ParticipantList struct {
	SeasonID     int64
	Participants []ParticipantView
}

type WaitlistView struct {
	Entries []waitlist.Entry
	Pending int
}

// ParticipantService owns the roster outside the pyramid: everyone known to
// the league and the applicants waiting for a seat.
type ParticipantService struct {
	participants participant.Repository
	waitlist     waitlist.Repository
	seasons      season.Repository
	assignments  hierarchy.Repository
	auditor      *AuditService
	logger       *logging.Logger
}

func NewParticipantService(
	participantRepo participant.Repository,
	waitlistRepo waitlist.Repository,
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	auditSvc *AuditService,
	logger *logging.Logger,
) *ParticipantService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ParticipantService{
		participants: participantRepo,
		waitlist:     waitlistRepo,
		seasons:      seasonRepo,
		assignments:  assignmentRepo,
		auditor:      auditSvc,
		logger:       logger,
	}
}

// List returns every participant ordered by id. Roles come from the active
// season; with no active season every role is nil.
func (s *ParticipantService) List(ctx context.Context) (_ ParticipantList, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.List")
	defer func() { endSpan(span, err) }()

	items, err := s.participants.List(ctx)
	if err != nil {
		return ParticipantList{}, fmt.Errorf("list participants: %w", err)
	}

	active, ok, err := s.seasons.GetActive(ctx)
	if err != nil {
		return ParticipantList{}, fmt.Errorf("get active season: %w", err)
	}
	roles := make(map[int64]hierarchy.Role)
	out := ParticipantList{Participants: make([]ParticipantView, 0, len(items))}
	if ok {
		out.SeasonID = active.ID
		assignments, err := s.assignments.ListBySeason(ctx, active.ID)
		if err != nil {
			return ParticipantList{}, fmt.Errorf("list assignments: %w", err)
		}
		for _, a := range assignments {
			roles[a.ParticipantID] = a.Role
		}
	}

	for _, p := range items {
		view := ParticipantView{Participant: p}
		if role, found := roles[p.ID]; found {
			view.Role = &role
		}
		out.Participants = append(out.Participants, view)
	}
	return out, nil
}

func (s *ParticipantService) Waitlist(ctx context.Context) (_ WaitlistView, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.Waitlist")
	defer func() { endSpan(span, err) }()

	entries, err := s.waitlist.List(ctx)
	if err != nil {
		return WaitlistView{}, fmt.Errorf("list waitlist: %w", err)
	}
	pending, err := s.waitlist.CountByStatus(ctx, waitlist.StatusNew)
	if err != nil {
		return WaitlistView{}, fmt.Errorf("count waitlist: %w", err)
	}
	return WaitlistView{Entries: entries, Pending: pending}, nil
}

// JoinWaitlist adds an applicant. Joining twice with the same phone returns
// the existing entry with created=false. Known participants are rejected.
func (s *ParticipantService) JoinWaitlist(ctx context.Context, phone, fullName string) (_ waitlist.Entry, created bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.JoinWaitlist")
	defer func() { endSpan(span, err) }()

	phone = participant.NormalizePhone(phone)
	if len(strings.TrimPrefix(phone, "+")) < 6 {
		return waitlist.Entry{}, false, invalidInputf("phone must hold at least 6 digits")
	}

	if _, exists, err := s.participants.GetByPhone(ctx, phone); err != nil {
		return waitlist.Entry{}, false, fmt.Errorf("get participant by phone: %w", err)
	} else if exists {
		return waitlist.Entry{}, false, conflictf("phone %s already belongs to a participant", phone)
	}

	existing, exists, err := s.waitlist.GetByPhone(ctx, phone)
	if err != nil {
		return waitlist.Entry{}, false, fmt.Errorf("get waitlist entry by phone: %w", err)
	}
	if exists {
		return existing, false, nil
	}

	entry := waitlist.Entry{
		Phone:    phone,
		FullName: strings.TrimSpace(fullName),
		Status:   waitlist.StatusNew,
	}
	if err := entry.Validate(); err != nil {
		return waitlist.Entry{}, false, invalidInputf("%v", err)
	}
	out, err := s.waitlist.Add(ctx, entry)
	if err != nil {
		return waitlist.Entry{}, false, fmt.Errorf("add waitlist entry: %w", err)
	}
	s.logger.InfoContext(ctx, "waitlist entry added", "entry_id", out.ID)
	return out, true, nil
}

// ReviewWaitlistEntry records an admin decision. Only new entries can be
// decided; deciding twice is a conflict.
func (s *ParticipantService) ReviewWaitlistEntry(ctx context.Context, entryID int64, status waitlist.Status) (_ waitlist.Entry, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.ReviewWaitlistEntry",
		attribute.Int64("pyramid.waitlist_entry_id", entryID),
	)
	defer func() { endSpan(span, err) }()

	var action string
	switch status {
	case waitlist.StatusApproved:
		action = audit.ActionWaitlistApproved
	case waitlist.StatusRejected:
		action = audit.ActionWaitlistRejected
	default:
		return waitlist.Entry{}, invalidInputf("waitlist decision must be approved or rejected, got %q", status)
	}
	if entryID <= 0 {
		return waitlist.Entry{}, invalidInputf("waitlist entry id must be positive")
	}

	entry, exists, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return waitlist.Entry{}, fmt.Errorf("get waitlist entry: %w", err)
	}
	if !exists {
		return waitlist.Entry{}, notFoundf("waitlist entry=%d", entryID)
	}
	if entry.Status != waitlist.StatusNew {
		return waitlist.Entry{}, conflictf("waitlist entry=%d already %s", entryID, entry.Status)
	}

	if err := s.waitlist.UpdateStatus(ctx, entryID, status); err != nil {
		return waitlist.Entry{}, fmt.Errorf("update waitlist entry status: %w", err)
	}
	entry.Status = status

	s.auditor.Record(ctx, action, audit.EntityWaitlist, entryID, map[string]string{"phone": entry.Phone})
	s.logger.InfoContext(ctx, "waitlist entry reviewed", "entry_id", entryID, "status", status)
	return entry, nil
}
