package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/fraud"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

type FraudService struct {
	seasons      season.Repository
	assignments  hierarchy.Repository
	hours        hours.Repository
	participants participant.Repository
	auditor      *AuditService
	thresholds   fraud.Thresholds
	logger       *logging.Logger
	now          func() time.Time
}

func NewFraudService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	participantRepo participant.Repository,
	auditSvc *AuditService,
	thresholds fraud.Thresholds,
	logger *logging.Logger,
) *FraudService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FraudService{
		seasons:      seasonRepo,
		assignments:  assignmentRepo,
		hours:        hoursRepo,
		participants: participantRepo,
		auditor:      auditSvc,
		thresholds:   thresholds,
		logger:       logger,
		now:          time.Now,
	}
}

// ActiveAlerts scans the active season's recent hours.
func (s *FraudService) ActiveAlerts(ctx context.Context) ([]fraud.Alert, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FraudService.ActiveAlerts")
	defer span.End()

	active, exists, err := s.seasons.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active season: %w", err)
	}
	if !exists {
		return nil, notFoundf("no active season")
	}

	now := s.now()
	today := season.Day(now)
	from := today.AddDate(0, 0, -s.thresholds.LookbackDays())

	var (
		assignments []hierarchy.Assignment
		records     []hours.Record
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		items, err := s.assignments.ListBySeason(ctx, active.ID)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		assignments = items
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.hours.ListInRange(ctx, from, today)
		if err != nil {
			return fmt.Errorf("list hours: %w", err)
		}
		records = items
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ParticipantID)
	}
	people, err := s.participants.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	alerts := fraud.Scan(now, assignments, records, indexParticipants(people), s.thresholds)
	for _, alert := range alerts {
		observability.FraudAlerts.WithLabelValues(string(alert.Type)).Inc()
	}
	return alerts, nil
}

// ReportAlerts scans and writes one audit entry per alert.
func (s *FraudService) ReportAlerts(ctx context.Context) (_ int, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FraudService.ReportAlerts")
	defer func() { endSpan(span, err) }()

	alerts, err := s.ActiveAlerts(ctx)
	if err != nil {
		return 0, err
	}
	for _, alert := range alerts {
		s.auditor.Record(ctx, audit.ActionFraudAlert, audit.EntityUser, alert.ParticipantID, map[string]any{
			"id":       alert.ID,
			"type":     alert.Type,
			"severity": alert.Severity,
			"message":  alert.Message,
			"date":     alert.Date.Format(season.DateLayout),
			"data":     alert.Data,
		})
	}

	s.logger.InfoContext(ctx, "fraud scan finished", "alerts", len(alerts))
	return len(alerts), nil
}
