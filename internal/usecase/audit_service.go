package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	idgen "github.com/riskibarqy/pyramid-league/internal/platform/id"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

// AuditService appends admin actions to the audit log. A failed write is
// logged and swallowed so it never fails the action being audited.
type AuditService struct {
	repo   audit.Repository
	ids    idgen.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewAuditService(repo audit.Repository, ids idgen.Generator, logger *logging.Logger) *AuditService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditService{
		repo:   repo,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AuditService) Record(ctx context.Context, action, entityType string, entityID int64, payload any) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.record(ctx, action, entityType, entityID, payload); err != nil {
		s.logger.WarnContext(ctx, "audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

func (s *AuditService) record(ctx context.Context, action, entityType string, entityID int64, payload any) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditService.Record")
	defer span.End()

	id, err := s.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate audit id: %w", err)
	}

	var body []byte
	if payload != nil {
		body, err = sonic.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode audit payload: %w", err)
		}
	}

	return s.repo.Insert(ctx, audit.Entry{
		ID:         id,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    body,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *AuditService) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return items, nil
}
