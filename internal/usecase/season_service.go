package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

type CreateSeasonInput struct {
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	DailyTargetHours float64
}

type CloseSeasonResult struct {
	Season        season.Season
	Transition    transition.Result
	Notifications int
	// Resumed is set when the role changes came from an earlier, interrupted close.
	Resumed bool
}

type SeasonService struct {
	seasons      season.Repository
	participants participant.Repository
	transitions  *TransitionService
	broadcaster  *RoleChangeBroadcaster
	auditor      *AuditService
	locks        *resilience.KeyedMutex
	logger       *logging.Logger
}

func NewSeasonService(
	seasonRepo season.Repository,
	participantRepo participant.Repository,
	transitionSvc *TransitionService,
	broadcaster *RoleChangeBroadcaster,
	auditSvc *AuditService,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	return &SeasonService{
		seasons:      seasonRepo,
		participants: participantRepo,
		transitions:  transitionSvc,
		broadcaster:  broadcaster,
		auditor:      auditSvc,
		locks:        locks,
		logger:       logger,
	}
}

func (s *SeasonService) List(ctx context.Context) ([]season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.List")
	defer span.End()

	items, err := s.seasons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return items, nil
}

func (s *SeasonService) Get(ctx context.Context, seasonID int64) (season.Season, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.SeasonService.Get", seasonID)
	defer span.End()

	return s.get(ctx, seasonID)
}

func (s *SeasonService) GetActive(ctx context.Context) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetActive")
	defer span.End()

	item, exists, err := s.seasons.GetActive(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("get active season: %w", err)
	}
	if !exists {
		return season.Season{}, notFoundf("no active season")
	}
	return item, nil
}

func (s *SeasonService) Create(ctx context.Context, input CreateSeasonInput) (_ season.Season, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Create")
	defer func() { endSpan(span, err) }()

	start, end := season.Day(input.StartDate), season.Day(input.EndDate)
	item := season.Season{
		Name:             strings.TrimSpace(input.Name),
		StartDate:        start,
		EndDate:          end,
		DailyTargetHours: input.DailyTargetHours,
		DaysCount:        int(end.Sub(start).Hours()/24) + 1,
		Status:           season.StatusPlanned,
	}
	if err := item.Validate(); err != nil {
		return season.Season{}, invalidInputf("%v", err)
	}

	created, err := s.seasons.Create(ctx, item)
	if err != nil {
		return season.Season{}, fmt.Errorf("create season: %w", err)
	}
	s.logger.InfoContext(ctx, "season created", "season_id", created.ID, "name", created.Name)
	return created, nil
}

// Activate makes seasonID the only active season. Closed seasons cannot be
// reopened.
func (s *SeasonService) Activate(ctx context.Context, seasonID int64) (_ season.Season, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.SeasonService.Activate", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()

	item, err := s.get(ctx, seasonID)
	if err != nil {
		return season.Season{}, err
	}
	switch item.Status {
	case season.StatusActive:
		return item, nil
	case season.StatusClosed:
		return season.Season{}, conflictf("season=%d is closed", seasonID)
	}

	if err := s.seasons.Activate(ctx, seasonID); err != nil {
		return season.Season{}, fmt.Errorf("activate season: %w", err)
	}
	item.Status = season.StatusActive

	s.auditor.Record(ctx, audit.ActionSeasonActivated, audit.EntitySeason, seasonID, map[string]any{"name": item.Name})
	s.logger.InfoContext(ctx, "season activated", "season_id", seasonID)
	return item, nil
}

// Close runs the season-end transitions, marks the season closed, and
// notifies every participant whose role changed. Retrying after a failed
// status write reuses the recorded transitions.
func (s *SeasonService) Close(ctx context.Context, seasonID int64) (_ CloseSeasonResult, err error) {
	ctx, span := startSeasonSpan(ctx, "usecase.SeasonService.Close", seasonID)
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(seasonLockKey(seasonID))
	defer unlock()

	item, err := s.get(ctx, seasonID)
	if err != nil {
		return CloseSeasonResult{}, err
	}
	if item.Status == season.StatusClosed {
		return CloseSeasonResult{}, conflictf("season=%d already closed", seasonID)
	}

	result, resumed, err := s.transitions.applyOnce(ctx, seasonID)
	if err != nil {
		return CloseSeasonResult{}, fmt.Errorf("season end transitions: %w", err)
	}
	if resumed {
		s.logger.WarnContext(ctx, "season end transitions already applied, finishing close", "season_id", seasonID)
	}
	if err := s.seasons.UpdateStatus(ctx, seasonID, season.StatusClosed); err != nil {
		return CloseSeasonResult{}, fmt.Errorf("close season: %w", err)
	}
	item.Status = season.StatusClosed

	s.auditor.Record(ctx, audit.ActionSeasonClosed, audit.EntitySeason, seasonID, map[string]any{
		"mode":       result.Mode,
		"promotions": len(result.Promotions),
		"demotions":  len(result.Demotions),
		"maintained": len(result.Maintained),
	})

	out := CloseSeasonResult{Season: item, Transition: result, Resumed: resumed}
	out.Notifications = s.notify(ctx, item, result)

	s.logger.InfoContext(ctx, "season closed",
		"season_id", seasonID,
		"promotions", len(result.Promotions),
		"demotions", len(result.Demotions),
		"notifications", out.Notifications,
	)
	return out, nil
}

func (s *SeasonService) notify(ctx context.Context, item season.Season, result transition.Result) int {
	if s.broadcaster == nil || s.participants == nil {
		return 0
	}

	ids := make([]int64, 0, len(result.Promotions)+len(result.Demotions))
	for _, move := range result.Promotions {
		ids = append(ids, move.ParticipantID)
	}
	for _, move := range result.Demotions {
		ids = append(ids, move.ParticipantID)
	}
	if len(ids) == 0 {
		return 0
	}

	people, err := s.participants.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "load participants for notification failed", "season_id", item.ID, "error", err)
		return 0
	}
	return s.broadcaster.Broadcast(ctx, item.Name, result, indexParticipants(people))
}

func (s *SeasonService) get(ctx context.Context, seasonID int64) (season.Season, error) {
	return lookupSeason(ctx, s.seasons, seasonID)
}

func indexParticipants(items []participant.Participant) map[int64]participant.Participant {
	out := make(map[int64]participant.Participant, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}
