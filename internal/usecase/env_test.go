package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy/hierarchytest"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/pyramid-league/internal/platform/id"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
)

const testSeasonID int64 = 1

func testSeason() season.Season {
	return season.Season{
		ID:               testSeasonID,
		Name:             "March",
		StartDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DailyTargetHours: 8,
		DaysCount:        10,
		Status:           season.StatusActive,
	}
}

func testDay(day int) time.Time {
	return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
}

type testEnv struct {
	seasons      *memory.SeasonRepository
	participants *memory.ParticipantRepository
	assignments  *memory.AssignmentRepository
	hours        *memory.HoursRepository
	aggregates   *memory.AggregateRepository
	audits       *memory.AuditRepository
	transitions  *memory.TransitionRepository
	waitlist     *memory.WaitlistRepository
	notifier     *recordingNotifier

	auditSvc       *AuditService
	rankingSvc     *RankingService
	aggregationSvc *AggregationService
	transitionSvc  *TransitionService
	seasonSvc      *SeasonService
	redistribution *RedistributionService
	hierarchySvc   *HierarchyService
	participantSvc *ParticipantService
}

func newTestEnv(t *testing.T, assignments []hierarchy.Assignment, records []hours.Record) *testEnv {
	t.Helper()

	people := make([]participant.Participant, 0, len(assignments))
	for _, a := range assignments {
		chatID := 9000 + a.ParticipantID
		people = append(people, participant.Participant{
			ID:             a.ParticipantID,
			Phone:          "+6281100" + strconv.FormatInt(a.ParticipantID, 10),
			TelegramUserID: &chatID,
			Status:         participant.StatusActive,
		})
	}

	logger := logging.NewNop()
	locks := &resilience.KeyedMutex{}
	env := &testEnv{
		seasons:      memory.NewSeasonRepository([]season.Season{testSeason()}),
		participants: memory.NewParticipantRepository(people),
		assignments:  memory.NewAssignmentRepository(assignments),
		hours:        memory.NewHoursRepository(records),
		aggregates:   memory.NewAggregateRepository(),
		audits:       memory.NewAuditRepository(),
		waitlist:     memory.NewWaitlistRepository(),
		notifier:     &recordingNotifier{},
	}
	env.transitions = memory.NewTransitionRepository(env.assignments)

	broadcaster, err := NewRoleChangeBroadcaster(env.notifier, 4, logger)
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}
	t.Cleanup(broadcaster.Close)

	env.auditSvc = NewAuditService(env.audits, idgen.Sequence("audit"), logger)
	env.rankingSvc = NewRankingService(env.seasons, env.assignments, env.hours, env.aggregates, locks, logger)
	env.aggregationSvc = NewAggregationService(env.seasons, env.assignments, env.hours, env.aggregates, env.rankingSvc, env.auditSvc, locks, logger)
	env.transitionSvc = NewTransitionService(env.seasons, env.assignments, env.hours, env.aggregates, env.transitions, transition.DefaultPolicy(), locks, logger)
	env.seasonSvc = NewSeasonService(env.seasons, env.participants, env.transitionSvc, broadcaster, env.auditSvc, locks, logger)
	env.redistribution = NewRedistributionService(env.seasons, env.assignments, env.hours, env.aggregates, env.auditSvc, locks, logger)
	env.hierarchySvc = NewHierarchyService(env.seasons, env.assignments, env.hours, env.aggregates, env.participants)
	env.participantSvc = NewParticipantService(env.participants, env.waitlist, env.seasons, env.assignments, env.auditSvc, logger)
	return env
}

// smallPyramid is leader 1, captains 2-3, subcaptains 4-7, members 8-15.
func smallPyramid() []hierarchy.Assignment {
	return hierarchytest.Pyramid(testSeasonID, hierarchytest.Shape{Captains: 2, SubcaptainsPerCaptain: 2, MembersPerSubcaptain: 2})
}

// uniformHours gives every participant the same hours on each listed day.
func uniformHours(assignments []hierarchy.Assignment, h float64, days ...int) []hours.Record {
	out := make([]hours.Record, 0, len(assignments)*len(days))
	for _, day := range days {
		for _, a := range assignments {
			out = append(out, hours.Record{ParticipantID: a.ParticipantID, WorkDate: testDay(day), Hours: h})
		}
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []RoleChange
}

func (n *recordingNotifier) NotifyRoleChange(_ context.Context, change RoleChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}
