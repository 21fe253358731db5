package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/ranking"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
)

const defaultLeaderboardLimit = 10

// tierCapacity is the size of a full pyramid per role.
var tierCapacity = map[hierarchy.Role]int{
	hierarchy.RoleLeader:     1,
	hierarchy.RoleCaptain:    10,
	hierarchy.RoleSubcaptain: 100,
	hierarchy.RoleMember:     1000,
}

type Node struct {
	ParticipantID int64
	Name          string
	Role          hierarchy.Role
	GroupIndex    *int
	Aggregate     *aggregate.Season
}

type CaptainNode struct {
	Node
	SubcaptainCount int
	MemberCount     int
}

type TreeView struct {
	SeasonID int64
	Leader   *Node
	Captains []CaptainNode
	Orphans  []hierarchy.Orphan
}

type TierStat struct {
	Role    hierarchy.Role
	Current int
	Max     int
}

// DashboardStats summarises the active season for the admin home page.
// Everything is zero when no season is active.
type DashboardStats struct {
	SeasonID     int64
	Participants int
	Date         time.Time
	DailyHours   float64
	GoalPercent  float64
}

type LeaderboardEntry struct {
	Position int
	Node
}

// HierarchyService serves read views of one season's pyramid.
type HierarchyService struct {
	loader       snapshotLoader
	participants participant.Repository
}

func NewHierarchyService(
	seasonRepo season.Repository,
	assignmentRepo hierarchy.Repository,
	hoursRepo hours.Repository,
	aggregateRepo aggregate.Repository,
	participantRepo participant.Repository,
) *HierarchyService {
	return &HierarchyService{
		loader: snapshotLoader{
			seasons:     seasonRepo,
			assignments: assignmentRepo,
			hours:       hoursRepo,
			aggregates:  aggregateRepo,
		},
		participants: participantRepo,
	}
}

func (s *HierarchyService) GetTree(ctx context.Context, seasonID int64) (TreeView, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.HierarchyService.GetTree", seasonID)
	defer span.End()

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{aggregates: true})
	if err != nil {
		return TreeView{}, err
	}
	tree := hierarchy.BuildTree(snap.Assignments)

	captains := tree.Captains()
	ids := make([]int64, 0, len(captains)+1)
	if leader, ok := tree.Leader(); ok {
		ids = append(ids, leader.ParticipantID)
	}
	for _, c := range captains {
		ids = append(ids, c.ParticipantID)
	}
	names, err := s.names(ctx, ids)
	if err != nil {
		return TreeView{}, err
	}
	rows := indexAggregates(snap.Aggregates)

	view := TreeView{
		SeasonID: seasonID,
		Captains: make([]CaptainNode, 0, len(captains)),
		Orphans:  tree.Orphans(),
	}
	if leader, ok := tree.Leader(); ok {
		node := newNode(leader, names, rows)
		view.Leader = &node
	}
	for _, c := range captains {
		subs := tree.SubcaptainsOf(c.ParticipantID)
		members := 0
		for _, sub := range subs {
			members += len(tree.MembersOf(sub.ParticipantID))
		}
		view.Captains = append(view.Captains, CaptainNode{
			Node:            newNode(c, names, rows),
			SubcaptainCount: len(subs),
			MemberCount:     members,
		})
	}
	return view, nil
}

// Stats reports how full each tier is against the 1/10/100/1000 pyramid.
func (s *HierarchyService) Stats(ctx context.Context, seasonID int64) ([]TierStat, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.HierarchyService.Stats", seasonID)
	defer span.End()

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{})
	if err != nil {
		return nil, err
	}

	counts := make(map[hierarchy.Role]int, len(tierCapacity))
	for _, a := range snap.Assignments {
		counts[a.Role]++
	}
	out := make([]TierStat, 0, len(tierCapacity))
	for _, role := range []hierarchy.Role{hierarchy.RoleLeader, hierarchy.RoleCaptain, hierarchy.RoleSubcaptain, hierarchy.RoleMember} {
		out = append(out, TierStat{Role: role, Current: counts[role], Max: tierCapacity[role]})
	}
	return out, nil
}

// Dashboard reports the active season's head count, the hours logged by
// assigned participants on day, and overall progress toward the season goal.
func (s *HierarchyService) Dashboard(ctx context.Context, day time.Time) (_ DashboardStats, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HierarchyService.Dashboard")
	defer func() { endSpan(span, err) }()

	day = season.Day(day)
	out := DashboardStats{Date: day}
	active, ok, err := s.loader.seasons.GetActive(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("get active season: %w", err)
	}
	if !ok {
		return out, nil
	}

	snap, err := s.loader.load(ctx, active.ID, snapshotParts{aggregates: true})
	if err != nil {
		return DashboardStats{}, err
	}
	out.SeasonID = active.ID
	out.Participants = len(snap.Assignments)

	assigned := make(map[int64]struct{}, len(snap.Assignments))
	for _, a := range snap.Assignments {
		assigned[a.ParticipantID] = struct{}{}
	}
	records, err := s.loader.hours.ListInRange(ctx, day, day)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list hours: %w", err)
	}
	for _, r := range records {
		if _, ok := assigned[r.ParticipantID]; ok {
			out.DailyHours += r.Hours
		}
	}

	var logged float64
	for _, row := range snap.Aggregates {
		if _, ok := assigned[row.ParticipantID]; ok {
			logged += row.PersonalTotal
		}
	}
	if goal := float64(out.Participants) * active.UnitTarget(); goal > 0 {
		out.GoalPercent = math.Round(logged/goal*10000) / 100
	}
	return out, nil
}

// TopCaptains ranks captains by the standard comparator.
func (s *HierarchyService) TopCaptains(ctx context.Context, seasonID int64, limit int) ([]LeaderboardEntry, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.HierarchyService.TopCaptains", seasonID)
	defer span.End()

	return s.leaderboard(ctx, seasonID, hierarchy.RoleCaptain, limit, nil)
}

// TopMembers ranks members by personal hours.
func (s *HierarchyService) TopMembers(ctx context.Context, seasonID int64, limit int) ([]LeaderboardEntry, error) {
	ctx, span := startSeasonSpan(ctx, "usecase.HierarchyService.TopMembers", seasonID)
	defer span.End()

	return s.leaderboard(ctx, seasonID, hierarchy.RoleMember, limit, ranking.ByPersonal)
}

func (s *HierarchyService) leaderboard(
	ctx context.Context,
	seasonID int64,
	role hierarchy.Role,
	limit int,
	less func(a, b aggregate.Season) bool,
) ([]LeaderboardEntry, error) {
	if limit < 0 || limit > 1000 {
		return nil, invalidInputf("limit must be between 0 and 1000")
	}
	if limit == 0 {
		limit = defaultLeaderboardLimit
	}

	snap, err := s.loader.load(ctx, seasonID, snapshotParts{aggregates: true})
	if err != nil {
		return nil, err
	}
	assigned := make(map[int64]hierarchy.Assignment, len(snap.Assignments))
	for _, a := range snap.Assignments {
		assigned[a.ParticipantID] = a
	}

	top := ranking.Top(snap.Aggregates, role, limit, less)
	ids := make([]int64, 0, len(top))
	for _, row := range top {
		ids = append(ids, row.ParticipantID)
	}
	names, err := s.names(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, 0, len(top))
	for i, row := range top {
		a, ok := assigned[row.ParticipantID]
		if !ok {
			a = hierarchy.Assignment{ParticipantID: row.ParticipantID, Role: row.Role}
		}
		out = append(out, LeaderboardEntry{
			Position: i + 1,
			Node: Node{
				ParticipantID: row.ParticipantID,
				Name:          names[row.ParticipantID],
				Role:          a.Role,
				GroupIndex:    a.GroupIndex,
				Aggregate:     &row,
			},
		})
	}
	return out, nil
}

func (s *HierarchyService) names(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 || s.participants == nil {
		return out, nil
	}
	people, err := s.participants.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for _, p := range people {
		out[p.ID] = p.DisplayName()
	}
	return out, nil
}

func newNode(a hierarchy.Assignment, names map[int64]string, rows map[int64]aggregate.Season) Node {
	node := Node{
		ParticipantID: a.ParticipantID,
		Name:          names[a.ParticipantID],
		Role:          a.Role,
		GroupIndex:    a.GroupIndex,
	}
	if row, ok := rows[a.ParticipantID]; ok {
		node.Aggregate = &row
	}
	return node
}

func indexAggregates(rows []aggregate.Season) map[int64]aggregate.Season {
	out := make(map[int64]aggregate.Season, len(rows))
	for _, row := range rows {
		out[row.ParticipantID] = row
	}
	return out
}
