package usecase

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

// RoleChange tells one participant about their new role.
type RoleChange struct {
	ParticipantID int64
	ChatID        int64
	Name          string
	SeasonName    string
	From          hierarchy.Role
	To            hierarchy.Role
}

// Notifier delivers a role change to a participant.
type Notifier interface {
	NotifyRoleChange(ctx context.Context, change RoleChange) error
}

type NopNotifier struct{}

func (NopNotifier) NotifyRoleChange(context.Context, RoleChange) error { return nil }

// RoleChangeBroadcaster fans role changes out to a Notifier on a bounded
// goroutine pool. Participants without a chat id are skipped.
type RoleChangeBroadcaster struct {
	notifier Notifier
	pool     *ants.Pool
	logger   *logging.Logger
}

func NewRoleChangeBroadcaster(notifier Notifier, workers int, logger *logging.Logger) (*RoleChangeBroadcaster, error) {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := ants.NewPool(max(workers, 1))
	if err != nil {
		return nil, err
	}
	return &RoleChangeBroadcaster{
		notifier: notifier,
		pool:     pool,
		logger:   logger,
	}, nil
}

func (b *RoleChangeBroadcaster) Close() {
	if b != nil && b.pool != nil {
		b.pool.Release()
	}
}

// Broadcast blocks until every notification has been attempted and returns
// how many were delivered.
func (b *RoleChangeBroadcaster) Broadcast(ctx context.Context, seasonName string, result transition.Result, people map[int64]participant.Participant) int {
	if b == nil {
		return 0
	}

	moves := make([]transition.Move, 0, len(result.Promotions)+len(result.Demotions))
	moves = append(moves, result.Promotions...)
	moves = append(moves, result.Demotions...)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, move := range moves {
		p, ok := people[move.ParticipantID]
		if !ok || p.TelegramUserID == nil {
			observability.NotificationsSent.WithLabelValues("skipped").Inc()
			continue
		}
		change := RoleChange{
			ParticipantID: move.ParticipantID,
			ChatID:        *p.TelegramUserID,
			Name:          p.DisplayName(),
			SeasonName:    seasonName,
			From:          move.From,
			To:            move.To,
		}

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := b.notifier.NotifyRoleChange(ctx, change); err != nil {
				observability.NotificationsSent.WithLabelValues("failed").Inc()
				b.logger.WarnContext(ctx, "role change notification failed",
					"participant_id", change.ParticipantID,
					"to_role", change.To,
					"error", err,
				)
				return
			}
			observability.NotificationsSent.WithLabelValues("sent").Inc()
			mu.Lock()
			delivered++
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			observability.NotificationsSent.WithLabelValues("failed").Inc()
			b.logger.WarnContext(ctx, "submit notification failed", "participant_id", change.ParticipantID, "error", err)
		}
	}
	wg.Wait()

	return delivered
}
