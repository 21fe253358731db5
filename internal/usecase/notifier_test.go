package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

type flakyNotifier struct {
	calls atomic.Int32
}

func (n *flakyNotifier) NotifyRoleChange(_ context.Context, change RoleChange) error {
	n.calls.Add(1)
	if change.ParticipantID == 2 {
		return errors.New("chat not found")
	}
	return nil
}

func TestRoleChangeBroadcaster_Broadcast(t *testing.T) {
	t.Parallel()

	notifier := &flakyNotifier{}
	b, err := NewRoleChangeBroadcaster(notifier, 2, logging.NewNop())
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}
	defer b.Close()

	chat := func(v int64) *int64 { return &v }
	people := map[int64]participant.Participant{
		1: {ID: 1, Phone: "+1", TelegramUserID: chat(101)},
		2: {ID: 2, Phone: "+2", TelegramUserID: chat(102)},
		3: {ID: 3, Phone: "+3"},
	}
	result := transition.Result{
		Promotions: []transition.Move{
			{ParticipantID: 1, From: hierarchy.RoleCaptain, To: hierarchy.RoleLeader},
			{ParticipantID: 3, From: hierarchy.RoleMember, To: hierarchy.RoleSubcaptain},
		},
		Demotions: []transition.Move{
			{ParticipantID: 2, From: hierarchy.RoleLeader, To: hierarchy.RoleCaptain},
			{ParticipantID: 4, From: hierarchy.RoleSubcaptain, To: hierarchy.RoleMember},
		},
	}

	delivered := b.Broadcast(context.Background(), "March", result, people)
	if delivered != 1 {
		t.Fatalf("delivered got=%d want=1", delivered)
	}
	if calls := notifier.calls.Load(); calls != 2 {
		t.Fatalf("notifier calls got=%d want=2", calls)
	}
}
