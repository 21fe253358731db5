package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/fraud"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

func newTestFraudService(env *testEnv) *FraudService {
	svc := NewFraudService(env.seasons, env.assignments, env.hours, env.participants, env.auditSvc, fraud.DefaultThresholds(), logging.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestFraudService_ActiveAlerts(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	records := uniformHours(assignments, 2, 1, 2, 3, 4, 5, 6, 7, 8, 10)
	records = append(records, uniformHours(assignments[:7], 2, 9)...)
	records = append(records, hours.Record{ParticipantID: 8, WorkDate: testDay(9), Hours: 18})
	env := newTestEnv(t, assignments, records)
	svc := newTestFraudService(env)

	alerts, err := svc.ActiveAlerts(context.Background())
	if err != nil {
		t.Fatalf("active alerts: %v", err)
	}

	var highHours bool
	for _, alert := range alerts {
		if alert.Type == fraud.AlertZeroStreak {
			t.Fatalf("unexpected zero streak alert: %+v", alert)
		}
		if alert.Type == fraud.AlertHighHours && alert.ParticipantID == 8 {
			highHours = true
			if alert.Severity != fraud.SeverityHigh || alert.Phone == "" {
				t.Fatalf("unexpected high hours alert: %+v", alert)
			}
		}
	}
	if !highHours {
		t.Fatalf("expected high_hours alert for participant 8, got %+v", alerts)
	}
}

func TestFraudService_ReportAlerts_WritesAudit(t *testing.T) {
	t.Parallel()

	assignments := smallPyramid()
	records := uniformHours(assignments, 2, 1, 2, 3, 4, 5, 6, 7, 8, 10)
	records = append(records, hours.Record{ParticipantID: 9, WorkDate: testDay(9), Hours: 20})
	env := newTestEnv(t, assignments, records)
	svc := newTestFraudService(env)

	n, err := svc.ReportAlerts(context.Background())
	if err != nil {
		t.Fatalf("report alerts: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected alerts")
	}

	entries, _ := env.audits.List(context.Background(), 100)
	if len(entries) != n {
		t.Fatalf("audit entries got=%d want=%d", len(entries), n)
	}
	for _, e := range entries {
		if e.Action != audit.ActionFraudAlert || e.EntityType != audit.EntityUser {
			t.Fatalf("unexpected audit entry: %+v", e)
		}
	}
}

func TestFraudService_ActiveAlerts_NoActiveSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, smallPyramid(), nil)
	if err := env.seasons.UpdateStatus(context.Background(), testSeasonID, season.StatusClosed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if _, err := newTestFraudService(env).ActiveAlerts(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err got=%v want=%v", err, ErrNotFound)
	}
}
