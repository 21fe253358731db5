package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/pyramid-league/internal/domain/fraud"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/pyramid-league/internal/platform/id"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

const testAdminToken = "s3cret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	ds := memory.SeedDemo(time.Now())
	seasons := memory.NewSeasonRepository(ds.Seasons)
	participants := memory.NewParticipantRepository(ds.Participants)
	assignments := memory.NewAssignmentRepository(ds.Assignments)
	hoursRepo := memory.NewHoursRepository(ds.Hours)
	aggregates := memory.NewAggregateRepository()
	locks := &resilience.KeyedMutex{}

	broadcaster, err := usecase.NewRoleChangeBroadcaster(usecase.NopNotifier{}, 2, logger)
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}
	t.Cleanup(broadcaster.Close)

	auditSvc := usecase.NewAuditService(memory.NewAuditRepository(), idgen.UUIDv7(), logger)
	rankingSvc := usecase.NewRankingService(seasons, assignments, hoursRepo, aggregates, locks, logger)
	transitionSvc := usecase.NewTransitionService(seasons, assignments, hoursRepo, aggregates, memory.NewTransitionRepository(assignments), transition.DefaultPolicy(), locks, logger)

	handler := NewHandler(Services{
		Seasons:        usecase.NewSeasonService(seasons, participants, transitionSvc, broadcaster, auditSvc, locks, logger),
		Aggregation:    usecase.NewAggregationService(seasons, assignments, hoursRepo, aggregates, rankingSvc, auditSvc, locks, logger),
		Redistribution: usecase.NewRedistributionService(seasons, assignments, hoursRepo, aggregates, auditSvc, locks, logger),
		Hierarchy:      usecase.NewHierarchyService(seasons, assignments, hoursRepo, aggregates, participants),
		Fraud:          usecase.NewFraudService(seasons, assignments, hoursRepo, participants, auditSvc, fraud.DefaultThresholds(), logger),
		Hours:          usecase.NewHoursService(hoursRepo, memory.NewImportRepository(), auditSvc, logger),
		Audit:          auditSvc,
		Participants:   usecase.NewParticipantService(participants, memory.NewWaitlistRepository(), seasons, assignments, auditSvc, logger),
	}, logger)

	return NewRouter(handler, RouterConfig{AdminToken: testAdminToken}, logger)
}

func serve(router http.Handler, method, target, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set(adminTokenHeader, testAdminToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v (body=%s)", err, rec.Body.String())
	}
	return body
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/v1/seasons/1/recalculate", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/seasons/1/recalculate", nil)
	req.Header.Set(adminTokenHeader, "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 with wrong token, got %d", rec.Code)
	}
}

func TestRequireAdminToken_UnconfiguredIsUnavailable(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/hours", nil)
	req.Header.Set(adminTokenHeader, "anything")
	rec := httptest.NewRecorder()

	RequireAdminToken("  ", next).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestRouter_ListSeasonsAndActive(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/v1/seasons", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, ok := decodeEnvelope(t, rec)["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one season, got %v", data)
	}

	rec = serve(router, http.MethodGet, "/v1/seasons/active", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	active, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := active["status"].(string); got != "active" {
		t.Fatalf("expected active status, got %v", active["status"])
	}
	if got, _ := active["unitTarget"].(float64); got != 240 {
		t.Fatalf("expected unitTarget 240, got %v", active["unitTarget"])
	}
}

func TestRouter_GetSeasonErrors(t *testing.T) {
	router := newTestRouter(t)

	if rec := serve(router, http.MethodGet, "/v1/seasons/abc", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad id, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/v1/seasons/999", "", false); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown season, got %d", rec.Code)
	}
}

func TestRouter_RecalculateThenLeaderboards(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/v1/seasons/1/recalculate", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	result, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := result["seasonRows"].(float64); got != 49 {
		t.Fatalf("expected 49 season rows, got %v", result["seasonRows"])
	}

	rec = serve(router, http.MethodGet, "/v1/seasons/1/leaderboards/captains?limit=2", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	top, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(top) != 2 {
		t.Fatalf("expected 2 captains, got %d", len(top))
	}
	first, _ := top[0].(map[string]any)
	if got, _ := first["position"].(float64); got != 1 {
		t.Fatalf("expected first position 1, got %v", first["position"])
	}

	if rec := serve(router, http.MethodGet, "/v1/seasons/1/leaderboards/members?limit=5000", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for oversized limit, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/v1/seasons/1/leaderboards/members?limit=-1", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for negative limit, got %d", rec.Code)
	}
}

func TestRouter_ImportHoursValidation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{name: "empty records", body: `{"records":[]}`},
		{name: "unknown field", body: `{"records":[{"participantId":1,"workDate":"2026-03-01","hours":4}],"extra":true}`},
		{name: "bad date", body: `{"records":[{"participantId":1,"workDate":"01/03/2026","hours":4}]}`},
		{name: "hours out of range", body: `{"records":[{"participantId":1,"workDate":"2026-03-01","hours":30}]}`},
		{name: "malformed json", body: `{"records":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/v1/hours", tc.body, true)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_ImportHoursDeduplicates(t *testing.T) {
	router := newTestRouter(t)

	body := `{"records":[
		{"participantId":1,"workDate":"2026-03-01","hours":4},
		{"participantId":1,"workDate":"2026-03-01","hours":6},
		{"participantId":2,"workDate":"2026-03-01","hours":5}
	]}`
	rec := serve(router, http.MethodPost, "/v1/hours", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	result, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := result["received"].(float64); got != 3 {
		t.Fatalf("expected received=3, got %v", result["received"])
	}
	if got, _ := result["written"].(float64); got != 2 {
		t.Fatalf("expected written=2, got %v", result["written"])
	}

	rec = serve(router, http.MethodGet, "/v1/audit?limit=1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	entries, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
}

func TestRouter_CreateSeasonRejectsInvertedDates(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"April","startDate":"2026-04-30","endDate":"2026-04-01","dailyTargetHours":8}`
	if rec := serve(router, http.MethodPost, "/v1/seasons", body, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rec.Code, rec.Body.String())
	}

	body = `{"name":"April","startDate":"2026-04-01","endDate":"2026-04-30","dailyTargetHours":8}`
	rec := serve(router, http.MethodPost, "/v1/seasons", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	created, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := created["status"].(string); got != "planned" {
		t.Fatalf("expected planned status, got %v", created["status"])
	}
	if got, _ := created["daysCount"].(float64); got != 30 {
		t.Fatalf("expected daysCount 30, got %v", created["daysCount"])
	}
}

func TestRouter_HierarchyStats(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/v1/seasons/1/hierarchy/stats", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	stats, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(stats) != 4 {
		t.Fatalf("expected 4 tier rows, got %d", len(stats))
	}
}

func TestShouldTraceRequest(t *testing.T) {
	cases := map[string]bool{
		"/healthz":                false,
		"/metrics":                false,
		"/docs":                   false,
		"/openapi.yaml":           false,
		"/v1/seasons":             true,
		"/v1/seasons/1/hierarchy": true,
	}
	for path, want := range cases {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q) got=%v want=%v", path, got, want)
		}
	}
}

func TestRouter_OpenAPIConditionalGet(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/openapi.yaml", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" || !strings.Contains(rec.Body.String(), "openapi:") {
		t.Fatalf("expected embedded document with etag, got etag=%q", etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("expected 304 with empty body, got %d (%d bytes)", rec.Code, rec.Body.Len())
	}
}

func TestRouter_SwaggerUI(t *testing.T) {
	rec := serve(newTestRouter(t), http.MethodGet, "/docs", "", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "persistAuthorization") {
		t.Fatalf("unexpected docs response: %d", rec.Code)
	}
}

func TestRouter_WaitlistFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/v1/waitlist", `{"phone":"+62 899 000 111","fullName":"Budi"}`, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	entry, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	id, _ := entry["id"].(float64)
	if id == 0 || entry["phone"] != "+62899000111" || entry["status"] != "new" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	rec = serve(router, http.MethodPost, "/v1/waitlist", `{"phone":"+62899000111"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for a repeat join, got %d", rec.Code)
	}
	rec = serve(router, http.MethodPost, "/v1/waitlist", `{"phone":"+628110000001"}`, false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for a known participant, got %d", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/v1/waitlist", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	view, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if pending, _ := view["pending"].(float64); pending != 1 {
		t.Fatalf("expected pending=1, got %v", view["pending"])
	}

	target := fmt.Sprintf("/v1/waitlist/%d/approve", int64(id))
	if rec = serve(router, http.MethodPost, target, "", false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}
	if rec = serve(router, http.MethodPost, target, "", true); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec = serve(router, http.MethodPost, fmt.Sprintf("/v1/waitlist/%d/reject", int64(id)), "", true); rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for a decided entry, got %d", rec.Code)
	}
	if rec = serve(router, http.MethodPost, "/v1/waitlist/abc/approve", "", true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a bad id, got %d", rec.Code)
	}
}

func TestRouter_ParticipantsImportsAndDashboard(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/v1/participants", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	list, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	people, _ := list["participants"].([]any)
	if len(people) == 0 || list["seasonId"] == nil {
		t.Fatalf("expected participants of the active season, got %v", list)
	}
	first, _ := people[0].(map[string]any)
	if first["role"] != "leader" {
		t.Fatalf("expected first participant to lead, got %v", first)
	}

	today := time.Now().Format("2006-01-02")
	body := fmt.Sprintf(`{"fileName":"today.xlsx","records":[{"participantId":1,"workDate":%q,"hours":4}]}`, today)
	if rec = serve(router, http.MethodPost, "/v1/hours", body, true); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/v1/imports?limit=5", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	imports, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(imports) != 1 {
		t.Fatalf("expected one import, got %v", imports)
	}
	item, _ := imports[0].(map[string]any)
	if item["fileName"] != "today.xlsx" || item["status"] != "processed" {
		t.Fatalf("unexpected import: %v", item)
	}

	rec = serve(router, http.MethodGet, "/v1/dashboard/stats?date="+today, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	stats, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if n, _ := stats["participants"].(float64); int(n) != len(people) {
		t.Fatalf("expected participants=%d, got %v", len(people), stats["participants"])
	}
	if stats["date"] != today || stats["seasonId"] == nil {
		t.Fatalf("unexpected dashboard stats: %v", stats)
	}
	if rec = serve(router, http.MethodGet, "/v1/dashboard/stats?date=03-2026", "", true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a bad date, got %d", rec.Code)
	}
}
