package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/config"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                 config.EnvDev,
		HTTPAddr:               ":0",
		StorageDriver:          config.StorageDriverMemory,
		CacheEnabled:           true,
		CacheTTL:               time.Minute,
		CORSAllowedOrigins:     []string{"*"},
		AdminToken:             "token",
		NotifyWorkers:          2,
		FraudDailyHours:        16,
		FraudAnomalyMultiplier: 4.7,
		FraudZeroStreakDays:    7,
	}
}

func TestNewContainer_MemoryStorageServesRequests(t *testing.T) {
	cfg := memoryConfig()
	logger := logging.NewNop()

	container, err := NewContainer(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	srv, err := NewHTTPServer(cfg, container, logger)
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/seasons/active", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	result, err := container.Services.Aggregation.RecalculateAggregates(context.Background(), 1)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if result.SeasonRows == 0 {
		t.Fatalf("expected season rows for the demo season")
	}
}

func TestNewContainer_MissingPolicyFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.TransitionPolicyFile = "testdata/does-not-exist.toml"

	if _, err := NewContainer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""

	if _, err := NewHTTPServer(cfg, &Container{}, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestStartFraudScan_RejectsBadSpec(t *testing.T) {
	container, err := NewContainer(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if _, err := StartFraudScan("not a cron", container.Services.Fraud, logging.NewNop()); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}

	scheduler, err := StartFraudScan("*/5 * * * *", container.Services.Fraud, logging.NewNop())
	if err != nil {
		t.Fatalf("start fraud scan: %v", err)
	}
	<-scheduler.Stop().Done()
}
