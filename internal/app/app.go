package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pyramid-league/external/telegram"
	"github.com/riskibarqy/pyramid-league/internal/config"
	"github.com/riskibarqy/pyramid-league/internal/domain/fraud"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	idgen "github.com/riskibarqy/pyramid-league/internal/platform/id"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

// Container owns every long-lived dependency shared by the API server,
// the scheduler and the operator CLI.
type Container struct {
	Services httpapi.Services

	db          *sqlx.DB
	broadcaster *usecase.RoleChangeBroadcaster
}

func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	policy := transition.DefaultPolicy()
	if cfg.TransitionPolicyFile != "" {
		loaded, err := transition.LoadPolicy(cfg.TransitionPolicyFile)
		if err != nil {
			return nil, fmt.Errorf("load transition policy: %w", err)
		}
		policy = loaded
		logger.Info("transition policy loaded", "path", cfg.TransitionPolicyFile)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	repos, db, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	broadcaster, err := usecase.NewRoleChangeBroadcaster(notifier, cfg.NotifyWorkers, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build notifier pool: %w", err)
	}

	thresholds := fraud.DefaultThresholds()
	thresholds.DailyHours = cfg.FraudDailyHours
	thresholds.AnomalyMultiplier = cfg.FraudAnomalyMultiplier
	thresholds.ZeroStreakDays = cfg.FraudZeroStreakDays
	if thresholds.ZeroStreakWindow < thresholds.ZeroStreakDays {
		thresholds.ZeroStreakWindow = thresholds.ZeroStreakDays
	}

	locks := &resilience.KeyedMutex{}
	auditSvc := usecase.NewAuditService(repos.audits, idgen.UUIDv7(), logger)
	rankingSvc := usecase.NewRankingService(repos.seasons, repos.assignments, repos.hours, repos.aggregates, locks, logger)
	transitionSvc := usecase.NewTransitionService(repos.seasons, repos.assignments, repos.hours, repos.aggregates, repos.transitions, policy, locks, logger)

	return &Container{
		Services: httpapi.Services{
			Seasons:        usecase.NewSeasonService(repos.seasons, repos.participants, transitionSvc, broadcaster, auditSvc, locks, logger),
			Aggregation:    usecase.NewAggregationService(repos.seasons, repos.assignments, repos.hours, repos.aggregates, rankingSvc, auditSvc, locks, logger),
			Redistribution: usecase.NewRedistributionService(repos.seasons, repos.assignments, repos.hours, repos.aggregates, auditSvc, locks, logger),
			Hierarchy:      usecase.NewHierarchyService(repos.seasons, repos.assignments, repos.hours, repos.aggregates, repos.participants),
			Fraud:          usecase.NewFraudService(repos.seasons, repos.assignments, repos.hours, repos.participants, auditSvc, thresholds, logger),
			Hours:          usecase.NewHoursService(repos.hours, repos.imports, auditSvc, logger),
			Audit:          auditSvc,
			Participants:   usecase.NewParticipantService(repos.participants, repos.waitlist, repos.seasons, repos.assignments, auditSvc, logger),
		},
		db:          db,
		broadcaster: broadcaster,
	}, nil
}

func newNotifier(cfg config.Config, logger *logging.Logger) (usecase.Notifier, error) {
	if !cfg.TelegramEnabled {
		return usecase.NopNotifier{}, nil
	}

	client, err := telegram.NewClient(telegram.ClientConfig{
		BaseURL:        cfg.TelegramBaseURL,
		BotToken:       cfg.TelegramBotToken,
		Timeout:        cfg.TelegramTimeout,
		Logger:         logger,
		CircuitBreaker: cfg.TelegramCircuitBreaker(),
	})
	if err != nil {
		return nil, fmt.Errorf("build telegram client: %w", err)
	}
	return client, nil
}

// Close releases the notifier pool and the database handle.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.broadcaster != nil {
		c.broadcaster.Close()
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}

func NewHTTPServer(cfg config.Config, container *Container, logger *logging.Logger) (*http.Server, error) {
	if container == nil {
		return nil, errors.New("app container is required")
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(container.Services, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		AdminToken:         cfg.AdminToken,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		MetricsEnabled:     cfg.MetricsEnabled,
		MetricsHandler:     observability.MetricsHandler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
