package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/pyramid-league/internal/config"
	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/participant"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
	cacherepo "github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/pyramid-league/internal/platform/cache"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

type repositories struct {
	seasons      season.Repository
	participants participant.Repository
	assignments  hierarchy.Repository
	hours        hours.Repository
	aggregates   aggregate.Repository
	audits       audit.Repository
	transitions  transition.Repository
	waitlist     waitlist.Repository
	imports      hours.ImportRepository
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	var (
		repos repositories
		db    *sqlx.DB
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		ds := memory.SeedDemo(time.Now())
		assignments := memory.NewAssignmentRepository(ds.Assignments)
		repos = repositories{
			seasons:      memory.NewSeasonRepository(ds.Seasons),
			participants: memory.NewParticipantRepository(ds.Participants),
			assignments:  assignments,
			hours:        memory.NewHoursRepository(ds.Hours),
			aggregates:   memory.NewAggregateRepository(),
			audits:       memory.NewAuditRepository(),
			transitions:  memory.NewTransitionRepository(assignments),
			waitlist:     memory.NewWaitlistRepository(),
			imports:      memory.NewImportRepository(),
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "participants", len(ds.Participants))
	default:
		var err error
		db, err = openPostgres(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		repos = repositories{
			seasons:      postgres.NewSeasonRepository(db),
			participants: postgres.NewParticipantRepository(db),
			assignments:  postgres.NewAssignmentRepository(db),
			hours:        postgres.NewHoursRepository(db),
			aggregates:   postgres.NewAggregateRepository(db),
			audits:       postgres.NewAuditRepository(db),
			transitions:  postgres.NewTransitionRepository(db),
			waitlist:     postgres.NewWaitlistRepository(db),
			imports:      postgres.NewImportRepository(db),
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "db_name", parseDBTarget(cfg.DBURL, false).Name)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.seasons = cacherepo.NewSeasonRepository(repos.seasons, store)
		repos.participants = cacherepo.NewParticipantRepository(repos.participants, store)
	}

	return repos, db, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	target := parseDBTarget(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", target.DSN,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(target.Name),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
