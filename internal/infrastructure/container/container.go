// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	hhapp "github.com/dietcompass/planner/internal/application/household"
	"github.com/dietcompass/planner/internal/application/planning"
	recipeapp "github.com/dietcompass/planner/internal/application/recipe"
	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/infrastructure/generation"
	"github.com/dietcompass/planner/internal/infrastructure/http/handlers"
	"github.com/dietcompass/planner/internal/infrastructure/http/server"
	"github.com/dietcompass/planner/internal/infrastructure/monitoring"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/collections"
	gormstore "github.com/dietcompass/planner/internal/infrastructure/persistence/gorm"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/memory"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/postgres"
	redisstore "github.com/dietcompass/planner/internal/infrastructure/persistence/redis"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/sqlite"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/healthcheck"
	"github.com/dietcompass/planner/pkg/logger"
)

// Core wires everything below the HTTP layer: configuration, logging,
// monitoring, the selected store and the application services
func Core(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		LoggerModule,
		MonitoringModule,
		StorageModule,
		ServiceModule,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(RegisterLifecycleHooks),
	)
}

// Module wires the full API server
func Module(cfg *config.Config) fx.Option {
	return fx.Options(
		Core(cfg),
		HTTPModule,
		fx.Invoke(RegisterServerHooks),
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			OutputPaths: []string{"stderr"},
		})
	},
)

// MonitoringModule provides tracing, metrics, health checks and the event bus
var MonitoringModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    "dietcompass",
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log)
	},
	fx.Annotate(
		monitoring.NewEventBus,
		fx.As(new(shared.EventDispatcher)),
	),
)

// Storage is the selected key-value backend together with the pools behind it
type Storage struct {
	Store outbound.KeyValueStore
	// SQL is set for the sqlite and postgres backends
	SQL *sql.DB
	// Redis is set for the redis backend
	Redis goredis.UniversalClient
}

// StorageModule provides the store and the collection repository
var StorageModule = fx.Provide(
	NewStorage,
	func(s *Storage, cfg *config.Config, log *zap.Logger) *collections.Repository {
		return collections.NewRepository(s.Store, cfg.Storage.Namespace, log)
	},
	func(repo *collections.Repository) outbound.PlanRepository { return repo },
	func(repo *collections.Repository) outbound.HouseholdRepository { return repo },
	func(repo *collections.Repository) outbound.CatalogRepository { return repo },
	func(repo *collections.Repository) outbound.RecipeRepository { return repo },
	func(repo *collections.Repository, cfg *config.Config, log *zap.Logger) *collections.Seeder {
		return collections.NewSeeder(repo, ScoringConfig(cfg), log)
	},
)

// NewStorage opens the configured backend and registers its health check
// and pool metrics
func NewStorage(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (*Storage, error) {
	s := &Storage{}

	switch cfg.Storage.Backend {
	case "memory":
		s.Store = memory.NewStore()
	case "sqlite":
		db, err := sqlite.SetupDatabase(cfg.Database.Path, gormstore.LogLevel(cfg.Database.LogLevel, cfg.App.Debug))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		if s.SQL, err = db.DB(); err != nil {
			return nil, err
		}
		s.Store = gormstore.NewStore(db, log)
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		s.SQL = cm.SQLDB()
		s.Store = gormstore.NewStore(cm.GetDB(), log)
	case "redis":
		client, err := redisstore.NewClient(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.Redis = client
		s.Store = redisstore.NewStore(client, cfg.Redis.TxRetries, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if s.SQL != nil {
		metrics.RegisterDB(s.SQL, cfg.Storage.Backend)
		health.Register("database", healthcheck.NewSQLChecker(s.SQL))
	}
	if s.Redis != nil {
		health.Register("redis", healthcheck.NewRedisChecker(s.Redis))
	}

	log.Info("Storage backend ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("namespace", cfg.Storage.Namespace),
	)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Store.Close()
		},
	})
	return s, nil
}

// ScoringConfig converts the configured scoring section
func ScoringConfig(cfg *config.Config) scoring.Config {
	w := cfg.Scoring.Weights
	return scoring.Config{
		ScaleFactor: cfg.Scoring.ScaleFactor,
		Weights: scoring.Weights{
			NutrientDensity: w.NutrientDensity,
			AntiAging:       w.AntiAging,
			WeightLoss:      w.WeightLoss,
			HeartHealth:     w.HeartHealth,
		},
	}
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewGenerationClient,
	func(
		deps planningDeps,
		cfg *config.Config,
		log *zap.Logger,
	) *planning.Service {
		return planning.NewService(planning.Dependencies{
			Plans:      deps.Plans,
			Households: deps.Households,
			Catalog:    deps.Catalog,
			Client:     deps.Client,
			Dispatcher: deps.Dispatcher,
			Metrics:    deps.Metrics,
		}, planning.Config{
			CatalogSliceSize: cfg.Planning.CatalogSliceSize,
			HistoryLimit:     cfg.Planning.HistoryLimit,
			FlexibleProfiles: cfg.Planning.FlexibleProfiles,
			Scoring:          ScoringConfig(cfg),
		}, log)
	},
	func(s *planning.Service) inbound.PlanningService { return s },

	func(
		recipes outbound.RecipeRepository,
		catalog outbound.CatalogRepository,
		dispatcher shared.EventDispatcher,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.RecipeService {
		return recipeapp.NewRecipeService(recipes, catalog, dispatcher, ScoringConfig(cfg), log)
	},

	func(repo outbound.HouseholdRepository, cfg *config.Config, log *zap.Logger) inbound.HouseholdService {
		return hhapp.NewService(repo, hhapp.NewResolver(cfg.Planning.FlexibleProfiles, log), log)
	},
)

type planningDeps struct {
	fx.In

	Plans      outbound.PlanRepository
	Households outbound.HouseholdRepository
	Catalog    outbound.CatalogRepository
	Client     outbound.GenerationClient
	Dispatcher shared.EventDispatcher
	Metrics    *monitoring.MetricsCollector
}

// NewGenerationClient builds the generator client when a URL is configured.
// Without one the planner still reconciles plans posted to it.
func NewGenerationClient(cfg *config.Config, log *zap.Logger, health *healthcheck.HealthCheck) (outbound.GenerationClient, error) {
	if cfg.Generation.URL == "" {
		log.Info("No meal generator configured, generation is disabled")
		return nil, nil
	}
	client, err := generation.NewClient(&cfg.Generation, log)
	if err != nil {
		return nil, err
	}
	health.Register("generator", healthcheck.NewExternalServiceChecker("generator", cfg.Generation.URL, cfg.Generation.Timeout))
	return client, nil
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	handlers.NewPlanningHandlers,
	handlers.NewRecipeHandlers,
	func(households inbound.HouseholdService, seeder *collections.Seeder, log *zap.Logger) *handlers.HouseholdHandlers {
		return handlers.NewHouseholdHandlers(households, seeder, log)
	},
	func(
		cfg *config.Config,
		log *zap.Logger,
		p *handlers.PlanningHandlers,
		r *handlers.RecipeHandlers,
		h *handlers.HouseholdHandlers,
		metrics *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
	) *server.Server {
		return server.NewServer(cfg, log, server.Handlers{Planning: p, Recipes: r, Household: h}, metrics, health)
	},
)

// RegisterLifecycleHooks seeds the store on start and flushes telemetry on
// stop
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	seeder *collections.Seeder,
	tracing *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting DietCompass planner",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("storage", cfg.Storage.Backend),
			)
			if !cfg.Storage.Seed {
				return nil
			}
			report, err := seeder.Seed(ctx, cfg.Server.DefaultHousehold)
			if err != nil {
				return fmt.Errorf("failed to seed store: %w", err)
			}
			log.Info("Seed complete",
				zap.Int("written", len(report.Written)),
				zap.Int("skipped", len(report.Skipped)),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down DietCompass planner")
			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}

// RegisterServerHooks runs the HTTP server for the lifetime of the app
func RegisterServerHooks(lc fx.Lifecycle, shutdowner fx.Shutdowner, log *zap.Logger, srv *server.Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
