package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/config"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/database"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/handlers"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/repositories"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/services"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/vector"
)

// Version is set at build time via ldflags
var Version = "dev"

// statusTables hold fast-changing operational state; their source files
// refresh the status cache instead of triggering a full rebuild.
var statusTables = map[string]bool{
	"unit_status":     true,
	"weather_reports": true,
}

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("data_dir", cfg.Engine.DataDir),
		zap.Bool("virtual_entities", cfg.Engine.VirtualEntities),
		zap.Bool("database_configured", cfg.Database.IsConfigured()),
		zap.Bool("redis_configured", cfg.Redis.Host != ""))

	// Optional snapshot persistence.
	var snapshotRepo repositories.SnapshotRepository
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		sqlDB := stdlib.OpenDBFromPool(db.Pool)
		if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		snapshotRepo = repositories.NewSnapshotRepository(db)
	}

	// Optional graph cache.
	var graphCache services.GraphCache
	cache, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
		graphCache = services.NewRedisGraphCache(cache, logger)
	}

	loader := tabular.NewCSVDirLoader(cfg.Engine.DataDir, logger)
	registry := services.NewSchemaRegistry(loader, logger)
	builder := services.NewGraphBuilder(registry, services.NewEnrichmentRegistry(), cfg.Engine.VirtualEntities, logger)
	reasoner := services.NewReasoner(logger)
	rules := services.NewRuleEngine(services.DefaultRules(), logger)

	mappings := []services.MappingSource{
		&services.RegistryMappingSource{Mappings: services.DefaultMappings()},
	}
	if cfg.Engine.MappingFile != "" {
		mappings = append(mappings, &services.LegacyFileMappingSource{Path: cfg.Engine.MappingFile})
	}

	engine := services.NewEngine(loader, builder, reasoner, rules, snapshotRepo, graphCache, mappings, logger)

	// Reuse a stored reasoned view when the sources are unchanged; fall
	// back to a full build otherwise.
	restored := false
	if snapshotRepo != nil || graphCache != nil {
		if err := engine.Restore(ctx); err != nil {
			logger.Info("No reusable stored graph, building from sources", zap.Error(err))
		} else {
			restored = true
		}
	}
	if !restored {
		if _, _, err := engine.Rebuild(ctx); err != nil {
			logger.Fatal("Initial graph build failed", zap.Error(err))
		}
	}

	if cfg.Watcher.Enabled {
		watcher := services.NewWatcher(engine, func() ([]services.WatchedSource, error) {
			return watchedSources(loader)
		}, loader.LoadTable, logger)
		go watcher.Run(ctx, cfg.Watcher.Interval())
	}

	patterns := services.NewPatternQueryService(logger)
	chains := services.NewChainSearcher(cfg.Engine.MaxChainDepth, cfg.Engine.MaxChains, logger)
	fusion := services.NewFusionSearcher(patterns, vector.NoopOracle{}, loader, cfg.Engine.TopK, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, engine, logger).RegisterRoutes(mux)
	handlers.NewGraphHandler(engine, chains, patterns, fusion, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting opsgraph-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// watchedSources derives the watcher's file list from the data directory.
// Called on every poll so CSVs dropped in after startup are picked up.
func watchedSources(loader *tabular.CSVDirLoader) ([]services.WatchedSource, error) {
	paths, err := loader.Paths()
	if err != nil {
		return nil, err
	}
	sources := make([]services.WatchedSource, 0, len(paths))
	for _, path := range paths {
		table := tabular.TableNameForPath(path)
		kind := services.SourceKnowledge
		if statusTables[table] {
			kind = services.SourceStatus
		}
		sources = append(sources, services.WatchedSource{Path: path, Table: table, Kind: kind})
	}
	return sources, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
