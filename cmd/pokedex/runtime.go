package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/config"
	"github.com/jask/pokedex/internal/database"
	"github.com/jask/pokedex/internal/database/repository"
	"github.com/jask/pokedex/internal/logging"
	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

// storeScope namespaces the app's keys in the kv table.
const storeScope = "pokedex"

// runtime is everything a command needs, wired from config.
type runtime struct {
	cfg         config.Config
	logger      *zap.Logger
	db          *sql.DB
	team        *roster.Manager
	catalog     *service.CatalogService
	maintenance *service.MaintenanceService
}

func loadConfig(opts *options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func openRuntime(ctx context.Context, opts *options) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.RunMigrationsWithDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// repositories
	kv := repository.NewKVRepo(db)
	cache := repository.NewCatalogRepo(db)

	team := roster.New(kv.Scope(storeScope), roster.WithLogger(logger.Named("team")))
	client := catalog.NewClient(catalog.ClientOptions{
		BaseURL:       cfg.Catalog.BaseURL,
		Timeout:       cfg.Catalog.Timeout,
		RatePerSecond: cfg.Catalog.RatePerSecond,
		Burst:         cfg.Catalog.Concurrency,
		Logger:        logger.Named("pokeapi"),
	})
	cat := &service.CatalogService{
		Client:      client,
		Cache:       cache,
		Logger:      logger.Named("catalog"),
		Language:    cfg.Catalog.Language,
		Limit:       cfg.Catalog.Limit,
		Concurrency: cfg.Catalog.Concurrency,
		CacheTTL:    cfg.Catalog.CacheTTL,
	}

	return &runtime{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		team:        team,
		catalog:     cat,
		maintenance: &service.MaintenanceService{DB: db, Catalog: cache, Team: team},
	}, nil
}

// loadTeam loads the stored team. A corrupt value is reported and replaced
// by an empty team rather than failing the command.
func (r *runtime) loadTeam(ctx context.Context) error {
	_, err := r.team.Load(ctx)
	if errors.Is(err, roster.ErrCorruptState) {
		r.logger.Warn("stored team was corrupt, starting empty", zap.Error(err))
		return nil
	}
	return err
}

func (r *runtime) Close() error {
	_ = r.logger.Sync()
	return r.db.Close()
}
