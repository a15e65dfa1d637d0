package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/config"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/localstore"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/repository/memory"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/repository/postgres"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/interfaces/httpapi"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

// App bundles the HTTP server with the resources it owns so that main can
// shut everything down in the right order.
type App struct {
	Server   *http.Server
	Sessions *usecase.SessionService

	db     *sqlx.DB
	store  localstore.Store
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	store, err := openLocalStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	snapshots, events, db, err := openSharedStore(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	wall := clockwork.NewRealClock()

	discoverySvc := usecase.NewDiscoveryService(snapshots, events, wall, logger)
	sessionSvc := usecase.NewSessionService(snapshots, discoverySvc, store, wall, usecase.SessionConfig{
		MinutesPerHalf:    cfg.MinutesPerHalf,
		SyncInterval:      cfg.SyncInterval,
		CountdownInterval: cfg.CountdownInterval,
		PlayerCacheTTL:    cfg.PlayerCacheTTL,
	}, logger)
	reconcileSvc := usecase.NewReconcileService(snapshots, wall, cfg.SnapshotStaleAfter, cfg.ReconcileWorkers, logger)

	handler := httpapi.NewHandler(sessionSvc, discoverySvc, reconcileSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:   server,
		Sessions: sessionSvc,
		db:       db,
		store:    store,
		logger:   logger,
	}, nil
}

// Shutdown drains the HTTP server, closes every live session (publishing
// their final snapshot state) and releases storage handles.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownErr := a.Server.Shutdown(ctx)

	a.Sessions.CloseAll(ctx)

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close shared store", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close local store", "error", err)
	}

	return shutdownErr
}

func openLocalStore(cfg config.Config, logger *logging.Logger) (localstore.Store, error) {
	if cfg.LocalStorePath == "" {
		logger.Info("local store: in-memory (state lost on restart)")
		return localstore.NewMemoryStore(), nil
	}

	store, err := localstore.NewBoltStore(cfg.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", cfg.LocalStorePath, err)
	}
	logger.Info("local store: bolt", "path", cfg.LocalStorePath)
	return store, nil
}

func openSharedStore(cfg config.Config, logger *logging.Logger) (activegame.Repository, schedule.Repository, *sqlx.DB, error) {
	switch cfg.SharedStore {
	case config.StorePostgres:
		db, err := openDB(cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewActiveGameRepository(db), postgres.NewScheduleRepository(db), db, nil
	default:
		var seed []schedule.MatchEvent
		snapshots := memory.NewActiveGameRepository()
		if cfg.SeedDemoData {
			now := time.Now()
			seed = memory.SeedMatchEvents(now)
			if _, err := snapshots.Create(context.Background(), memory.SeedActiveSnapshot(now)); err != nil {
				return nil, nil, nil, fmt.Errorf("seed demo snapshot: %w", err)
			}
			logger.Info("shared store: seeded demo data", "events", len(seed))
		}
		return snapshots, memory.NewScheduleRepository(seed), nil, nil
	}
}

func openDB(cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinaryResult)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("shared store: postgres", "database", dbNameFromURL(dsn))
	return db, nil
}
