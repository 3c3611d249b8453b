package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/auth"
	"github.com/vovakirdan/meister-server/internal/config"
	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/meister"
	"github.com/vovakirdan/meister-server/internal/service/history"
	"github.com/vovakirdan/meister-server/internal/service/stats"
	"github.com/vovakirdan/meister-server/internal/store"
	redisstore "github.com/vovakirdan/meister-server/internal/store/redis"
	"github.com/vovakirdan/meister-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/meister-server/internal/transport/http"
)

// App wires together core, persistence and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	recorder        *history.Recorder
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	authService, err := auth.NewService(cfg.AdminPassword, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init auth: %w", err)
	}

	recorder := history.NewRecorder(st, cfg.GuestName, logger)
	manager := core.NewManager(core.ManagerOptions{
		Rooms:        cfg.Rooms,
		GracePeriod:  cfg.GracePeriod,
		MaxTimeLimit: cfg.MaxTimeLimit,
		Logger:       logger,
		OnFinish:     recorder.Record,
	})
	analyzer := meister.NewAnalyzer(meister.AnalyzerConfig{
		Depth:   cfg.MeisterDepth,
		Workers: cfg.MeisterWorkers,
		Timeout: cfg.MeisterTimeout,
	}, logger)
	hub := core.NewHub(core.HubOptions{
		Manager:      manager,
		Analyzer:     analyzer,
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})

	server := transporthttp.NewServer(hub, authService, stats.New(st), cfg, logger)

	logger.Info().
		Int("rooms", cfg.Rooms).
		Dur("grace_period", cfg.GracePeriod).
		Int("meister_depth", analyzer.Depth()).
		Msg("game server configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		recorder:        recorder,
		store:           st,
		log:             logger,
	}, nil
}

func openStore(cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		st, err := redisstore.New(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("prefix", cfg.RedisPrefix).Msg("redis store initialized")
		return st, nil
	case config.StoreSQLite, "":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("db_path", cfg.SQLitePath).Msg("database initialized")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	serverErr := make(chan error, 1)

	go a.recorder.Run(ctx)
	go a.hub.Run(ctx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stop()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup waits for pending history writes, then closes the store.
func (a *App) cleanup() {
	if a.recorder != nil {
		a.recorder.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
