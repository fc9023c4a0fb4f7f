package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/auxroom/syncd/internal/controller"
	"github.com/auxroom/syncd/internal/player"
	"github.com/auxroom/syncd/internal/repository/session/inmemory"
	"github.com/auxroom/syncd/internal/repository/session/redis"
	"github.com/auxroom/syncd/internal/service/session"
	"github.com/auxroom/syncd/pkg/ctxlogger"
	"github.com/auxroom/syncd/pkg/redisclient"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type AppConfig struct {
	SessionId         string        `json:"session_id"`
	Source            string        `json:"source"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	RecordTTL         time.Duration `json:"record_ttl"`
	DropBoundaryDrags bool          `json:"drop_boundary_drags"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.SessionId == "" {
		return fmt.Errorf("session id must not be empty")
	}
	if cfg.Source == "" {
		return fmt.Errorf("source must not be empty")
	}
	if cfg.RecordTTL <= 0 {
		return fmt.Errorf("record ttl must be greater than 0")
	}

	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	slog.SetDefault(slog.New(&h))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	p := player.New()
	defer p.Close()

	if err := p.SetSource(ctx, cfg.Source); err != nil {
		return fmt.Errorf("failed to set source: %w", err)
	}

	// origin identifies this daemon's writes in the shared record. Echoes are
	// still applied like any other update, the engine's reconciliation is what
	// makes them no-ops.
	origin := uuid.NewString()

	var engine *session.Engine
	if cfg.RedisHost == "" {
		slog.InfoContext(ctx, "no redis host configured, running standalone")
		engine = session.NewEngine(p, inmemory.NewRepo(), cfg.SessionId, origin, cfg.DropBoundaryDrags)
	} else {
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		engine = session.NewEngine(p, redis.NewRepo(rc, cfg.RecordTTL), cfg.SessionId, origin, cfg.DropBoundaryDrags)
	}

	ctrl := controller.NewController(engine)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := engine.Run(gctx); err != nil {
			return fmt.Errorf("failed to run engine: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		slog.InfoContext(gctx, "starting server", "address", server.Addr, "session_id", cfg.SessionId, "origin", origin)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to listen and serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	})

	return g.Wait()
}
