package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/handler"
	"github.com/zhouzirui/solace/backend/internal/logger"
	"github.com/zhouzirui/solace/backend/internal/service/ai"
	"github.com/zhouzirui/solace/backend/internal/service/broadcast"
	"github.com/zhouzirui/solace/backend/internal/service/post"
	"github.com/zhouzirui/solace/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(cfg.Log)
	if envErr != nil {
		appLogger.Debug().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	store := post.NewStore(session.NewRegistry())
	hub := broadcast.NewHub(0)

	var responder *ai.Responder
	if cfg.AI.Enabled() {
		responder, err = ai.NewFromConfig(ctx, cfg.AI)
		if err != nil {
			appLogger.Warn().Err(err).Msg("failed to initialize AI responder, every post will get the fallback reply")
		} else {
			appLogger.Info().
				Str("model", cfg.AI.Model).
				Str("base_url", cfg.AI.BaseURL).
				Str("prompt_mode", responder.Mode()).
				Msg("AI responder initialized")
		}
	} else {
		appLogger.Warn().Msg("AI credentials not configured, every post will get the fallback reply")
	}

	router, err := handler.NewRouter(handler.Deps{
		Logger:    appLogger,
		Store:     store,
		Responder: responder,
		Hub:       hub,
		Posts:     cfg.Posts,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to build router")
	}

	if err := run(ctx, appLogger, cfg.Server, router, hub); err != nil {
		appLogger.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, appLogger zerolog.Logger, serverCfg config.ServerConfig, router http.Handler, hub *broadcast.Hub) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return appLogger.WithContext(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		appLogger.Info().Str("addr", srv.Addr).Msg("Solace backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info().Msg("shutting down")

		// 先关闭 hub，让长连接的 feed 订阅者退出，Shutdown 才不会一直等待
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
