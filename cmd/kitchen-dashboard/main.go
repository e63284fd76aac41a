package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/MikeMC777/kitchen-dashboard/docs"
	"github.com/MikeMC777/kitchen-dashboard/internal/api"
	"github.com/MikeMC777/kitchen-dashboard/internal/config"
	"github.com/MikeMC777/kitchen-dashboard/internal/kitchen"
	"github.com/MikeMC777/kitchen-dashboard/internal/session"
	"github.com/MikeMC777/kitchen-dashboard/internal/user"
	"github.com/MikeMC777/kitchen-dashboard/internal/web"
)

// @title        Kitchen Dashboard
// @version      1.0
// @description  Kitchen board for the restaurant order management system.
// @BasePath     /
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Production() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SessionBackend).Msg("failed to open session storage")
	}
	defer closeKV()

	store := session.NewStore(kv, cfg.SessionSecret)
	client := api.New(cfg.APIBaseURL, cfg.APITimeout, store)
	board := kitchen.NewController(client.Orders, client.Inventory, kitchen.Options{
		PollInterval:    cfg.PollInterval,
		NotificationTTL: cfg.NotificationTTL,
	})
	auth := web.NewAuthProvider(store, client.Auth)

	// Pages show the loading state until the stored session is read.
	go func() {
		sess, err := auth.Rehydrate(ctx)
		if err == nil && sess != nil && sess.User.HasRole(user.RoleKitchen, user.RoleAdmin) {
			board.EnsureMounted(ctx)
		}
	}()

	r := web.NewRouter(web.Deps{
		Auth:         auth,
		Kitchen:      board,
		Base:         ctx,
		PollInterval: cfg.PollInterval,
		Production:   cfg.Production(),
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("kitchen dashboard listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	board.Unmount()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

func openKV(ctx context.Context, cfg config.Config) (session.KV, func(), error) {
	switch cfg.SessionBackend {
	case "file":
		return session.NewFileKV(cfg.SessionFile), func() {}, nil
	case "memory":
		return session.NewMemoryKV(), func() {}, nil
	case "redis":
		rdb, err := session.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisKV(rdb, "kitchen-dashboard:"), func() { _ = rdb.Close() }, nil
	case "postgres":
		pool, err := session.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		kv := session.NewPGKV(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return kv, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
