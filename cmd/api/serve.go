package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	jwtinfra "github.com/cartify-api/internal/infrastructure/jwt"
	redisinfra "github.com/cartify-api/internal/infrastructure/redis"
	"github.com/cartify-api/internal/observability"
	transporthttp "github.com/cartify-api/internal/transport/http"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return oops.Code("JWT_INIT_FAILED").Wrap(err)
	}

	redisClient := redisinfra.NewClient(cfg)
	defer redisClient.Close()
	store := redisinfra.NewStore(redisClient)
	if err := store.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr()).Msg("redis not reachable at startup")
	}

	accounts, err := newAccountRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	notifier := newNotifier(ctx, cfg, logger)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Accounts:    accounts,
		Store:       store,
		JWTProvider: jwtProvider,
		Passwords:   newHasher(),
		Notifier:    notifier,
		Metrics:     observability.NewMetrics(),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	notifier.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
