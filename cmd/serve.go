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

	"github.com/seranote/seranote/internal/auth"
	"github.com/seranote/seranote/internal/catalog"
	"github.com/seranote/seranote/internal/mailer"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/realtime"
	"github.com/seranote/seranote/internal/repositories"
	"github.com/seranote/seranote/internal/server"
	"github.com/seranote/seranote/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve assembles the API server from config and runs it until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config = loaded
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	verifier, err := auth.NewVerifier(config.Auth.JWTSecret)
	if err != nil {
		return err
	}
	webhookVerifier, err := auth.NewWebhookVerifier(config.Auth.WebhookSecret)
	if err != nil {
		return err
	}
	catalogClient, err := catalog.NewClient(config.Catalog)
	if err != nil {
		return err
	}

	var shareMailer notes.ShareMailer
	if config.Mail.APIKey != "" {
		m, err := mailer.NewClient(config.Mail)
		if err != nil {
			return err
		}
		shareMailer = m
	} else {
		r.logger.Warn("mail api_key not set, share emails disabled")
	}

	var broker realtime.Broker
	if config.Realtime.Redis.Addr != "" {
		if broker, err = realtime.NewRedisBroker(config.Realtime.Redis, r.logger); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		r.logger.Info("using redis broker", "addr", config.Realtime.Redis.Addr)
	} else {
		broker = realtime.NewMemoryBroker(r.logger)
		r.logger.Info("using in-process broker")
	}
	defer broker.Close()

	service := notes.NewService(
		repositories.NewNoteRepository(db),
		repositories.NewMessageRepository(db),
		repositories.NewWatermarkRepository(db),
		catalogClient,
		broker,
		shareMailer,
		config.App.BaseURL,
		r.logger,
	)

	router := server.NewRouter(config.Server, server.RouterDeps{
		Service:         service,
		Catalog:         catalogClient,
		Users:           repositories.NewUserRepository(db),
		Gateway:         realtime.NewGateway(broker, r.logger),
		Verifier:        verifier,
		WebhookVerifier: webhookVerifier,
		Logger:          r.logger,
	})
	srv := server.NewServer(config.Server, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
