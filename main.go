package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/msomdec/birthday-bot/internal/config"
	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/handler"
	"github.com/msomdec/birthday-bot/internal/platform"
	"github.com/msomdec/birthday-bot/internal/platform/slack"
	"github.com/msomdec/birthday-bot/internal/repository/jsonfile"
	"github.com/msomdec/birthday-bot/internal/repository/sqlite"
	"github.com/msomdec/birthday-bot/internal/service"
)

func main() {
	configPath := pflag.String("config", os.Getenv("BIRTHDAY_CONFIG"), "path to a YAML config file")
	port := pflag.String("port", "", "HTTP listen port (overrides PORT)")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	pflag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv)
	if err == nil {
		if *port != "" {
			cfg.Server.Port = *port
		}
		if *logLevel != "" {
			cfg.LogLevel = *logLevel
		}
		err = cfg.Validate()
	}

	logOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	calendar, err := service.LoadCalendar(cfg.CalendarPath)
	if err != nil {
		slog.Error("failed to load calendar", "path", cfg.CalendarPath, "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open state store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	records := service.NewRecordService(store)

	client := slack.New(slack.Config{Token: cfg.Slack.Token, AppToken: cfg.Slack.AppToken})
	chat := platform.NewRetrying(client, platform.DefaultRetryConfig)

	var viewer *service.ViewerService
	if cfg.Server.PublicURL != "" {
		secret := cfg.ViewerSecret
		if secret == "" {
			secret = cfg.Slack.Token
		}
		viewer, err = service.NewViewerService(secret)
		if err != nil {
			slog.Error("failed to create viewer service", "error", err)
			os.Exit(1)
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	assistant := service.NewAssistant(chat, records, calendar, viewer, service.AssistantConfig{
		Channel:   cfg.Slack.Channel,
		Welcome:   cfg.Welcome,
		PublicURL: cfg.Server.PublicURL,
	})
	session, err := assistant.Connect(ctx)
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// In-flight events finish after a shutdown signal.
	dispatcher := service.NewDispatcher(context.WithoutCancel(ctx), session)

	if cfg.Slack.AppToken != "" {
		listener := slack.NewListener(client)
		go func() {
			if err := listener.Run(ctx, dispatcher.Dispatch); err != nil {
				slog.Error("socket mode listener stopped", "error", err)
				stop()
			}
		}()
	}

	var directory handler.EntryLister
	if viewer != nil {
		directory = session.Directory()
	}

	// Without a signing secret inbound HTTP events cannot be
	// authenticated, so only Socket Mode delivers them.
	var platformHandler *handler.PlatformHandler
	if cfg.Slack.SigningSecret != "" {
		platformHandler = handler.NewPlatformHandler(dispatcher.Dispatch, cfg.Slack.SigningSecret)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Routes{
		Platform:  platformHandler,
		Limiter:   service.NewTokenBucket(ctx, 10, 20),
		Viewer:    viewer,
		Directory: directory,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.RequestID(handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	dispatcher.Wait()
	slog.Info("server stopped")
}

// openStore opens the configured state backend. The returned func
// releases it.
func openStore(cfg config.StoreConfig) (domain.StateStore, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("database migrations applied", "path", cfg.DatabasePath)
		return sqlite.NewStateRepository(db), func() { db.Close() }, nil
	default:
		var opts []jsonfile.Option
		if cfg.Backup {
			opts = append(opts, jsonfile.WithBackup())
		}
		store := jsonfile.New(cfg.StatePath, opts...)
		slog.Info("using json state file", "path", store.Path())
		return store, func() {}, nil
	}
}
