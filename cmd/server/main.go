package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/config"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/activity"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/mcp"
	"github.com/rpggio/taskdesk/internal/metrics"
	"github.com/rpggio/taskdesk/internal/sqlite"
	"github.com/rpggio/taskdesk/internal/transport"
)

var version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDir(cfg.Storage.Path); err != nil {
		return fmt.Errorf("prepare storage path: %w", err)
	}
	db, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open session storage: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("migrate session storage: %w", err)
	}

	m := metrics.New()
	client, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithObserver(m),
		api.WithLogger(logger.With("component", "api")),
	)
	if err != nil {
		return err
	}

	store := session.NewStore(client.Auth, sqlite.NewClientStorage(db), logger.With("component", "session"))
	journal := activity.NewService(sqlite.NewActivityRepository(db), logger.With("component", "activity"))
	c := console.New(client, store,
		console.WithLogger(logger.With("component", "console")),
		console.WithJournal(journal),
		console.WithPageSize(cfg.Views.PageSize),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Restore(ctx); err != nil {
		logger.Warn("could not restore session, starting signed out", "error", err)
	}

	server := mcp.NewServer(mcp.Config{
		Console: c,
		Metrics: m,
		Logger:  logger,
		Version: version,
	})

	if cfg.Transport.Mode == config.ModeStdio {
		return runStdioMode(ctx, logger, server)
	}
	return runHTTPMode(ctx, logger, server, cfg, m)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "version", version)

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, cfg config.Config, m *metrics.Metrics) error {
	router := transport.NewServer(server, transport.Options{
		Metrics:        m,
		Logger:         logger,
		AuthToken:      cfg.Server.AuthToken,
		SessionTimeout: cfg.Server.SessionTimeout,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Server.AuthToken != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(logger, httpServer)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
