package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fieldline/sitebook/internal/config"
	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/fieldline/sitebook/internal/logging"
	"github.com/fieldline/sitebook/internal/mcp"
	"github.com/fieldline/sitebook/internal/sqlite"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries JSON-RPC in stdio mode.
	logWriter := io.Writer(os.Stdout)
	if cfg.Server.Transport == "stdio" {
		logWriter = os.Stderr
	}
	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.Path, logWriter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		logger, closeLog, _ = logging.New(cfg.Log.Level, "", logWriter)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := newMCPServer(ctx, cfg, db, logger)
	if cfg.Server.Transport == "stdio" {
		return runStdio(ctx, logger, server)
	}
	return runHTTP(ctx, logger, server, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
}

// newMCPServer wires the repositories and domain services behind the MCP
// tool surface.
func newMCPServer(ctx context.Context, cfg config.Config, db *sqlite.DB, logger *slog.Logger) *sdkmcp.Server {
	itemRepo := sqlite.NewChecklistRepository(db)
	treeRepo := sqlite.NewTreeRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	activitySvc := activity.NewService(activityRepo, logger)
	if cfg.Activity.Retention > 0 {
		if _, err := activitySvc.Prune(ctx, cfg.Activity.Retention); err != nil {
			logger.Warn("failed to prune activity", "error", err)
		}
	}

	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Checklists: checklist.NewService(itemRepo, activityRepo, logger,
				checklist.WithCommitConcurrency(cfg.Checklist.CommitConcurrency)),
			Catalog:  hierarchy.NewService(treeRepo, activityRepo, logger),
			Activity: activitySvc,
		},
		CatalogID: cfg.Catalog.ID,
		Logger:    logger,
	})
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")
	// Run returns when stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, addr string) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/", mcpHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
