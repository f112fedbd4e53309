package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/tablekeep/internal/api"
	"github.com/hyperengineering/tablekeep/internal/blob"
	"github.com/hyperengineering/tablekeep/internal/config"
	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/wizard"
	"github.com/hyperengineering/tablekeep/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "tablekeep",
	Short:        "Tablekeep - tabletop campaign builder",
	Long:         "Runs the campaign builder API. Subcommands manage campaigns and run generation offline.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(generateCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Generation: retried backend for batch runs, gated backend for
	// interactive requests
	m := metrics.New()
	client := newGenerationClient(cfg.Generation)
	blobs, err := blob.New(cfg.Blob)
	if err != nil {
		db.Close()
		return err
	}
	orch := orchestrator.New(
		generation.NewRetrying(client, cfg.Generation.RetryAttempts, time.Duration(cfg.Generation.RetryBackoff)),
		prompt.MustNewBuilder(),
		db,
		orchestrator.Options{Blobs: blobs, Metrics: m},
	)
	interactive := generation.NewGate(client, time.Duration(cfg.Generation.MinInterval))
	slog.Info("generation initialized",
		"provider", cfg.Generation.Provider,
		"server_credentials", serverCredentials(cfg.Generation).HasText(),
		"blob_bucket", cfg.Blob.Bucket,
	)

	// 6. Wizard sessions over the two checkpoint tiers
	cache, err := wizard.NewLocalCache(wizard.CacheOptions{
		Debounce: time.Duration(cfg.Wizard.CheckpointDebounce),
		TTL:      time.Duration(cfg.Wizard.CacheTTL),
		Path:     cfg.Wizard.CachePath,
	})
	if err != nil {
		db.Close()
		return err
	}
	sessions := wizard.NewSessionManager(
		wizard.NewCheckpointer(cache, db),
		wizard.Options{AdvanceToReview: cfg.Wizard.AdvanceToReview},
	)

	// 7. Initialize HTTP router
	handler := api.NewHandler(api.Deps{
		Store:                     db,
		Sessions:                  sessions,
		Orchestrator:              orch,
		Interactive:               interactive,
		Prompts:                   prompt.MustNewBuilder(),
		Metrics:                   m,
		Credentials:               serverCredentials(cfg.Generation),
		APIKey:                    cfg.Auth.APIKey,
		Version:                   Version,
		GenerateRequestsPerMinute: cfg.Server.GenerateRequestsPerMinute,
	})
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 8. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 9. Background workers
	var wg sync.WaitGroup
	sweeper := worker.NewSessionSweeper(sessions, cache,
		time.Duration(cfg.Wizard.SweepInterval),
		time.Duration(cfg.Wizard.SessionIdleTimeout))
	startWorker(ctx, &wg, "session-sweeper", sweeper.Run)

	// 10. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 11. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 12. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	// Flush pending checkpoints before the store goes away.
	if err := cache.Close(); err != nil {
		slog.Error("checkpoint cache close error", "error", err)
	}
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from cfg. Anything but "text" logs JSON.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newGenerationClient(cfg config.GenerationConfig) *generation.Client {
	return generation.NewClient(generation.Options{
		DefaultProvider: generation.Provider(cfg.Provider),
		OpenAIModel:     cfg.OpenAIModel,
		AnthropicModel:  cfg.AnthropicModel,
		ImageModel:      cfg.ImageModel,
		MaxTokens:       cfg.MaxTokens,
	})
}

// serverCredentials are the env-configured provider keys used when a request
// brings none of its own.
func serverCredentials(cfg config.GenerationConfig) generation.Credentials {
	return generation.Credentials{
		OpenAIKey:    cfg.OpenAIKey,
		AnthropicKey: cfg.AnthropicKey,
		HordeKey:     cfg.HordeKey,
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
		slog.Debug("worker exited", "worker", name)
	}()
}
