package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/tablekeep/internal/blob"
	"github.com/hyperengineering/tablekeep/internal/config"
	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/types"
)

var generateProvider string

var generateCmd = &cobra.Command{
	Use:   "generate <campaign-id>",
	Short: "Generate starter content for a campaign with a completed frame",
	Long: "Runs content generation for a campaign whose frame is already completed. " +
		"Provider keys come from OPENAI_API_KEY, ANTHROPIC_API_KEY and HORDE_API_KEY; " +
		"without a text key every item comes from the genre tables.",
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and TABLEKEEP_DB_PATH)")
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output the full batch in JSON format")
	generateCmd.Flags().StringVar(&generateProvider, "provider", "",
		"Text provider: openai or anthropic (defaults to config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), config.LogConfig{Level: cfg.Log.Level, Format: "text"}))

	provider := generation.Provider(cfg.Generation.Provider)
	if generateProvider != "" {
		if provider, err = generation.ParseProvider(generateProvider); err != nil {
			return err
		}
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	campaign, frame, err := loadCompletedFrame(ctx, db, args[0])
	if err != nil {
		return err
	}

	blobs, err := blob.New(cfg.Blob)
	if err != nil {
		return err
	}
	orch := orchestrator.New(
		generation.NewRetrying(newGenerationClient(cfg.Generation),
			cfg.Generation.RetryAttempts, time.Duration(cfg.Generation.RetryBackoff)),
		prompt.MustNewBuilder(),
		db,
		orchestrator.Options{Blobs: blobs, Metrics: metrics.New()},
	)

	errOut := cmd.ErrOrStderr()
	batch, err := orch.Generate(ctx, orchestrator.Request{
		Campaign:    *campaign,
		Frame:       frame,
		Credentials: serverCredentials(cfg.Generation),
		Provider:    provider,
		Progress:    func(line string) { fmt.Fprintln(errOut, line) },
	})
	if err != nil && batch == nil {
		return err
	}

	if jsonOutput {
		if perr := printJSON(cmd.OutOrStdout(), map[string]any{
			"batch":   batch,
			"summary": batch.Summary(),
		}); perr != nil {
			return perr
		}
		return err
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "KIND\tGENERATED\tSAVED\tFALLBACKS\tFAILURES")
	for _, s := range batch.Summary() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", s.Kind, s.Generated, s.Saved, s.Fallbacks, len(s.Failures))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

// loadCompletedFrame returns the campaign and its frame, which must be
// completed.
func loadCompletedFrame(ctx context.Context, db *store.SQLiteStore, campaignID string) (*types.Campaign, types.CampaignFrame, error) {
	campaign, err := db.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, types.CampaignFrame{}, fmt.Errorf("get campaign: %w", err)
	}
	snap, err := db.LoadFrame(ctx, campaignID)
	if errors.Is(err, store.ErrFrameNotFound) {
		return nil, types.CampaignFrame{}, fmt.Errorf("campaign %s has no frame; complete the wizard first", campaignID)
	}
	if err != nil {
		return nil, types.CampaignFrame{}, fmt.Errorf("load frame: %w", err)
	}
	if snap.Status != types.FrameCompleted {
		return nil, types.CampaignFrame{}, fmt.Errorf("campaign %s frame is still a draft; complete the wizard first", campaignID)
	}
	frame, err := snap.Frame()
	if err != nil {
		return nil, types.CampaignFrame{}, fmt.Errorf("decode frame: %w", err)
	}
	return campaign, frame, nil
}
