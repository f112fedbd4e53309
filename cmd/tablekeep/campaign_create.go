package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

var (
	createGameSystem  string
	createOwner       string
	createDescription string
)

var campaignCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignCreate,
}

func init() {
	campaignCreateCmd.Flags().StringVar(&createGameSystem, "game-system", "",
		"Game system the campaign is played in (required)")
	campaignCreateCmd.Flags().StringVar(&createOwner, "owner", "",
		"Owner ID")
	campaignCreateCmd.Flags().StringVar(&createDescription, "description", "",
		"Campaign description")
}

func runCampaignCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	nc := types.NewCampaign{
		Name:        args[0],
		GameSystem:  createGameSystem,
		OwnerID:     createOwner,
		Description: createDescription,
	}
	if errs := validation.ValidateNewCampaign(nc); len(errs) > 0 {
		return fmt.Errorf("invalid campaign: %s %s", errs[0].Field, errs[0].Message)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.CreateCampaign(ctx, nc)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created campaign %q (%s)\n", c.Name, c.ID)
	return nil
}
