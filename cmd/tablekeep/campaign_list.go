package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listOwner string

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	Args:  cobra.NoArgs,
	RunE:  runCampaignList,
}

func init() {
	campaignListCmd.Flags().StringVar(&listOwner, "owner", "",
		"Only list campaigns with this owner ID")
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	campaigns, err := db.ListCampaigns(ctx, listOwner)
	if err != nil {
		return fmt.Errorf("list campaigns: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"campaigns": campaigns,
			"total":     len(campaigns),
		})
	}

	if len(campaigns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No campaigns found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tSYSTEM\tOWNER\tCREATED")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.Name,
			c.GameSystem,
			orDash(c.OwnerID),
			c.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
