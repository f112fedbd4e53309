package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/types"
)

var campaignShowCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show a campaign, its frame status, and saved content",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignShow,
}

// kindCount is one row of the saved-content table.
type kindCount struct {
	Kind  types.EntityKind `json:"kind"`
	Count int              `json:"count"`
}

func runCampaignShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.GetCampaign(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get campaign: %w", err)
	}

	frameStatus := "none"
	if snap, err := db.LoadFrame(ctx, c.ID); err == nil {
		frameStatus = string(snap.Status)
	} else if !errors.Is(err, store.ErrFrameNotFound) {
		return fmt.Errorf("load frame: %w", err)
	}

	entities, err := db.ListEntities(ctx, c.ID, "")
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}
	byKind := make(map[types.EntityKind]int)
	for _, e := range entities {
		byKind[e.Kind]++
	}
	var counts []kindCount
	for _, k := range types.EntityKinds {
		if n := byKind[k]; n > 0 {
			counts = append(counts, kindCount{Kind: k, Count: n})
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"campaign":     c,
			"frame_status": frameStatus,
			"entities":     counts,
			"total":        len(entities),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", c.ID)
	fmt.Fprintf(out, "Name:        %s\n", c.Name)
	fmt.Fprintf(out, "Game system: %s\n", c.GameSystem)
	fmt.Fprintf(out, "Owner:       %s\n", orDash(c.OwnerID))
	fmt.Fprintf(out, "Description: %s\n", orDash(c.Description))
	fmt.Fprintf(out, "Frame:       %s\n", frameStatus)
	fmt.Fprintf(out, "Created:     %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(counts) == 0 {
		fmt.Fprintln(out, "\nNo content saved.")
		return nil
	}
	fmt.Fprintln(out)
	w := newTabWriter(out)
	fmt.Fprintln(w, "KIND\tCOUNT")
	for _, kc := range counts {
		fmt.Fprintf(w, "%s\t%d\n", kc.Kind, kc.Count)
	}
	return w.Flush()
}
