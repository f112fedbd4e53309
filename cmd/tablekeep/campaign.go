package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/tablekeep/internal/config"
	"github.com/hyperengineering/tablekeep/internal/store"
)

var (
	dbPathOverride string
	jsonOutput     bool
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
	Long:  "Create, list, and inspect campaigns without running the server.",
}

func init() {
	campaignCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and TABLEKEEP_DB_PATH)")
	campaignCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignShowCmd)
}

// openStore opens the database named by --db or, failing that, by config.
func openStore() (*store.SQLiteStore, error) {
	path := dbPathOverride
	if path == "" {
		p, err := config.LoadDatabasePath()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = p
	}
	return store.NewSQLiteStore(path)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
