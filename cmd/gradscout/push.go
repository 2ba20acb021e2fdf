package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/gradscout/internal/db"
	"github.com/jonathan/gradscout/internal/sheets"
)

var pushCommand = &cobra.Command{
	Use:   "push <run-id>",
	Short: "Push an archived run's records to a Google Sheet tab",
	Long: `Reads the records of one archived run from the database and replaces the
contents of a worksheet tab with them, creating the tab when missing.`,
	Args: cobra.ExactArgs(1),
	RunE: pushCmd,
}

var (
	pushSheetID     string
	pushTab         string
	pushCredentials string
	pushDatabaseURL string
)

func init() {
	pushCommand.Flags().StringVar(&pushSheetID, "sheet-id", "", "Google Sheet ID (defaults to GRADSCOUT_SHEET_ID env var)")
	pushCommand.Flags().StringVar(&pushTab, "tab", "results", "Worksheet tab to replace")
	pushCommand.Flags().StringVar(&pushCredentials, "credentials", "", "Google service-account credentials JSON (defaults to GOOGLE_APPLICATION_CREDENTIALS)")
	pushCommand.Flags().StringVar(&pushDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(pushCommand)
}

func pushCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	sheetID := pushSheetID
	if sheetID == "" {
		sheetID = os.Getenv("GRADSCOUT_SHEET_ID")
	}
	if sheetID == "" {
		return fmt.Errorf("--sheet-id or GRADSCOUT_SHEET_ID is required")
	}
	credentials := pushCredentials
	if credentials == "" {
		credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	databaseURL := pushDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("--db-url or DATABASE_URL is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	records, err := database.ListRecords(ctx, runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("run %s has no records to push", runID)
	}

	client, err := sheets.New(ctx, sheetID, credentials)
	if err != nil {
		return err
	}
	if err := client.PushRecords(ctx, pushTab, records); err != nil {
		return err
	}

	fmt.Printf("Pushed %d records from run %s to tab %q\n", len(records), runID, pushTab)
	return nil
}
