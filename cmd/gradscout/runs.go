package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/gradscout/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "List archived extraction runs",
	RunE:  runsCmd,
}

var (
	runsDatabaseURL string
	runsLimit       int
)

func init() {
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	runsCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")

	rootCmd.AddCommand(runsCommand)
}

func runsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := runsDatabaseURL
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

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %7s  %7s  %-19s  %s\n", "ID", "STATUS", "TARGETS", "RECORDS", "CREATED", "NOTE")
	for _, r := range runs {
		fmt.Printf("%-36s  %-10s  %7d  %7d  %-19s  %s\n",
			r.ID, r.Status, r.Targets, r.Records, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Note)
	}
	return nil
}
