// Package main provides the entry point for the gradscout extraction CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gradscout",
	Short: "Faculty directory extraction pipeline",
	Long:  "gradscout extracts name / research-theme / personal-link records from graduate-school faculty pages, merges repeated observations into stable records, and writes CSV, evidence, and spreadsheet outputs.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
