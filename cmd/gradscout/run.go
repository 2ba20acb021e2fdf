package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/gradscout/internal/config"
	"github.com/jonathan/gradscout/internal/pipeline"
	"github.com/jonathan/gradscout/internal/sheets"
	"github.com/jonathan/gradscout/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full extraction pipeline end-to-end",
	Long: `Fetches every enabled target's pages, runs the extraction cascade (CSS
selectors -> structural blocks -> OCR) per page, merges observations into
records, and writes per-target CSVs plus evidence artifacts.

Targets come from a JSON file (--targets) or from the "examples" tab of a
Google Sheet (--sheet-id). Configuration can be loaded from a JSON file using
--config; command-line flags override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runTargets     string
	runSheetID     string
	runOutputDir   string
	runEvidenceDir string
	runCredentials string
	runDatabaseURL string
	runOCRLangs    string
	runNote        string
	runUseBrowser  bool
	runBulk        bool
	runVerbose     bool
	runMaxBlocks   int
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runTargets, "targets", "t", "", "Path to targets JSON file (mutually exclusive with --sheet-id)")
	runCommand.Flags().StringVar(&runSheetID, "sheet-id", "", "Google Sheet ID holding targets (mutually exclusive with --targets)")
	runCommand.Flags().StringVarP(&runOutputDir, "out", "o", "", "Directory for per-target CSV output")
	runCommand.Flags().StringVar(&runEvidenceDir, "evidence", "", "Directory for evidence artifacts")
	runCommand.Flags().StringVar(&runCredentials, "credentials", "", "Google service-account credentials JSON (optional, defaults to GOOGLE_APPLICATION_CREDENTIALS)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL for the run archive and page cache (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runOCRLangs, "ocr-languages", "", "Tesseract language argument (default jpn+eng)")
	runCommand.Flags().StringVar(&runNote, "note", "", "Free-text note stored with the archived run")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Render pages in a headless browser (requires Chrome)")
	runCommand.Flags().BoolVar(&runBulk, "bulk", false, "Bulk mode: reject identity-less rows and let fixed values fill gaps instead of winning")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed diagnostics")
	runCommand.Flags().IntVar(&runMaxBlocks, "max-blocks", 0, "Upper bound on blocks considered per page (0 = default)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.Load(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("targets") {
		cfg.Targets = runTargets
	}
	if cmd.Flags().Changed("sheet-id") {
		cfg.SheetID = runSheetID
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("evidence") {
		cfg.EvidenceDir = runEvidenceDir
	}
	if cmd.Flags().Changed("credentials") {
		cfg.CredentialsPath = runCredentials
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("ocr-languages") {
		cfg.TesseractLangs = runOCRLangs
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("bulk") {
		cfg.Bulk = runBulk
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("max-blocks") {
		cfg.MaxBlocks = runMaxBlocks
	}

	// Step 3: Apply defaults and environment for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		OutputDir:   "out",
		EvidenceDir: "evidence",
	})
	cfg.FromEnv()

	// Step 4: Validate
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Targets == "" && cfg.SheetID == "" {
		return fmt.Errorf("either --targets or --sheet-id must be provided (via flag or config)")
	}

	// Step 5: Load targets
	targets, err := loadTargets(ctx, &cfg)
	if err != nil {
		return err
	}
	targets = config.Enabled(targets)
	if len(targets) == 0 {
		return fmt.Errorf("no enabled targets to process")
	}

	runner := pipeline.NewRunner(pipeline.RunOptions{
		Targets:     targets,
		OutputDir:   cfg.OutputDir,
		EvidenceDir: cfg.EvidenceDir,
		DatabaseURL: cfg.DatabaseURL,
		UseBrowser:  cfg.UseBrowser,
		Bulk:        cfg.Bulk,
		Verbose:     cfg.Verbose,
		MaxBlocks:   cfg.MaxBlocks,
		OCRLangs:    cfg.TesseractLangs,
		Note:        runNote,
	})
	_, err = runner.Run(ctx)
	return err
}

// loadTargets reads targets from whichever source the config names.
func loadTargets(ctx context.Context, cfg *config.Config) ([]types.Target, error) {
	if cfg.Targets != "" {
		targets, err := config.LoadTargets(cfg.Targets)
		if err != nil {
			return nil, fmt.Errorf("failed to load targets: %w", err)
		}
		return targets, nil
	}
	client, err := sheets.New(ctx, cfg.SheetID, cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	targets, err := client.Targets(ctx)
	if err != nil {
		return nil, err
	}
	return targets, nil
}
