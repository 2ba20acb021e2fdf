// Package config provides configuration loading and validation for the CLI:
// run settings from a JSON file plus environment, and the targets file with
// JSON-schema pre-validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or come from
// CLI flags.
type Config struct {
	// Inputs
	Targets string `json:"targets,omitempty"`  // Path to targets JSON file
	SheetID string `json:"sheet_id,omitempty"` // Google Sheet ID holding targets

	// Outputs
	OutputDir   string `json:"output_dir,omitempty"`   // Directory for CSV output
	EvidenceDir string `json:"evidence_dir,omitempty"` // Directory for evidence artifacts

	// Integrations
	CredentialsPath string `json:"credentials,omitempty"`   // Google service-account credentials JSON
	DatabaseURL     string `json:"database_url,omitempty"`  // PostgreSQL connection URL (archive + page cache)
	TesseractLangs  string `json:"ocr_languages,omitempty"` // Tesseract -l argument

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Render pages in a headless browser
	Bulk       bool `json:"bulk,omitempty"`        // Bulk mode: fixed overrides fill gaps instead of winning
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed diagnostics
	MaxBlocks  int  `json:"max_blocks,omitempty"`  // Upper bound on blocks per page
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are enforced by CLI flag validation after merging, not here.
func (c *Config) Validate() error {
	if c.Targets != "" && c.SheetID != "" {
		return fmt.Errorf("config error: 'targets' and 'sheet_id' are mutually exclusive")
	}
	if c.MaxBlocks < 0 {
		return fmt.Errorf("config error: 'max_blocks' must be non-negative")
	}
	if c.Targets != "" {
		if _, err := os.Stat(c.Targets); os.IsNotExist(err) {
			return fmt.Errorf("config error: targets file not found: %s", c.Targets)
		}
	}
	if c.CredentialsPath != "" {
		if _, err := os.Stat(c.CredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: credentials file not found: %s", c.CredentialsPath)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults, used to apply config-file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Targets == "" {
		result.Targets = defaults.Targets
	}
	if result.SheetID == "" {
		result.SheetID = defaults.SheetID
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.EvidenceDir == "" {
		result.EvidenceDir = defaults.EvidenceDir
	}
	if result.CredentialsPath == "" {
		result.CredentialsPath = defaults.CredentialsPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TesseractLangs == "" {
		result.TesseractLangs = defaults.TesseractLangs
	}
	if result.MaxBlocks == 0 {
		result.MaxBlocks = defaults.MaxBlocks
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Bulk {
		result.Bulk = defaults.Bulk
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

// FromEnv fills integration settings from the environment when unset. The
// CLI loads .env first, so these pick up both real env vars and dotenv
// values.
func (c *Config) FromEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.SheetID == "" {
		c.SheetID = os.Getenv("GRADSCOUT_SHEET_ID")
	}
}
