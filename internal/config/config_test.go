package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"sheet_id": "abc123",
		"output_dir": "out",
		"use_browser": true,
		"max_blocks": 150
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.SheetID)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.UseBrowser)
	assert.Equal(t, 150, cfg.MaxBlocks)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeFile(t, "bad.json", `{not json`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	targets := writeFile(t, "targets.json", `[]`)

	ok := Config{Targets: targets}
	assert.NoError(t, ok.Validate())

	both := Config{Targets: targets, SheetID: "abc"}
	assert.Error(t, both.Validate())

	negative := Config{MaxBlocks: -1}
	assert.Error(t, negative.Validate())

	missing := Config{Targets: filepath.Join(t.TempDir(), "nope.json")}
	assert.Error(t, missing.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{SheetID: "mine"}
	merged := cfg.MergeWithDefaults(Config{SheetID: "default", OutputDir: "out", Verbose: true})

	assert.Equal(t, "mine", merged.SheetID, "explicit value wins")
	assert.Equal(t, "out", merged.OutputDir, "empty value filled")
	assert.True(t, merged.Verbose)
}

const validTargets = `[
	{
		"id": "keio-shougyou",
		"university": "慶應義塾大学",
		"graduate_school": "商学研究科",
		"enabled": true,
		"pages": [
			{
				"url": "https://www.fbc.keio.ac.jp/graduate/shougyou.html",
				"page_type": "table",
				"selectors": {
					"header_keywords": ["担当者", "専門分野"]
				}
			}
		]
	},
	{
		"id": "disabled-one",
		"university": "東京都立大学",
		"enabled": false,
		"pages": [{ "url": "https://www.econ.metro-u.ac.jp/faculty/" }]
	}
]`

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets([]byte(validTargets))
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "慶應義塾大学", targets[0].University)
	assert.Equal(t, []string{"担当者", "専門分野"}, targets[0].Pages[0].Selectors.HeaderKeywords)

	enabled := Enabled(targets)
	require.Len(t, enabled, 1)
	assert.Equal(t, "keio-shougyou", enabled[0].ID)
}

func TestParseTargets_SchemaViolations(t *testing.T) {
	t.Run("missing university", func(t *testing.T) {
		_, err := ParseTargets([]byte(`[{"id": "x", "pages": [{"url": "https://a.example/"}]}]`))
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.NotEmpty(t, ve.Errors)
	})

	t.Run("empty pages", func(t *testing.T) {
		_, err := ParseTargets([]byte(`[{"id": "x", "university": "U", "pages": []}]`))
		assert.Error(t, err)
	})

	t.Run("unknown page type", func(t *testing.T) {
		_, err := ParseTargets([]byte(`[{"id": "x", "university": "U",
			"pages": [{"url": "https://a.example/", "page_type": "grid"}]}]`))
		assert.Error(t, err)
	})

	t.Run("unknown selector key", func(t *testing.T) {
		_, err := ParseTargets([]byte(`[{"id": "x", "university": "U",
			"pages": [{"url": "https://a.example/", "selectors": {"naem_selector": ".n"}}]}]`))
		assert.Error(t, err)
	})
}

func TestParseTargets_StructValidation(t *testing.T) {
	// Passes the schema (any non-empty string) but fails the url format check.
	_, err := ParseTargets([]byte(`[{"id": "x", "university": "U", "pages": [{"url": "not a url"}]}]`))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gradscout")
	t.Setenv("GRADSCOUT_SHEET_ID", "env-sheet")

	cfg := Config{SheetID: "explicit"}
	cfg.FromEnv()

	assert.Equal(t, "postgres://localhost/gradscout", cfg.DatabaseURL)
	assert.Equal(t, "explicit", cfg.SheetID, "explicit value not overridden")
}
