// Package output serializes merged records into the tabular form consumed by
// the spreadsheet catalog: a fixed Japanese column order, one CSV per target.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/gradscout/internal/types"
)

// Header is the output column order. The first eight columns are the
// catalog's established layout; the trailing four carry run metadata.
func Header() []string {
	return []string{
		"大学名", "研究科", "専攻名", "氏名（漢字）",
		"研究テーマ（スラッシュ区切り）", "個人ページURL", "出典URL", "取得日時",
		"run_id", "研究室名称（JP）", "タグ", "エビデンス",
	}
}

// Row renders one record in Header order.
func Row(r types.Record) []string {
	return []string{
		r.University, r.Department, r.Major, r.Name,
		r.Theme, r.Link, r.SourceURL, r.RetrievedAt,
		r.RunID, r.Lab, r.Tag, r.EvidencePath,
	}
}

// WriteCSV writes records with the standard header to path, creating parent
// directories as needed.
func WriteCSV(path string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// Excel needs the BOM to open UTF-8 CSVs with Japanese text correctly.
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(Row(r)); err != nil {
			return fmt.Errorf("failed to write record for %q: %w", r.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// TargetPath names the per-target CSV file under dir.
func TargetPath(dir, targetID string) string {
	return filepath.Join(dir, targetID+".csv")
}
