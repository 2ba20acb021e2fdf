// Package sheets integrates with the Google Sheets catalog: reading scrape
// targets (with their golden examples) from the operator's worksheet and
// pushing merged records back.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jonathan/gradscout/internal/output"
	"github.com/jonathan/gradscout/internal/types"
)

// TargetsTab is the worksheet holding one row per target page.
const TargetsTab = "examples"

// Client wraps the Sheets service for one spreadsheet.
type Client struct {
	svc     *gsheets.Service
	sheetID string
}

// New builds a client for sheetID. credentialsPath may be empty, in which
// case application default credentials are used.
func New(ctx context.Context, sheetID, credentialsPath string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	opts = append(opts, option.WithScopes(gsheets.SpreadsheetsScope))

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, sheetID: sheetID}, nil
}

// Targets reads the targets worksheet and converts each enabled row into a
// Target with a single page. Rows without a URL are skipped.
func (c *Client) Targets(ctx context.Context) ([]types.Target, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, TargetsTab+"!A1:Z").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s tab: %w", TargetsTab, err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	header := map[string]int{}
	for i, h := range resp.Values[0] {
		header[strings.TrimSpace(fmt.Sprint(h))] = i
	}

	var targets []types.Target
	for _, raw := range resp.Values[1:] {
		row := newRow(header, raw)
		if t, ok := rowTarget(row); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// PushRecords replaces the contents of tab with a header row plus one row
// per record, creating the tab when it does not exist.
func (c *Client) PushRecords(ctx context.Context, tab string, records []types.Record) error {
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.sheetID, tab, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear tab %s: %w", tab, err)
	}

	values := make([][]any, 0, len(records)+1)
	values = append(values, toAny(output.Header()))
	for _, r := range records {
		values = append(values, toAny(output.Row(r)))
	}

	_, err := c.svc.Spreadsheets.Values.
		Update(c.sheetID, tab+"!A1", &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update tab %s: %w", tab, err)
	}
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	meta, err := c.svc.Spreadsheets.Get(c.sheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to inspect spreadsheet: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.sheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: tab},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add tab %s: %w", tab, err)
	}
	return nil
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// row gives name-based access to one worksheet row.
type row struct {
	header map[string]int
	cells  []any
}

func newRow(header map[string]int, cells []any) row {
	return row{header: header, cells: cells}
}

func (r row) get(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(r.cells[idx]))
}

// truthy matches the operator conventions seen in the worksheet: English
// booleans and the Japanese 有効.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "有効":
		return true
	}
	return false
}

// enabled defaults to true when the cell is blank.
func enabled(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	return truthy(s)
}

// rowTarget converts one worksheet row into a Target.
func rowTarget(r row) (types.Target, bool) {
	url := r.get("研究科URL")
	if url == "" {
		url = r.get("出典URL")
	}
	if url == "" || !enabled(r.get("有効")) {
		return types.Target{}, false
	}

	univ := r.get("大学名")
	grad := r.get("研究科")
	t := types.Target{
		ID:         Slugify(univ, grad),
		University: univ,
		Department: grad,
		Major:      r.get("専攻名"),
		Enabled:    true,
		Tag:        r.get("タグ"),
		Note:       r.get("備考"),
	}

	page := types.Page{
		URL:     url,
		Type:    types.PageType(strings.ToLower(r.get("ページ種別"))),
		Dynamic: truthy(r.get("動的取得")),
		Selectors: types.SelectorBundle{
			Item:  r.get("抽出単位（list用）"),
			Name:  r.get("教授名（JP）の場所（CSS）"),
			Theme: r.get("研究テーマ（JP）の場所（CSS）"),
			Link:  r.get("リンク（JP）の場所（CSS）"),
			Lab:   r.get("研究室名称（JP）の場所（CSS）"),
			Tag:   r.get("タグ（JP）の場所（CSS）"),
		},
	}
	t.Pages = []types.Page{page}

	golden := types.Golden{
		Name:  r.get("教授名（JP）"),
		Theme: r.get("研究テーマ（JP）"),
		Link:  r.get("リンク（JP）"),
	}
	if golden != (types.Golden{}) {
		t.Golden = &golden
	}
	return t, true
}

var (
	slugSpaceRE = regexp.MustCompile(`[\s　]+`)
	slugDropRE  = regexp.MustCompile(`[^0-9A-Za-z\-぀-ヿ一-鿿]`)
)

// Slugify derives a stable target ID from university + graduate school.
func Slugify(university, grad string) string {
	s := strings.TrimSpace(university + " " + grad)
	s = slugSpaceRE.ReplaceAllString(s, "-")
	s = slugDropRE.ReplaceAllString(s, "")
	s = strings.Trim(strings.ToLower(s), "-")
	if s == "" {
		return "target"
	}
	return s
}
