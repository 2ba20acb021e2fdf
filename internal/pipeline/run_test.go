package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gradscout/internal/output"
	"github.com/jonathan/gradscout/internal/types"
)

const tablePage = `<html><body><table>
	<tr><th>担当者</th><th>専門分野</th><th>主要著作</th></tr>
	<tr><td>田中太郎 Tanaka Taro</td><td>マーケティング、消費者行動</td><td>Journal of Marketing</td></tr>
	<tr><td><a href="/people/sato/">佐藤 花子</a></td><td>流通・チャネル</td><td>-</td></tr>
</table></body></html>`

func serve(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tableTarget(srv *httptest.Server) types.Target {
	return types.Target{
		ID:         "keio-shougyou",
		University: "慶應義塾大学",
		Department: "商学研究科",
		Enabled:    true,
		Pages: []types.Page{{
			URL:  srv.URL + "/graduate/shougyou.html",
			Type: types.PageTable,
			Selectors: types.SelectorBundle{
				HeaderKeywords: []string{"担当者", "専門分野"},
			},
		}},
	}
}

func TestRun_TableTarget(t *testing.T) {
	srv := serve(t, map[string]string{"/graduate/shougyou.html": tablePage})
	dir := t.TempDir()

	r := NewRunner(RunOptions{
		Targets:     []types.Target{tableTarget(srv)},
		OutputDir:   filepath.Join(dir, "out"),
		EvidenceDir: filepath.Join(dir, "evidence"),
	})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Records)
	assert.Empty(t, summary.Warnings)

	require.Len(t, summary.Results, 1)
	records := summary.Results[0].Records
	require.Len(t, records, 2)
	assert.Equal(t, "田中 太郎", records[0].Name)
	assert.Equal(t, "マーケティング / 消費者行動", records[0].Theme)
	assert.Equal(t, "慶應義塾大学", records[0].University)
	assert.Equal(t, summary.RunID, records[0].RunID)
	assert.Equal(t, srv.URL+"/graduate/shougyou.html", records[0].SourceURL)
	assert.Equal(t, "佐藤 花子", records[1].Name)
	assert.Contains(t, records[1].Link, "/people/sato/")

	csvPath := output.TargetPath(filepath.Join(dir, "out"), "keio-shougyou")
	_, err = os.Stat(csvPath)
	assert.NoError(t, err, "per-target CSV written")

	assert.NotEmpty(t, records[0].EvidencePath)
	_, err = os.Stat(records[0].EvidencePath)
	assert.NoError(t, err, "evidence artifact written")
}

func TestRun_ZeroRowsAcrossAllTargetsFails(t *testing.T) {
	srv := serve(t, map[string]string{"/empty.html": "<html><body><p>準備中</p></body></html>"})

	r := NewRunner(RunOptions{
		Targets: []types.Target{{
			ID:         "empty",
			University: "U",
			Enabled:    true,
			Pages:      []types.Page{{URL: srv.URL + "/empty.html"}},
		}},
	})
	summary, err := r.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Records)
	assert.NotEmpty(t, summary.Warnings)
}

func TestRun_FetchFailureIsWarningNotError(t *testing.T) {
	srv := serve(t, map[string]string{
		"/ok.html": tablePage,
	})

	r := NewRunner(RunOptions{
		Targets: []types.Target{{
			ID:         "mixed",
			University: "U",
			Enabled:    true,
			Pages: []types.Page{
				{URL: srv.URL + "/missing.html"},
				{URL: srv.URL + "/ok.html", Type: types.PageTable,
					Selectors: types.SelectorBundle{HeaderKeywords: []string{"担当者"}}},
			},
		}},
	})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Records)
	require.NotEmpty(t, summary.Warnings)
	assert.Contains(t, summary.Warnings[0], "missing.html")
}

func TestRun_MergesAcrossPages(t *testing.T) {
	cards := `<html><body>
		<div class="profile"><h3 class="name">佐藤 花子</h3>
		<a href="/people/sato/">プロフィール</a></div>
	</body></html>`
	srv := serve(t, map[string]string{
		"/a.html": tablePage,
		"/b.html": cards,
	})

	r := NewRunner(RunOptions{
		Targets: []types.Target{{
			ID:         "two-pages",
			University: "U",
			Enabled:    true,
			Pages: []types.Page{
				{URL: srv.URL + "/a.html", Type: types.PageTable,
					Selectors: types.SelectorBundle{HeaderKeywords: []string{"担当者"}}},
				{URL: srv.URL + "/b.html", Type: types.PageCards},
			},
		}},
	})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	// 佐藤 花子 appears on both pages with the same personal link and
	// merges into one record.
	assert.Equal(t, 2, summary.Records)

	var sato *types.Record
	for i := range summary.Results[0].Records {
		if summary.Results[0].Records[i].Name == "佐藤 花子" {
			sato = &summary.Results[0].Records[i]
		}
	}
	require.NotNil(t, sato)
	assert.Equal(t, "流通 / チャネル", sato.Theme, "theme from the table pass survives the merge")
}

func TestRun_NoTargets(t *testing.T) {
	_, err := NewRunner(RunOptions{}).Run(context.Background())
	assert.Error(t, err)
}

func TestRun_ProgressCallback(t *testing.T) {
	srv := serve(t, map[string]string{"/graduate/shougyou.html": tablePage})

	var events []ProgressEvent
	r := NewRunner(RunOptions{
		Targets:    []types.Target{tableTarget(srv)},
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "keio-shougyou", events[0].Target)
	assert.Equal(t, "css", events[0].Strategy)
}

func TestEvidenceArtifact_OCRCandidateCarriesRawAndNormalized(t *testing.T) {
	c := types.Candidate{
		Name:     "田中 太郎",
		Theme:    "マーケティング",
		Link:     "https://example.ac.jp/people/tanaka/",
		Fragment: "田中 太郎 マーケティンク\"  消費者行動",
		Strategy: "ocr",
	}
	a := evidenceArtifact("run-1", 3, "https://example.ac.jp/list.html", c)

	assert.Equal(t, c.Fragment, a.OCRRaw)
	assert.Equal(t, "田中 太郎\nマーケティング\nhttps://example.ac.jp/people/tanaka/", a.Normalized)
	assert.Equal(t, 3, a.Seq)
	assert.Equal(t, "https://example.ac.jp/list.html", a.SourceURL)
}

func TestEvidenceArtifact_CSSCandidateHasNoOCRSections(t *testing.T) {
	c := types.Candidate{
		Name:     "佐藤 花子",
		Fragment: "<tr><td>佐藤 花子</td></tr>",
		Strategy: "css",
	}
	a := evidenceArtifact("run-1", 0, "https://example.ac.jp/", c)

	assert.Empty(t, a.OCRRaw)
	assert.Empty(t, a.Normalized)
	assert.Equal(t, c.Fragment, a.Fragment)
}

func TestApplyFixed(t *testing.T) {
	fixed := map[string]string{"theme": "固定テーマ", "lab": "固定研究室"}

	single := types.Candidate{Name: "田中 太郎", Theme: "抽出テーマ"}
	applyFixed(&single, fixed, false)
	assert.Equal(t, "固定テーマ", single.Theme, "single mode: fixed wins")
	assert.Equal(t, "固定研究室", single.Lab)

	bulk := types.Candidate{Name: "田中 太郎", Theme: "抽出テーマ"}
	applyFixed(&bulk, fixed, true)
	assert.Equal(t, "抽出テーマ", bulk.Theme, "bulk mode: extracted value kept")
	assert.Equal(t, "固定研究室", bulk.Lab, "bulk mode: gap filled")
}
