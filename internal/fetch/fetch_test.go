package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>教員一覧</body></html>"))
	}))
	defer srv.Close()

	got, err := URL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, got.StatusCode)
	assert.Contains(t, got.HTML, "教員一覧")
	assert.False(t, got.Rendered)
}

func TestURL_StatusErrorKeepsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	got, err := URL(context.Background(), srv.URL, nil)
	require.Error(t, err)
	require.NotNil(t, got)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, srv.URL, fetchErr.URL)
}

func TestURL_NonHTMLContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := URL(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-HTML")
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not a url", nil)
	assert.Error(t, err)

	_, err = URL(context.Background(), "/relative/path", nil)
	assert.Error(t, err)
}

func TestURL_SendsUserAgentAndHeaders(t *testing.T) {
	var gotUA, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept-Language": "ja"}
	_, err := URL(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "ja", gotExtra)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML(""))
	assert.True(t, IsHTML("text/html"))
	assert.True(t, IsHTML("text/html; charset=Shift_JIS"))
	assert.True(t, IsHTML("application/xhtml+xml"))
	assert.False(t, IsHTML("application/pdf"))
	assert.False(t, IsHTML("image/png"))
}

func TestLooksScriptRendered(t *testing.T) {
	assert.True(t, LooksScriptRendered("<html></html>"))
	assert.False(t, LooksScriptRendered(string(make([]byte, MinContentLength))))
}

func TestWriteShot_CreatesParentDir(t *testing.T) {
	// The full-page path lives under a per-run screenshot directory that does
	// not exist on a fresh run.
	path := filepath.Join(t.TempDir(), "_screenshots", "shot_0a1b2c3d.png")

	require.NoError(t, writeShot(path, []byte("png"), "https://example.ac.jp/"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestCachedFetcher_NilDatabaseFetchesDirectly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := NewCachedFetcher(nil, nil)
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, got.FromCache)
	assert.Contains(t, got.HTML, "ok")
}
