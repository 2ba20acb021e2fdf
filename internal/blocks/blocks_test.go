package blocks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gradscout/internal/types"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestGenericGrouping_LargestGroupFirst(t *testing.T) {
	// 20 structurally identical <li> entries plus 5 unrelated singleton
	// <div>s: the li group must come first, in document order.
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 3; i++ {
		sb.WriteString(fmt.Sprintf(`<div class="x%d"><span>box</span><em>note %d</em></div>`, i, i))
	}
	sb.WriteString("<ul>")
	for i := 0; i < 20; i++ {
		sb.WriteString(fmt.Sprintf("<li>教員 %02d</li>", i))
	}
	sb.WriteString("</ul>")
	for i := 3; i < 5; i++ {
		sb.WriteString(fmt.Sprintf(`<div class="x%d"><b>box</b><i>note %d</i></div>`, i, i))
	}
	sb.WriteString("</body></html>")

	out := Extract(parseDoc(t, sb.String()), "https://example.ac.jp/faculty/", 0, Options{})
	require.GreaterOrEqual(t, len(out), 20)

	for i := 0; i < 20; i++ {
		assert.Equal(t, "LI", out[i].Tag, "position %d", i)
		assert.Equal(t, fmt.Sprintf("教員 %02d", i), out[i].Text, "document order within the group")
	}
	assert.Equal(t, "DIV", out[20].Tag)
}

func TestGenericGrouping_SkipsEmptyAndDeterministic(t *testing.T) {
	html := `<html><body>
		<ul>
			<li>田中 太郎</li>
			<li></li>
			<li>佐藤 花子</li>
		</ul>
	</body></html>`

	first := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{})
	require.Len(t, first, 2)
	for i := 0; i < 5; i++ {
		again := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{})
		assert.Equal(t, first, again)
	}
}

func TestGenericGrouping_MaxBlocks(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><ul>")
	for i := 0; i < 50; i++ {
		sb.WriteString(fmt.Sprintf("<li>row %d</li>", i))
	}
	sb.WriteString("</ul></body></html>")

	out := Extract(parseDoc(t, sb.String()), "https://example.ac.jp/", 10, Options{})
	assert.Len(t, out, 10)
}

func TestExtract_AbsolutizesLinks(t *testing.T) {
	html := `<html><head><base href="/dir/"></head><body>
		<ul><li><a href="tanaka.html">田中 太郎</a></li><li><a href="sato.html">佐藤 花子</a></li></ul>
	</body></html>`

	out := Extract(parseDoc(t, html), "https://example.ac.jp/faculty/index.html", 0, Options{})
	require.NotEmpty(t, out)
	require.NotEmpty(t, out[0].Links)
	assert.Equal(t, "https://example.ac.jp/dir/tanaka.html", out[0].Links[0].Href)
}

func TestExtract_RemovesBoilerplate(t *testing.T) {
	html := `<html><body>
		<nav><ul><li>Home</li><li>About</li><li>Access</li></ul></nav>
		<ul><li>田中 太郎</li><li>佐藤 花子</li></ul>
		<footer><div>copyright</div></footer>
	</body></html>`

	out := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{})
	for _, b := range out {
		assert.NotContains(t, b.Text, "Home")
		assert.NotContains(t, b.Text, "copyright")
	}
}

func TestGoldenSeed_NameBeatsImageOnlyParent(t *testing.T) {
	// The seed anchor's direct parent holds only an image; the grandparent
	// carries the golden name text. The golden-name container must win.
	html := `<html><body>
		<div class="entry">
			<div class="photo"><img src="x.png"><a href="/people/tanaka/">profile</a></div>
			<p>田中 太郎 教授</p>
			<p>マーケティング、消費者行動の研究をしています。研究室はこちらです。</p>
		</div>
	</body></html>`

	doc := parseDoc(t, html)
	out := Extract(doc, "https://example.ac.jp/faculty/", 0, Options{
		Golden: &types.Golden{Name: "田中 太郎"},
	})
	require.NotEmpty(t, out)
	assert.Equal(t, "golden", out[0].GroupID)
	assert.Contains(t, out[0].Text, "田中 太郎")
	assert.Contains(t, out[0].Text, "マーケティング")
}

func TestGoldenSeed_DeduplicatesContainers(t *testing.T) {
	html := `<html><body>
		<div class="entry">
			<a href="/people/tanaka/">田中 太郎</a>
			<p>田中 太郎 教授 マーケティングを専門とし、消費者行動を研究しています。</p>
		</div>
	</body></html>`

	out := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{
		Golden: &types.Golden{Name: "田中 太郎", Link: "https://example.ac.jp/people/tanaka/"},
	})
	// Link seed and name seed both resolve to the same container.
	require.Len(t, out, 1)
}

func TestGoldenSeed_FallsBackToGeneric(t *testing.T) {
	html := `<html><body><ul><li>山田 一郎</li><li>鈴木 次郎</li></ul></body></html>`

	out := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{
		Golden: &types.Golden{Name: "存在 しない"},
	})
	require.NotEmpty(t, out)
	assert.NotEqual(t, "golden", out[0].GroupID)
}

func TestPreferRole_SeedsFromTitles(t *testing.T) {
	html := `<html><body>
		<table><tr><td>教授 田中 太郎 マーケティング論を担当。消費者行動とブランド戦略の研究。</td></tr></table>
	</body></html>`

	out := Extract(parseDoc(t, html), "https://example.ac.jp/", 0, Options{PreferRole: true})
	require.NotEmpty(t, out)
	assert.Equal(t, "role", out[0].GroupID)
}

func TestLooksPersonal(t *testing.T) {
	assert.True(t, LooksPersonal("https://example.ac.jp/people/tanaka/"))
	assert.True(t, LooksPersonal("/staff/sato.html"))
	assert.True(t, LooksPersonal("https://example.ac.jp/faculty/profile.html?id=3"))
	assert.True(t, LooksPersonal("/researchers/yamada"))

	assert.False(t, LooksPersonal("https://example.ac.jp/"))
	assert.False(t, LooksPersonal("/access/map.html"))
}

func TestHostRegistry_DefinitionPairs(t *testing.T) {
	html := `<html><body><dl>
		<dt><a href="/people/tanaka/">田中 太郎</a></dt>
		<dd>マーケティング</dd>
		<dt>事務室</dt>
		<dd><a href="/access/">アクセス</a></dd>
		<dt><a href="/people/sato/">佐藤 花子</a></dt>
		<dd>消費者行動</dd>
	</dl></body></html>`

	reg := NewRegistry(Rule{
		Tag:     "dl-host",
		Match:   HostPath("example.ac.jp", "/grad"),
		Extract: ExtractDefinitionPairs,
	})
	out := Extract(parseDoc(t, html), "https://example.ac.jp/grad/index.html", 0, Options{Registry: reg})

	require.Len(t, out, 2)
	assert.Contains(t, out[0].Text, "田中 太郎")
	assert.Contains(t, out[0].Text, "マーケティング")
	assert.Contains(t, out[1].Text, "佐藤 花子")
}

func TestHostRegistry_LabLinkCounts(t *testing.T) {
	html := `<html><body><ul>
		<li>教授 田中 太郎 <a href="/labs/tanaka/">研究室</a></li>
		<li>佐藤 花子 <a href="/labs/sato/">lab</a></li>
		<li>山田 一郎 <a href="/labs/a/">lab</a> <a href="/labs/b/">lab</a></li>
		<li>リンク集 <a href="/links/">外部リンク</a></li>
	</ul></body></html>`

	reg := NewRegistry(Rule{
		Tag:     "lab-host",
		Match:   HostPath("example.ac.jp", "/"),
		Extract: ExtractLabLists,
	})
	out := Extract(parseDoc(t, html), "https://example.ac.jp/faculty/", 0, Options{Registry: reg})

	require.Len(t, out, 2)
	// role keyword allows multiple lab links; without one exactly 1 is
	// required, so the two-link no-role item and the link farm drop out.
	assert.Contains(t, out[0].Text, "田中 太郎")
	assert.Contains(t, out[1].Text, "佐藤 花子")
}

func TestHostRegistry_NoClaimFallsThrough(t *testing.T) {
	html := `<html><body><ul><li>田中 太郎</li><li>佐藤 花子</li></ul></body></html>`

	out := Extract(parseDoc(t, html), "https://other.ac.jp/faculty/", 0, Options{Registry: DefaultRegistry()})
	require.NotEmpty(t, out)
	assert.NotEqual(t, "fbc-keio-dl", out[0].GroupID)
}
