package parse

import (
	"net/url"
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

func baseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestTable_HeaderKeywordMatch(t *testing.T) {
	// Header row matches all three keywords; the citation column is simply
	// never read.
	html := `<html><body>
		<table><tr><th>年度</th><th>定員</th></tr><tr><td>2025</td><td>30</td></tr></table>
		<table>
			<tr><th>担当者</th><th>専門分野</th><th>主要著作</th></tr>
			<tr><td>田中太郎 Tanaka Taro</td><td>マーケティング、消費者行動</td><td>Journal of Marketing</td></tr>
		</table>
	</body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://www.fbc.keio.ac.jp/graduate/shougyou.html"), types.SelectorBundle{
		HeaderKeywords: []string{"担当者", "専門分野", "主要著作"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "田中 太郎", got[0].Name)
	assert.Equal(t, "マーケティング / 消費者行動", got[0].Theme)
	assert.Empty(t, got[0].Link)
}

func TestTable_LinkFromNameCell(t *testing.T) {
	html := `<html><body><table>
		<tr><th>担当者</th><th>専門分野</th></tr>
		<tr><td><a href="/people/sato/">佐藤 花子</a> 教授</td><td>流通・チャネル</td></tr>
	</table></body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://example.ac.jp/grad/"), types.SelectorBundle{
		HeaderKeywords: []string{"担当者"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "佐藤 花子", got[0].Name)
	assert.Equal(t, "流通 / チャネル", got[0].Theme)
	assert.Equal(t, "https://example.ac.jp/people/sato/", got[0].Link)
}

func TestTable_ConfiguredColumnIndexes(t *testing.T) {
	html := `<html><body><table>
		<tr><th>番号</th><th>専門</th><th>担当者</th></tr>
		<tr><td>1</td><td>統計学</td><td>山田 一郎</td></tr>
	</table></body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{
		HeaderKeywords: []string{"担当者"},
		NameCellIdx:    2,
		ThemeCellIdx:   1,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "山田 一郎", got[0].Name)
	assert.Equal(t, "統計学", got[0].Theme)
}

func TestTable_AutoColumnScoring(t *testing.T) {
	// No column indexes configured and the name column is not the first one:
	// column scoring has to find it.
	html := `<html><body><table>
		<tr><th>役職</th><th>専門分野</th><th>氏名</th></tr>
		<tr><td>教授</td><td>統計学、計量経済学</td><td>山田 一郎</td></tr>
		<tr><td>准教授</td><td>マーケティング</td><td>田中 太郎</td></tr>
	</table></body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{
		HeaderKeywords: []string{"氏名"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "山田 一郎", got[0].Name)
	assert.Equal(t, "統計学 / 計量経済学", got[0].Theme)
	assert.Equal(t, "田中 太郎", got[1].Name)
	assert.Equal(t, "マーケティング", got[1].Theme)
}

func TestTable_AutoThemeNeverNameColumn(t *testing.T) {
	// The name cells mention a research-field word (the lab name), so the name
	// column also scores theme hits. The theme column must still be a
	// different one.
	html := `<html><body><table>
		<tr><th>担当者</th><th>専門</th></tr>
		<tr><td>田中 太郎（統計研究室）</td><td>計量経済学</td></tr>
	</table></body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{
		HeaderKeywords: []string{"担当者"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "田中 太郎", got[0].Name)
	assert.Equal(t, "計量経済学", got[0].Theme)
}

func TestTable_NoKeywordsNoSelector(t *testing.T) {
	html := `<html><body><table><tr><td>田中 太郎</td><td>統計</td></tr></table></body></html>`

	p := New()
	got := p.Table(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{})
	assert.Empty(t, got)
}

func TestCards_ExplicitSelectors(t *testing.T) {
	html := `<html><body>
		<div class="kyoin"><span class="namae">田中 太郎</span><span class="bunya">マーケティング</span><a class="pf" href="/people/tanaka/">詳細</a></div>
		<div class="kyoin"><span class="namae">佐藤 花子</span><span class="bunya">消費者行動</span><a class="pf" href="/people/sato/">詳細</a></div>
	</body></html>`

	p := New()
	got := p.Cards(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{
		Item:  ".kyoin",
		Name:  ".namae",
		Theme: ".bunya",
		Link:  ".pf@href",
	})

	require.Len(t, got, 2)
	assert.Equal(t, "田中 太郎", got[0].Name)
	assert.Equal(t, "マーケティング", got[0].Theme)
	assert.Equal(t, "https://example.ac.jp/people/tanaka/", got[0].Link)
	assert.Equal(t, "佐藤 花子", got[1].Name)
}

func TestCards_FallbackChain(t *testing.T) {
	// No selectors at all: the .profile item fallback, the .name guess, and
	// the research-keyword theme guess carry the extraction.
	html := `<html><body>
		<div class="profile">
			<h3 class="name">教授 田中 太郎</h3>
			<p>専門分野: マーケティング・消費者行動</p>
			<a href="/people/tanaka/">プロフィール</a>
		</div>
	</body></html>`

	p := New()
	got := p.Cards(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{})

	require.Len(t, got, 1)
	assert.Equal(t, "田中 太郎", got[0].Name)
	assert.Contains(t, got[0].Theme, "マーケティング")
	assert.Contains(t, got[0].Theme, "消費者行動")
	assert.Equal(t, "https://example.ac.jp/people/tanaka/", got[0].Link)
}

func TestCards_PlaceholderSelectorBehavesLikeAbsent(t *testing.T) {
	html := `<html><body>
		<div class="profile"><h3 class="name">田中 太郎</h3></div>
	</body></html>`

	p := New()
	withPlaceholder := p.Cards(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{
		Item: "item", Name: "name", Theme: "テーマ", Link: "リンク",
	})
	without := p.Cards(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{})

	assert.Equal(t, without, withPlaceholder)
	require.Len(t, withPlaceholder, 1)
	assert.Equal(t, "田中 太郎", withPlaceholder[0].Name)
}

func TestList_DropsNamelessItems(t *testing.T) {
	html := `<html><body><ul>
		<li>田中 太郎（マーケティング）</li>
		<li>お知らせ一覧</li>
		<li>佐藤 花子（統計学）</li>
	</ul></body></html>`

	p := New()
	got := p.List(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{})

	require.Len(t, got, 2)
	assert.Equal(t, "田中 太郎", got[0].Name)
	assert.Equal(t, "佐藤 花子", got[1].Name)
}

func TestList_ThemeOptionalDefaultsEmpty(t *testing.T) {
	html := `<html><body><ul><li>田中 太郎</li></ul></body></html>`

	p := New()
	got := p.List(parseDoc(t, html), baseURL(t, "https://example.ac.jp/"), types.SelectorBundle{})

	require.Len(t, got, 1)
	assert.Empty(t, got[0].Theme)
}

func TestByType_Dispatch(t *testing.T) {
	html := `<html><body><ul><li>田中 太郎</li></ul></body></html>`
	p := New()
	base := baseURL(t, "https://example.ac.jp/")

	assert.Empty(t, p.ByType(parseDoc(t, html), base, types.PageTable, types.SelectorBundle{}))
	assert.Len(t, p.ByType(parseDoc(t, html), base, types.PageList, types.SelectorBundle{}), 1)
	assert.Len(t, p.ByType(parseDoc(t, html), base, "", types.SelectorBundle{}), 1)
}
