package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gradscout/internal/types"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "慶應義塾大学-商学研究科", Slugify("慶應義塾大学", "商学研究科"))
	assert.Equal(t, "tokyo-econ", Slugify("Tokyo", "Econ"))
	assert.Equal(t, "target", Slugify("", ""))
	assert.Equal(t, "東京都立大学-経済学研究科", Slugify(" 東京都立大学 ", "経済学研究科 "))
}

func TestTruthyAndEnabled(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "y", "有効"} {
		assert.True(t, truthy(s), s)
	}
	for _, s := range []string{"false", "0", "no", "", "無効"} {
		assert.False(t, truthy(s), s)
	}

	assert.True(t, enabled(""), "blank enabled cell defaults to true")
	assert.False(t, enabled("FALSE"))
}

func headerFor(cols ...string) map[string]int {
	h := map[string]int{}
	for i, c := range cols {
		h[c] = i
	}
	return h
}

func TestRowTarget(t *testing.T) {
	header := headerFor(
		"大学名", "研究科", "研究科URL", "有効", "ページ種別", "動的取得",
		"教授名（JP）の場所（CSS）", "教授名（JP）", "研究テーマ（JP）",
	)

	r := newRow(header, []any{
		"慶應義塾大学", "商学研究科", "https://www.fbc.keio.ac.jp/graduate/shougyou.html",
		"有効", "Table", "true", ".namae", "田中 太郎", "マーケティング",
	})

	target, ok := rowTarget(r)
	require.True(t, ok)
	assert.Equal(t, "慶應義塾大学", target.University)
	assert.Equal(t, "商学研究科", target.Department)
	require.Len(t, target.Pages, 1)
	assert.Equal(t, types.PageTable, target.Pages[0].Type)
	assert.True(t, target.Pages[0].Dynamic)
	assert.Equal(t, ".namae", target.Pages[0].Selectors.Name)
	require.NotNil(t, target.Golden)
	assert.Equal(t, "田中 太郎", target.Golden.Name)
	assert.Equal(t, "マーケティング", target.Golden.Theme)
}

func TestRowTarget_SkipsRows(t *testing.T) {
	header := headerFor("大学名", "研究科URL", "有効")

	_, ok := rowTarget(newRow(header, []any{"U", "", ""}))
	assert.False(t, ok, "no URL")

	_, ok = rowTarget(newRow(header, []any{"U", "https://a.example/", "FALSE"}))
	assert.False(t, ok, "disabled")
}

func TestRowTarget_NoGoldenWhenColumnsEmpty(t *testing.T) {
	header := headerFor("大学名", "出典URL")
	target, ok := rowTarget(newRow(header, []any{"U", "https://a.example/faculty/"}))
	require.True(t, ok)
	assert.Nil(t, target.Golden)
}
