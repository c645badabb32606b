package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestCategoryBeforeSaveDefaultsSlug(t *testing.T) {
	cat := Category{Name: "Trà Xanh Đặc Biệt"}
	require.NoError(t, cat.BeforeSave(nil))
	require.Equal(t, "tra-xanh-dac-biet", cat.Slug)

	// An explicit slug is never overwritten.
	cat = Category{Name: "Green Tea", Slug: "custom-slug"}
	require.NoError(t, cat.BeforeSave(nil))
	require.Equal(t, "custom-slug", cat.Slug)
}

func TestProductBeforeSaveSEODefaults(t *testing.T) {
	short := Product{Name: "Trà Ô Long", Description: "Trà ngon."}
	require.NoError(t, short.BeforeSave(nil))
	require.Equal(t, "tra-o-long", short.Slug)
	require.Equal(t, short.Name, short.MetaTitle)
	require.Equal(t, short.Description, short.MetaDescription)
}

func TestProductMetaDescriptionTruncatesOnRunes(t *testing.T) {
	// 200 multi-byte characters; a byte-based cut would land mid-rune.
	long := strings.Repeat("ế", 200)
	p := Product{Name: "Long", Description: long}
	require.NoError(t, p.BeforeSave(nil))

	require.True(t, utf8.ValidString(p.MetaDescription))
	require.Equal(t, 163, utf8.RuneCountInString(p.MetaDescription))
	require.True(t, strings.HasSuffix(p.MetaDescription, "..."))
	require.Equal(t, strings.Repeat("ế", 160), strings.TrimSuffix(p.MetaDescription, "..."))
}
