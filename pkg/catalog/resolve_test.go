package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSectionBySlug(t *testing.T) {
	c := testCatalog(t)
	for _, s := range c.Sections() {
		if s.Slug == "" {
			continue
		}
		actual, err := c.ResolveSection(s.Slug)
		require.NoError(t, err)
		require.Same(t, s, actual)
	}
}

func TestResolveSectionByIndex(t *testing.T) {
	c := testCatalog(t)
	s, err := c.ResolveSection("3")
	require.NoError(t, err)
	require.Equal(t, "music", s.Slug)

	s, err = c.ResolveSection("4")
	require.NoError(t, err)
	require.Equal(t, "Untitled", s.SectionTitle)

	for _, key := range []string{"", "5", "-1", "nope", "1.5", "03", "+3", " 3", "-0"} {
		_, err = c.ResolveSection(key)
		require.True(t, errors.Is(err, ErrSectionNotFound), key)
	}
}

func TestResolveSectionSlugShadowsIndex(t *testing.T) {
	c, err := New([]Section{
		{Type: TypeVideos, Slug: "first"},
		{Type: TypeVideos, Slug: "0"},
	})
	require.NoError(t, err)
	s, err := c.ResolveSection("0")
	require.NoError(t, err)
	require.Equal(t, "0", s.Slug)
}

func TestResolveItem(t *testing.T) {
	c := testCatalog(t)
	for _, s := range c.Sections() {
		for _, item := range s.Content {
			actual, err := ResolveItem(s, item.ID)
			require.NoError(t, err)
			require.Equal(t, item, actual)
		}
		_, err := ResolveItem(s, "nonexistent")
		require.True(t, errors.Is(err, ErrItemNotFound))
	}

	_, err := ResolveItem(nil, "1")
	require.True(t, errors.Is(err, ErrItemNotFound))
}

func TestResolveItemUnindexedSection(t *testing.T) {
	s := &Section{Type: TypeVideos, Content: []Item{video("1"), {ID: "1", Name: "second"}, video("2")}}
	item, err := ResolveItem(s, " 1 ")
	require.NoError(t, err)
	require.Equal(t, "Video 1", item.Name)

	_, err = ResolveItem(s, "3")
	require.True(t, errors.Is(err, ErrItemNotFound))
}

func TestResolveScenario(t *testing.T) {
	c, err := New([]Section{
		{Type: TypeVideos, Slug: "a", Content: []Item{video("v1"), video("v2"), video("v3")}},
	})
	require.NoError(t, err)
	s, err := c.ResolveSection("a")
	require.NoError(t, err)
	v2, err := ResolveItem(s, "v2")
	require.NoError(t, err)
	require.Equal(t, "Video v2", v2.Name)
}
