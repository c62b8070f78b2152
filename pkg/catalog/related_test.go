package catalog

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ids(items []Item) []ItemID {
	res := make([]ItemID, 0, len(items))
	for _, item := range items {
		res = append(res, item.ID)
	}
	return res
}

func newSelector(t *testing.T, limits Limits) *Selector {
	s, err := NewSelector(limits, AdFirst, nil)
	require.NoError(t, err)
	return s
}

func TestSelect(t *testing.T) {
	c := testCatalog(t)
	current := c.Sections()[0]
	item := current.Content[1]

	sel := newSelector(t, DefaultLimits).Select(c, current, item)

	require.Equal(t, []ItemID{"1", "3", "4", "5"}, ids(sel.Related))
	require.Equal(t, []ItemID{"m1", "m2"}, ids(sel.Recommended))
	require.Equal(t, "music", sel.RecommendedFrom.Slug)
	require.Equal(t, []ItemID{"s1", "s2"}, ids(sel.Shorts))
	require.Equal(t, "shorts", sel.ShortsFrom.Slug)
	require.NotNil(t, sel.Ad)
	require.Equal(t, ItemID("a1"), sel.Ad.ID)
}

func TestSelectRelatedNeverContainsCurrent(t *testing.T) {
	c := testCatalog(t)
	for _, limit := range []int{-1, 0, 1, 4, 5, 100} {
		selector := newSelector(t, Limits{Related: limit, Recommended: limit, Shorts: limit})
		for _, s := range c.Sections() {
			for _, item := range s.Content {
				sel := selector.Select(c, s, item)
				require.NotContains(t, ids(sel.Related), item.ID)
				if limit >= 0 {
					require.LessOrEqual(t, len(sel.Related), limit)
					require.LessOrEqual(t, len(sel.Recommended), limit)
					require.LessOrEqual(t, len(sel.Shorts), limit)
				} else {
					require.Len(t, sel.Related, len(s.Content)-1)
				}
			}
		}
	}
}

func TestSelectRecommendedSkipsCurrentSection(t *testing.T) {
	c := testCatalog(t)
	music := c.Sections()[3]
	sel := newSelector(t, DefaultLimits).Select(c, music, music.Content[0])
	require.Equal(t, "trending", sel.RecommendedFrom.Slug)
	require.Equal(t, []ItemID{"1", "2", "3", "4"}, ids(sel.Recommended))
}

func TestSelectWithoutOtherSources(t *testing.T) {
	c, err := New([]Section{
		{Type: TypeVideos, Slug: "a", Content: []Item{video("v1"), video("v2"), video("v3")}},
	})
	require.NoError(t, err)
	s := c.Sections()[0]
	v2 := s.Content[1]

	sel := newSelector(t, DefaultLimits).Select(c, s, v2)
	require.Equal(t, []ItemID{"v1", "v3"}, ids(sel.Related))
	require.Empty(t, sel.Recommended)
	require.Nil(t, sel.RecommendedFrom)
	require.Empty(t, sel.Shorts)
	require.Nil(t, sel.Ad)
}

func TestSelectEmptyAdSection(t *testing.T) {
	c, err := New([]Section{
		{Type: TypeVideos, Slug: "a", Content: []Item{video("v1")}},
		{Type: TypeAds, Slug: "ads"},
	})
	require.NoError(t, err)
	s := c.Sections()[0]
	sel := newSelector(t, DefaultLimits).Select(c, s, s.Content[0])
	require.Nil(t, sel.Ad)
	require.Empty(t, sel.Related)
}

func TestSelectIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	s := c.Sections()[0]
	selector := newSelector(t, DefaultLimits)
	first := selector.Select(c, s, s.Content[2])
	second := selector.Select(c, s, s.Content[2])
	require.True(t, cmp.Equal(first, second, cmp.AllowUnexported(Section{})), cmp.Diff(first, second, cmp.AllowUnexported(Section{})))
}

func TestSelectDoesNotAliasCatalog(t *testing.T) {
	c := testCatalog(t)
	s := c.Sections()[0]
	sel := newSelector(t, DefaultLimits).Select(c, s, s.Content[0])
	sel.Recommended[0].Name = "changed"
	require.Equal(t, "Video m1", c.Sections()[3].Content[0].Name)
}

func TestSelectRandomAd(t *testing.T) {
	c := testCatalog(t)
	s := c.Sections()[0]
	selector, err := NewSelector(DefaultLimits, AdRandom, rand.NewSource(1))
	require.NoError(t, err)

	seen := map[ItemID]bool{}
	for i := 0; i < 200; i++ {
		sel := selector.Select(c, s, s.Content[0])
		require.NotNil(t, sel.Ad)
		seen[sel.Ad.ID] = true
	}
	require.Len(t, seen, 3)

	// Same seed, same sequence
	a, err := NewSelector(DefaultLimits, AdRandom, rand.NewSource(42))
	require.NoError(t, err)
	b, err := NewSelector(DefaultLimits, AdRandom, rand.NewSource(42))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Select(c, s, s.Content[0]).Ad, b.Select(c, s, s.Content[0]).Ad)
	}
}

func TestNewSelectorErrors(t *testing.T) {
	_, err := NewSelector(DefaultLimits, "sometimes", nil)
	require.Error(t, err)
	_, err = NewSelector(DefaultLimits, AdRandom, nil)
	require.Error(t, err)

	p, err := ParseAdPolicy("random")
	require.NoError(t, err)
	require.Equal(t, AdRandom, p)
}
