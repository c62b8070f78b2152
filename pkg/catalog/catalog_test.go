package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func video(id string) Item {
	return Item{ID: ItemID(id), Name: "Video " + id}
}

func ad(id string) Item {
	return Item{ID: ItemID(id), Title: "Ad " + id, RedirectURL: "https://example.com/" + id}
}

func testSections() []Section {
	return []Section{
		{Type: TypeVideos, SectionTitle: "Trending", Slug: "trending", Content: []Item{video("1"), video("2"), video("3"), video("4"), video("5"), video("6")}},
		{Type: TypeShorts, SectionTitle: "Shorts", Slug: "shorts", Content: []Item{video("s1"), video("s2")}},
		{Type: TypeAds, SectionTitle: "Sponsored", Slug: "sponsored", Content: []Item{ad("a1"), ad("a2"), ad("a3")}},
		{Type: TypeVideos, SectionTitle: "Music", Slug: "music", Content: []Item{video("m1"), video("m2")}},
		{Type: TypeVideos, SectionTitle: "Untitled", Content: []Item{video("u1")}},
	}
}

func testCatalog(t *testing.T) *Catalog {
	c, err := New(testSections())
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := testCatalog(t)
	require.Equal(t, 5, c.Len())
	require.Equal(t, "trending", c.Sections()[0].Slug)
	require.Equal(t, "music", c.Key(c.Sections()[3]))
	require.Equal(t, "4", c.Key(c.Sections()[4]))

	owner, ok := c.Owner("m2")
	require.True(t, ok)
	require.Equal(t, "music", owner.Slug)
	_, ok = c.Owner("nope")
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, 3, stats.Sections[TypeVideos])
	require.Equal(t, 9, stats.Items[TypeVideos])
	require.Equal(t, 3, stats.Items[TypeAds])
}

func TestNewDoesNotShareContent(t *testing.T) {
	sections := testSections()
	c, err := New(sections)
	require.NoError(t, err)
	sections[0].Content[0].Name = "changed"
	require.Equal(t, "Video 1", c.Sections()[0].Content[0].Name)
}

func TestNewValidation(t *testing.T) {
	sections := []Section{
		{Type: "movies", Slug: "a"},
		{Type: TypeVideos, Slug: "a", Content: []Item{video("1"), video("1"), {Name: "no id"}}},
		{Type: TypeAds, Slug: "ads", Content: []Item{{ID: "x", Title: "no redirect"}}},
	}
	c, err := New(sections)
	require.Nil(t, c)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 5)
	require.Contains(t, err.Error(), `unknown type "movies"`)
	require.Contains(t, err.Error(), `slug "a" already used`)
	require.Contains(t, err.Error(), `duplicate item id "1"`)
	require.Contains(t, err.Error(), "item 2 has no id")
	require.Contains(t, err.Error(), "has no redirectUrl")
}

func TestFindAd(t *testing.T) {
	c := testCatalog(t)
	item, ok := c.FindAd("a2")
	require.True(t, ok)
	require.Equal(t, "https://example.com/a2", item.RedirectURL)
	// Videos aren't ads
	_, ok = c.FindAd("1")
	require.False(t, ok)
}

func TestExport(t *testing.T) {
	c := testCatalog(t)
	exported := c.Export()
	require.Len(t, exported, 5)
	again, err := New(exported)
	require.NoError(t, err)
	require.Equal(t, c.Export(), again.Export())
}

func TestItemIDJSON(t *testing.T) {
	var items []Item
	err := json.Unmarshal([]byte(`[{"id": 7}, {"id": "7"}, {"id": " abc "}]`), &items)
	require.NoError(t, err)
	require.Equal(t, ItemID("7"), items[0].ID)
	require.Equal(t, items[0].ID, items[1].ID)
	require.Equal(t, ItemID("abc"), items[2].ID)

	items = nil
	err = json.Unmarshal([]byte(`[{"id": 1e3}, {"id": 7.0}, {"id": -0}, {"id": 1.5}, {"id": "1e3"}, {"id": 12345678901234567890}]`), &items)
	require.NoError(t, err)
	require.Equal(t, []ItemID{"1000", "7", "0", "1.5", "1e3", "12345678901234567890"}, ids(items))

	err = json.Unmarshal([]byte(`[{"id": {"nested": true}}]`), &items)
	require.Error(t, err)
	err = json.Unmarshal([]byte(`[{"id": true}]`), &items)
	require.Error(t, err)
}

func TestItemIDYAML(t *testing.T) {
	var items []Item
	err := yaml.Unmarshal([]byte("- id: 7\n- id: \"7\"\n"), &items)
	require.NoError(t, err)
	require.Equal(t, ItemID("7"), items[0].ID)
	require.Equal(t, items[0].ID, items[1].ID)

	items = nil
	err = yaml.Unmarshal([]byte("- id: 7.0\n- id: 1e3\n- id: \"7.0\"\n- id: 0x1F\n"), &items)
	require.NoError(t, err)
	require.Equal(t, []ItemID{"7", "1000", "7.0", "0x1F"}, ids(items))

	err = yaml.Unmarshal([]byte("- id: [1, 2]\n"), &items)
	require.Error(t, err)
}

func TestTimestamp(t *testing.T) {
	for _, s := range []string{"2024-01-15", "2024-01-15T10:00:00", "2024-01-15T10:00:00Z"} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		require.Equal(t, 2024, ts.Year())
	}
	_, err := ParseTimestamp("15.01.2024")
	require.Error(t, err)

	ts, err := ParseTimestamp("")
	require.NoError(t, err)
	require.True(t, ts.IsZero())

	b, err := json.Marshal(Item{ID: "1", UploadDate: Timestamp{}})
	require.NoError(t, err)
	require.Contains(t, string(b), `"uploadDate":""`)
}

func TestDisplayTitle(t *testing.T) {
	require.Equal(t, "n", Item{Name: "n", Title: "t"}.DisplayTitle())
	require.Equal(t, "t", Item{Title: "t"}.DisplayTitle())
}
