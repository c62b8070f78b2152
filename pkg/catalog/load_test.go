package catalog

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const yamlCatalog = `
- type: videos
  sectionTitle: Trending
  slug: trending
  content:
    - id: 1
      name: Big Buck Bunny
      thumbnailUrl: https://example.com/bbb.jpg
      channelName: Blender
      views: 1234567
      uploadDate: 2024-01-15
      description: A bunny.
    - id: "2"
      name: Sintel
      uploadDate: 2024-02-01T12:00:00Z
- type: ads
  sectionTitle: Sponsored
  content:
    - id: ad-1
      title: Buy things
      adImageUrl: https://example.com/ad.png
      redirectUrl: https://example.com/shop
`

const jsonCatalog = `[
  {"type": "shorts", "sectionTitle": "Shorts", "slug": "shorts", "content": [
    {"id": 10, "title": "Short one", "views": 5, "uploadDate": "2024-03-01"},
    {"id": "11", "title": "Short two"}
  ]}
]`

func TestDecodeYAML(t *testing.T) {
	c, err := Decode(strings.NewReader(yamlCatalog), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	s, err := c.ResolveSection("trending")
	require.NoError(t, err)
	item, err := ResolveItem(s, "1")
	require.NoError(t, err)
	require.Equal(t, "Big Buck Bunny", item.Name)
	require.Equal(t, uint64(1234567), item.Views)
	require.Equal(t, 15, item.UploadDate.Day())

	item, err = ResolveItem(s, "2")
	require.NoError(t, err)
	require.Equal(t, 12, item.UploadDate.Hour())

	ads, err := c.ResolveSection("1")
	require.NoError(t, err)
	require.Equal(t, TypeAds, ads.Type)
	require.Equal(t, "https://example.com/shop", ads.Content[0].RedirectURL)
}

func TestDecodeJSON(t *testing.T) {
	c, err := Decode(strings.NewReader(jsonCatalog), FormatJSON)
	require.NoError(t, err)
	s, err := c.ResolveSection("shorts")
	require.NoError(t, err)
	_, err = ResolveItem(s, "10")
	require.NoError(t, err)
	_, err = ResolveItem(s, "11")
	require.NoError(t, err)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("{not: [valid"), FormatYAML)
	require.Error(t, err)
	_, err = Decode(strings.NewReader(`[{"type": "videos", "content": [{"id": 1, "uploadDate": "yesterday"}]}]`), FormatJSON)
	require.Error(t, err)
	_, err = Decode(strings.NewReader("[]"), "xml")
	require.Error(t, err)
	// Decoding works, validation doesn't
	_, err = Decode(strings.NewReader(`[{"type": "podcasts"}]`), FormatJSON)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type")
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/catalog.yml", []byte(yamlCatalog), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/catalog.json", []byte(jsonCatalog), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/catalog.txt", []byte(jsonCatalog), 0644))

	c, err := LoadFile(fs, "/data/catalog.yml")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c, err = LoadFile(fs, "/data/catalog.json")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	_, err = LoadFile(fs, "/data/catalog.txt")
	require.Error(t, err)
	_, err = LoadFile(fs, "/data/missing.json")
	require.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/b.YAML")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	f, err = FormatOf("b.json")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)
	_, err = FormatOf("b")
	require.Error(t, err)
}
