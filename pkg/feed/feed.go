// Package feed shapes the catalog into the payloads of the browsing surfaces:
// the home feed, section pages and video pages.
// The payloads are shared between the server and the feedclient package.
package feed

import (
	"net/url"
	"time"

	"github.com/doingodswork/vidshelf/pkg/catalog"
)

// Card is an item as it's shown in a list, together with its navigation path.
type Card struct {
	catalog.Item
	// Path is "/{sectionKey}/{itemId}" for videos and shorts and the click-through path for ads.
	Path string `json:"path"`
}

// Row is a section as it's shown on the home feed.
type Row struct {
	Type         catalog.SectionType `json:"type"`
	SectionTitle string              `json:"sectionTitle"`
	Slug         string              `json:"slug,omitempty"`
	// Path of the full section page.
	Path       string `json:"path"`
	TotalItems int    `json:"totalItems"`
	Items      []Card `json:"items"`
}

// HomePayload is the home feed.
type HomePayload struct {
	Sections    []Row     `json:"sections"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// SectionPayload is one page of a section.
type SectionPayload struct {
	Row
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// VideoPayload is the video page, with the item itself and the content shown next to it.
type VideoPayload struct {
	Section        Row    `json:"section"`
	Video          Card   `json:"video"`
	FormattedViews string `json:"formattedViews"`
	FormattedDate  string `json:"formattedDate"`
	Related        []Card `json:"related"`
	Recommended    []Card `json:"recommended"`
	Shorts         []Card `json:"shorts"`
	// Ad is nil when the catalog has no ads.
	Ad *Card `json:"ad,omitempty"`
}

// SectionPath returns the address of a section page.
func SectionPath(c *catalog.Catalog, s *catalog.Section) string {
	return "/section/" + url.PathEscape(c.Key(s))
}

// ItemPath returns the address of an item's page within a section.
func ItemPath(c *catalog.Catalog, s *catalog.Section, id catalog.ItemID) string {
	return "/" + url.PathEscape(c.Key(s)) + "/" + url.PathEscape(id.String())
}

// AdClickPath returns the click-through address of an ad.
func AdClickPath(id catalog.ItemID) string {
	return "/ads/" + url.PathEscape(id.String()) + "/click"
}

// cards turns items of the section s into cards.
// Items of other sections (s == nil) are linked via the section that owns them.
func cards(c *catalog.Catalog, s *catalog.Section, items []catalog.Item) []Card {
	res := make([]Card, 0, len(items))
	for _, item := range items {
		res = append(res, card(c, s, item))
	}
	return res
}

func card(c *catalog.Catalog, s *catalog.Section, item catalog.Item) Card {
	if s == nil {
		if owner, ok := c.Owner(item.ID); ok {
			s = owner
		}
	}
	var path string
	if s != nil && s.Type == catalog.TypeAds {
		path = AdClickPath(item.ID)
	} else if s != nil {
		path = ItemPath(c, s, item.ID)
	}
	return Card{Item: item, Path: path}
}

func row(c *catalog.Catalog, s *catalog.Section, items []catalog.Item) Row {
	return Row{
		Type:         s.Type,
		SectionTitle: s.SectionTitle,
		Slug:         s.Slug,
		Path:         SectionPath(c, s),
		TotalItems:   len(s.Content),
		Items:        cards(c, s, items),
	}
}
