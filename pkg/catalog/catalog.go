package catalog

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"
)

// Catalog is the ordered, read-only set of sections.
// It must not be modified after New returned it, which makes it safe for concurrent use.
type Catalog struct {
	sections []*Section
	bySlug   map[string]int
	// Index of the first section that contains an item ID.
	owners map[ItemID]int
}

// New validates the sections and builds the lookup indexes.
// All validation problems are returned together, combined via multierr.
func New(sections []Section) (*Catalog, error) {
	c := &Catalog{
		sections: make([]*Section, 0, len(sections)),
		bySlug:   make(map[string]int, len(sections)),
		owners:   map[ItemID]int{},
	}

	var errs error
	for i := range sections {
		s := sections[i]
		// Don't share the content slice with the caller
		s.Content = append([]Item(nil), s.Content...)
		s.byID = make(map[ItemID]int, len(s.Content))
		where := sectionName(i, s)

		if !s.Type.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("%v: unknown type %q", where, s.Type))
		}
		if s.Slug != "" {
			if prev, ok := c.bySlug[s.Slug]; ok {
				errs = multierr.Append(errs, fmt.Errorf("%v: slug %q already used by section %v", where, s.Slug, prev))
			} else {
				c.bySlug[s.Slug] = i
			}
		}
		for j, item := range s.Content {
			if item.ID == "" {
				errs = multierr.Append(errs, fmt.Errorf("%v: item %v has no id", where, j))
				continue
			}
			if _, ok := s.byID[item.ID]; ok {
				errs = multierr.Append(errs, fmt.Errorf("%v: duplicate item id %q", where, item.ID))
				continue
			}
			if s.Type == TypeAds && item.RedirectURL == "" {
				errs = multierr.Append(errs, fmt.Errorf("%v: ad %q has no redirectUrl", where, item.ID))
			}
			s.byID[item.ID] = j
			if _, ok := c.owners[item.ID]; !ok {
				c.owners[item.ID] = i
			}
		}
		c.sections = append(c.sections, &s)
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func sectionName(index int, s Section) string {
	if s.Slug != "" {
		return fmt.Sprintf("section %v (%q)", index, s.Slug)
	}
	return "section " + strconv.Itoa(index)
}

// Sections returns the sections in catalog order.
// The returned sections must be treated as read-only.
func (c *Catalog) Sections() []*Section {
	return c.sections
}

// Len returns the number of sections.
func (c *Catalog) Len() int {
	return len(c.sections)
}

// IndexOf returns the position of s in the catalog, or -1 if s doesn't belong to it.
func (c *Catalog) IndexOf(s *Section) int {
	if s.Slug != "" {
		if i, ok := c.bySlug[s.Slug]; ok && c.sections[i] == s {
			return i
		}
	}
	for i, candidate := range c.sections {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Key returns the address key of s: its slug, or its position if it has none.
func (c *Catalog) Key(s *Section) string {
	if s.Slug != "" {
		return s.Slug
	}
	return strconv.Itoa(c.IndexOf(s))
}

// Owner returns the first section that contains an item with the given ID.
func (c *Catalog) Owner(id ItemID) (*Section, bool) {
	i, ok := c.owners[id]
	if !ok {
		return nil, false
	}
	return c.sections[i], true
}

// FirstOfType returns the first section of type t, excluding the given section.
// Pass nil to exclude nothing.
func (c *Catalog) FirstOfType(t SectionType, exclude *Section) (*Section, bool) {
	for _, s := range c.sections {
		if s.Type == t && s != exclude {
			return s, true
		}
	}
	return nil, false
}

// FindAd looks up an ad item across all ad sections.
func (c *Catalog) FindAd(id ItemID) (Item, bool) {
	for _, s := range c.sections {
		if s.Type != TypeAds {
			continue
		}
		if item, err := ResolveItem(s, id); err == nil {
			return item, true
		}
	}
	return Item{}, false
}

// Stats counts sections and items per section type.
type Stats struct {
	Sections map[SectionType]int `json:"sections"`
	Items    map[SectionType]int `json:"items"`
}

// Stats returns section and item counts per type.
func (c *Catalog) Stats() Stats {
	stats := Stats{
		Sections: map[SectionType]int{},
		Items:    map[SectionType]int{},
	}
	for _, s := range c.sections {
		stats.Sections[s.Type]++
		stats.Items[s.Type] += len(s.Content)
	}
	return stats
}

// Export returns a copy of the sections, for example for persisting a snapshot.
func (c *Catalog) Export() []Section {
	res := make([]Section, 0, len(c.sections))
	for _, s := range c.sections {
		exported := *s
		exported.Content = append([]Item(nil), s.Content...)
		exported.byID = nil
		res = append(res, exported)
	}
	return res
}
