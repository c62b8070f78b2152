package catalog

import (
	"errors"
	"strconv"
)

var (
	// ErrSectionNotFound is returned when no section matches a key.
	ErrSectionNotFound = errors.New("section not found")
	// ErrItemNotFound is returned when a section doesn't contain an item.
	ErrItemNotFound = errors.New("video not found")
)

// ResolveSection finds a section by slug or by zero-based position.
// A slug match wins over a positional match, so a section with the slug "2"
// shadows the third section for the key "2".
func (c *Catalog) ResolveSection(key string) (*Section, error) {
	if key == "" {
		return nil, ErrSectionNotFound
	}
	if i, ok := c.bySlug[key]; ok {
		return c.sections[i], nil
	}
	index, err := strconv.Atoi(key)
	// Only canonical indexes, so that "01" or "+1" don't address the same section as "1"
	if err != nil || strconv.Itoa(index) != key {
		return nil, ErrSectionNotFound
	}
	return c.SectionAt(index)
}

// SectionAt returns the section at the given zero-based position.
func (c *Catalog) SectionAt(index int) (*Section, error) {
	if index < 0 || index >= len(c.sections) {
		return nil, ErrSectionNotFound
	}
	return c.sections[index], nil
}

// ResolveItem finds an item in a section by its normalized ID.
// Sections that weren't built by New are scanned linearly, first match wins.
func ResolveItem(s *Section, id ItemID) (Item, error) {
	if s == nil {
		return Item{}, ErrItemNotFound
	}
	id = NewItemID(string(id))
	if s.byID != nil {
		if j, ok := s.byID[id]; ok {
			return s.Content[j], nil
		}
		return Item{}, ErrItemNotFound
	}
	for _, item := range s.Content {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, ErrItemNotFound
}
