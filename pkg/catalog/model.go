package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SectionType determines which kind of items a section's content holds.
type SectionType string

const (
	TypeVideos SectionType = "videos"
	TypeShorts SectionType = "shorts"
	TypeAds    SectionType = "ads"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case TypeVideos, TypeShorts, TypeAds:
		return true
	}
	return false
}

// ItemID is the normalized identifier of an item.
// Numeric and string representations of the same id decode to the same ItemID,
// so `7` and `"7"` in a catalog file are equal.
type ItemID string

// NewItemID normalizes a raw id string.
func NewItemID(s string) ItemID {
	return ItemID(strings.TrimSpace(s))
}

func (id ItemID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a number or a string: %w", err)
		}
		*id = NewItemID(canonicalNumber(n.String()))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id must be a number or a string: %w", err)
	}
	*id = NewItemID(s)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *ItemID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", value.Line)
	}
	switch value.ShortTag() {
	case "!!int", "!!float":
		*id = NewItemID(canonicalNumber(value.Value))
	default:
		*id = NewItemID(value.Value)
	}
	return nil
}

// canonicalNumber formats integral numbers like "7.0" or "1e3" as plain integers.
// Other numbers are returned unchanged.
func canonicalNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	// Beyond 2^53 floats can't represent every integer
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// Timestamp is an upload date. Catalog files may contain RFC 3339 timestamps or plain dates.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTimestamp parses s with any of the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported date format: %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("uploadDate must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimestamp(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

// Item is a video, short or ad.
// Videos and shorts use the media fields, ads use AdImageURL and RedirectURL.
type Item struct {
	ID           ItemID    `json:"id" yaml:"id"`
	Name         string    `json:"name,omitempty" yaml:"name"`
	Title        string    `json:"title,omitempty" yaml:"title"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" yaml:"thumbnailUrl"`
	ChannelName  string    `json:"channelName,omitempty" yaml:"channelName"`
	Views        uint64    `json:"views,omitempty" yaml:"views"`
	UploadDate   Timestamp `json:"uploadDate" yaml:"uploadDate"`
	Description  string    `json:"description,omitempty" yaml:"description"`
	AdImageURL   string    `json:"adImageUrl,omitempty" yaml:"adImageUrl"`
	RedirectURL  string    `json:"redirectUrl,omitempty" yaml:"redirectUrl"`
}

// DisplayTitle returns the name of videos and the title of shorts and ads.
func (i Item) DisplayTitle() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Title
}

// Section is a named, typed group of items, shown as one feed row or one page.
type Section struct {
	Type         SectionType `json:"type" yaml:"type"`
	SectionTitle string      `json:"sectionTitle" yaml:"sectionTitle"`
	Slug         string      `json:"slug,omitempty" yaml:"slug"`
	Content      []Item      `json:"content" yaml:"content"`

	// Filled by New, nil for sections that weren't built through a Catalog.
	byID map[ItemID]int
}
