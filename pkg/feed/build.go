package feed

import (
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doingodswork/vidshelf/pkg/catalog"
)

// ErrInvalidPage is returned for page numbers < 1 or page sizes < 1.
var ErrInvalidPage = errors.New("page and pageSize must be positive")

// Previews caps the number of items per home feed row, per section type.
// A negative value shows all items.
type Previews map[catalog.SectionType]int

// DefaultPreviews are the home feed row lengths.
var DefaultPreviews = Previews{
	catalog.TypeVideos: 4,
	catalog.TypeShorts: 10,
	catalog.TypeAds:    -1,
}

func (p Previews) limit(t catalog.SectionType) int {
	if limit, ok := p[t]; ok {
		return limit
	}
	return -1
}

// BuildHome builds the home feed, one row per section in catalog order.
func BuildHome(c *catalog.Catalog, previews Previews) HomePayload {
	rows := make([]Row, 0, c.Len())
	for _, s := range c.Sections() {
		items := s.Content
		if limit := previews.limit(s.Type); limit >= 0 && len(items) > limit {
			items = items[:limit]
		}
		rows = append(rows, row(c, s, items))
	}
	return HomePayload{
		Sections:    rows,
		GeneratedAt: time.Now().UTC(),
	}
}

// BuildSection builds one page of a section. Pages are 1-based.
// A page beyond the last one has no items, which isn't an error.
func BuildSection(c *catalog.Catalog, s *catalog.Section, page, pageSize int) (SectionPayload, error) {
	if page < 1 || pageSize < 1 {
		return SectionPayload{}, ErrInvalidPage
	}
	total := len(s.Content)
	// Compare page numbers instead of offsets, because (page-1)*pageSize can overflow
	start, end := total, total
	lastPage := total / pageSize
	if total%pageSize != 0 {
		lastPage++
	}
	if page <= lastPage {
		start = (page - 1) * pageSize
		end = total
		if total-start > pageSize {
			end = start + pageSize
		}
	}
	return SectionPayload{
		Row:      row(c, s, s.Content[start:end]),
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}, nil
}

// BuildVideo builds the video page of item in section s from a selection.
func BuildVideo(c *catalog.Catalog, s *catalog.Section, item catalog.Item, sel catalog.Selection) VideoPayload {
	payload := VideoPayload{
		Section:        row(c, s, nil),
		Video:          card(c, s, item),
		FormattedViews: FormatViews(item.Views),
		FormattedDate:  FormatDate(item.UploadDate),
		Related:        cards(c, s, sel.Related),
		Recommended:    cards(c, sel.RecommendedFrom, sel.Recommended),
		Shorts:         cards(c, sel.ShortsFrom, sel.Shorts),
	}
	if sel.Ad != nil {
		ad := card(c, nil, *sel.Ad)
		ad.Path = AdClickPath(sel.Ad.ID)
		payload.Ad = &ad
	}
	return payload
}

// FormatViews formats a view count with thousands separators, like "1,234,567".
func FormatViews(views uint64) string {
	if views > math.MaxInt64 {
		return humanize.BigComma(new(big.Int).SetUint64(views))
	}
	return humanize.Comma(int64(views))
}

// FormatDate formats an upload date like "Jan 2, 2006". Zero dates are formatted as "".
func FormatDate(t catalog.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
