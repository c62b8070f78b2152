package catalog

import (
	"fmt"
	"math/rand"
	"sync"
)

// AdPolicy decides which item of the ad section is shown next to a video.
type AdPolicy string

const (
	// AdFirst always picks the first ad. It's deterministic.
	AdFirst AdPolicy = "first"
	// AdRandom picks a uniformly random ad.
	AdRandom AdPolicy = "random"
)

// ParseAdPolicy parses "first" or "random".
func ParseAdPolicy(s string) (AdPolicy, error) {
	switch p := AdPolicy(s); p {
	case AdFirst, AdRandom:
		return p, nil
	}
	return "", fmt.Errorf("unknown ad policy %q, must be one of %q or %q", s, AdFirst, AdRandom)
}

// Limits caps the lengths of the selected lists.
// A limit of 0 yields an empty list, a negative limit disables truncation.
type Limits struct {
	Related     int
	Recommended int
	Shorts      int
}

// DefaultLimits are the limits of the video page.
var DefaultLimits = Limits{
	Related:     4,
	Recommended: 4,
	Shorts:      10,
}

// Selection is the secondary content shown next to an item.
// Each field is independent: a missing source only leaves its own field empty.
type Selection struct {
	Related     []Item
	Recommended []Item
	// RecommendedFrom is the section the recommended items were taken from.
	RecommendedFrom *Section
	Shorts          []Item
	ShortsFrom      *Section
	// Ad is nil if the catalog has no ad section or the ad section is empty.
	Ad *Item
}

// Selector derives related, recommended, shorts and ad content.
// It's safe for concurrent use.
type Selector struct {
	limits Limits
	policy AdPolicy
	// rnd is only used with AdRandom. rand.Rand isn't safe for concurrent use.
	rnd  *rand.Rand
	lock sync.Mutex
}

// NewSelector creates a Selector.
// src is only used for the AdRandom policy and may be nil otherwise.
func NewSelector(limits Limits, policy AdPolicy, src rand.Source) (*Selector, error) {
	if _, err := ParseAdPolicy(string(policy)); err != nil {
		return nil, err
	}
	s := &Selector{
		limits: limits,
		policy: policy,
	}
	if policy == AdRandom {
		if src == nil {
			return nil, fmt.Errorf("the %q ad policy requires a random source", AdRandom)
		}
		s.rnd = rand.New(src)
	}
	return s, nil
}

// Limits returns the configured limits.
func (s *Selector) Limits() Limits {
	return s.limits
}

// Select derives the secondary content for the current item of the current section.
func (s *Selector) Select(c *Catalog, current *Section, item Item) Selection {
	var res Selection

	if current != nil {
		related := make([]Item, 0, len(current.Content))
		for _, candidate := range current.Content {
			if candidate.ID != item.ID {
				related = append(related, candidate)
			}
		}
		res.Related = truncate(related, s.limits.Related)
	}

	if other, ok := c.FirstOfType(TypeVideos, current); ok {
		res.Recommended = truncate(other.Content, s.limits.Recommended)
		res.RecommendedFrom = other
	}

	if shorts, ok := c.FirstOfType(TypeShorts, nil); ok {
		res.Shorts = truncate(shorts.Content, s.limits.Shorts)
		res.ShortsFrom = shorts
	}

	if ads, ok := c.FirstOfType(TypeAds, nil); ok && len(ads.Content) > 0 {
		ad := s.pickAd(ads.Content)
		res.Ad = &ad
	}

	return res
}

func (s *Selector) pickAd(ads []Item) Item {
	if s.policy != AdRandom {
		return ads[0]
	}
	s.lock.Lock()
	i := s.rnd.Intn(len(ads))
	s.lock.Unlock()
	return ads[i]
}

// truncate returns a copy of at most limit items.
func truncate(items []Item, limit int) []Item {
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]Item{}, items...)
}
