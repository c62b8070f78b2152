package adclick

import (
	"context"
	"sync"

	"github.com/doingodswork/vidshelf/pkg/catalog"
)

// Counter is the interface for counting ad click-throughs.
// A package user must pass an implementation of this interface.
// Usually you create a simple wrapper around an existing cache or key-value store.
// An example implementation is the InMemoryCounter in this package.
type Counter interface {
	// Incr increments the click count of an ad and returns the new count.
	Incr(ctx context.Context, adID catalog.ItemID) (int64, error)
	// Get returns the click count of an ad.
	// The boolean return value signals if the ad was ever clicked.
	Get(ctx context.Context, adID catalog.ItemID) (int64, bool, error)
}

// Key returns the key under which the count for an ad is stored.
func Key(adID catalog.ItemID) string {
	return "adclick-" + adID.String()
}

var _ Counter = (*InMemoryCounter)(nil)

// InMemoryCounter is an example implementation of the Counter interface.
// It doesn't persist its data, so it's not suited for production use.
type InMemoryCounter struct {
	counts map[string]int64
	lock   *sync.RWMutex
}

// NewInMemoryCounter creates a new InMemoryCounter.
func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{
		counts: map[string]int64{},
		lock:   &sync.RWMutex{},
	}
}

// Incr implements the Counter interface.
func (c *InMemoryCounter) Incr(_ context.Context, adID catalog.ItemID) (int64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.counts[Key(adID)]++
	return c.counts[Key(adID)], nil
}

// Get implements the Counter interface.
func (c *InMemoryCounter) Get(_ context.Context, adID catalog.ItemID) (int64, bool, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	count, found := c.counts[Key(adID)]
	return count, found, nil
}

// Counts returns the click counts of the given ads. Ads that were never clicked have a count of 0.
// The first error aborts the lookup.
func Counts(ctx context.Context, counter Counter, adIDs []catalog.ItemID) (map[catalog.ItemID]int64, error) {
	res := make(map[catalog.ItemID]int64, len(adIDs))
	for _, id := range adIDs {
		count, _, err := counter.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		res[id] = count
	}
	return res, nil
}
