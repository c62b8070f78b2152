package main

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/adclick"
	"github.com/doingodswork/vidshelf/pkg/catalog"
)

const clickCacheName = "adclicks"

var _ adclick.Counter = (*goCacheCounter)(nil)

// goCacheCounter counts ad clicks in a github.com/patrickmn/go-cache.
type goCacheCounter struct {
	cache *gocache.Cache
}

// Incr implements the adclick.Counter interface.
func (c *goCacheCounter) Incr(_ context.Context, adID catalog.ItemID) (int64, error) {
	key := adclick.Key(adID)
	// Add only succeeds for the first click
	if err := c.cache.Add(key, int64(1), gocache.NoExpiration); err == nil {
		return 1, nil
	}
	return c.cache.IncrementInt64(key, 1)
}

// Get implements the adclick.Counter interface.
func (c *goCacheCounter) Get(_ context.Context, adID catalog.ItemID) (int64, bool, error) {
	countIface, found := c.cache.Get(adclick.Key(adID))
	if !found {
		return 0, found, nil
	}
	count, ok := countIface.(int64)
	if !ok {
		return 0, found, fmt.Errorf("Couldn't cast cached value to int64: type was: %T", countIface)
	}
	return count, found, nil
}

var _ adclick.Counter = (*redisCounter)(nil)

// redisCounter counts ad clicks in Redis, so that multiple instances share the counts.
type redisCounter struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func newRedisCounter(addr, creds string, logger *zap.Logger) *redisCounter {
	opts := &redis.Options{
		Addr: addr,
	}
	if creds != "" {
		if colonIndex := strings.Index(creds, ":"); colonIndex != -1 {
			opts.Username = creds[:colonIndex]
			opts.Password = creds[colonIndex+1:]
		} else {
			opts.Password = creds
		}
	}
	return &redisCounter{
		rdb:    redis.NewClient(opts),
		logger: logger,
	}
}

// Incr implements the adclick.Counter interface.
func (c *redisCounter) Incr(ctx context.Context, adID catalog.ItemID) (int64, error) {
	count, err := c.rdb.Incr(ctx, adclick.Key(adID)).Result()
	if err != nil {
		return 0, fmt.Errorf("Couldn't increment click count in Redis: %w", err)
	}
	return count, nil
}

// Get implements the adclick.Counter interface.
func (c *redisCounter) Get(ctx context.Context, adID catalog.ItemID) (int64, bool, error) {
	count, err := c.rdb.Get(ctx, adclick.Key(adID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("Couldn't get click count from Redis: %w", err)
	}
	return count, true, nil
}

func (c *redisCounter) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *redisCounter) Close() error {
	return c.rdb.Close()
}

func saveGoCache(items map[string]gocache.Item, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("Couldn't create go-cache file: %v", err)
	}
	defer file.Close()
	encoder := gob.NewEncoder(file)
	if err = encoder.Encode(items); err != nil {
		return fmt.Errorf("Couldn't encode items for go-cache file: %v", err)
	}
	return nil
}

func loadGoCache(filePath string) (map[string]gocache.Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open go-cache file: %w", err)
	}
	defer file.Close()
	decoder := gob.NewDecoder(file)
	result := map[string]gocache.Item{}
	if err = decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("Couldn't decode items from go-cache file: %v", err)
	}
	return result, nil
}

// loadOrCreateGoCache loads a persisted go-cache, or creates an empty one if there's no file yet.
func loadOrCreateGoCache(cachePath, name string, logger *zap.Logger) *gocache.Cache {
	filePath := filepath.Join(cachePath, name+".gob")
	items, err := loadGoCache(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("No persisted cache found, creating a new one", zap.String("cache", name))
		} else {
			logger.Error("Couldn't load cache from file, creating a new one", zap.Error(err), zap.String("cache", name))
		}
		return gocache.New(0, 0)
	}
	logger.Info("Loaded cache from file", zap.String("cache", name), zap.Int("itemCount", len(items)))
	return gocache.NewFrom(0, 0, items)
}

func persistCaches(ctx context.Context, cacheFilePath string, goCaches map[string]*gocache.Cache, logger *zap.Logger) {
	if ctx.Err() != nil {
		logger.Warn("Regular cache persistence triggered, but server is shutting down")
		return
	}

	logger.Info("Persisting caches...", zap.String("cacheFilePath", cacheFilePath))
	start := time.Now()

	// If the dir doesn't exist yet, we'll create it
	if err := os.MkdirAll(cacheFilePath, 0755); err != nil {
		logger.Error("Couldn't create cache directory", zap.Error(err), zap.String("dir", cacheFilePath))
		return
	}

	for name, goCache := range goCaches {
		if err := saveGoCache(goCache.Items(), filepath.Join(cacheFilePath, name+".gob")); err != nil {
			logger.Error("Couldn't save cache to file", zap.Error(err), zap.String("cache", name))
		}
	}

	duration := time.Since(start).Milliseconds()
	durationString := strconv.FormatInt(duration, 10) + "ms"
	logger.Info("Persisted caches", zap.String("duration", durationString))
}

func logCacheStats(goCaches map[string]*gocache.Cache, logger *zap.Logger) {
	for name, goCache := range goCaches {
		logger.Info("Cache stats", zap.String("cache", name), zap.Int("itemCount", goCache.ItemCount()))
	}
}
