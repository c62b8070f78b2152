package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/catalog"
	"github.com/doingodswork/vidshelf/pkg/feed"
)

type config struct {
	BindAddr          string `json:"bindAddr"`
	Port              int    `json:"port"`
	CatalogPath       string `json:"catalogPath"`
	StoragePath       string `json:"storagePath"`
	CachePath         string `json:"cachePath"`
	RedisAddr         string `json:"redisAddr"`
	RedisCreds        string `json:"redisCreds"`
	RelatedLimit      int    `json:"relatedLimit"`
	RecommendedLimit  int    `json:"recommendedLimit"`
	ShortsLimit       int    `json:"shortsLimit"`
	HomeVideosPreview int    `json:"homeVideosPreview"`
	HomeShortsPreview int    `json:"homeShortsPreview"`
	PageSize          int    `json:"pageSize"`
	AdPolicy          string `json:"adPolicy"`
	LogLevel          string `json:"logLevel"`
	LogEncoding       string `json:"logEncoding"`
	EnvPrefix         string `json:"envPrefix"`
}

func parseConfig(logger *zap.Logger) config {
	result := config{}

	// Flags
	var (
		bindAddr          = flag.String("bindAddr", "localhost", `Local interface address to bind to. "localhost" only allows access from the local host. "0.0.0.0" binds to all network interfaces.`)
		port              = flag.Int("port", 8080, "Port to listen on")
		catalogPath       = flag.String("catalogPath", "", `Path to the catalog file. Must end with ".yaml", ".yml" or ".json". An empty value will lead to the demo catalog that's compiled into the binary.`)
		storagePath       = flag.String("storagePath", "", `Path for storing the data of the persistent DB which stores the last valid catalog snapshot. An empty value will lead to 'os.UserCacheDir()+"/vidshelf/badger"'.`)
		cachePath         = flag.String("cachePath", "", `Path for loading persisted caches on startup and persisting the current cache in regular intervals. An empty value will lead to 'os.UserCacheDir()+"/vidshelf/cache"'.`)
		redisAddr         = flag.String("redisAddr", "", `Redis host and port, for example "localhost:6379". It's used for the ad click counters. Keep empty to use in-memory go-cache.`)
		redisCreds        = flag.String("redisCreds", "", `Credentials for Redis. Password for Redis version 5 and older, username and password for Redis version 6 and newer. Use the colon character (":") for separating username and password. This implies you can't use a colon in the password when using Redis version 5 or older.`)
		relatedLimit      = flag.Int("relatedLimit", catalog.DefaultLimits.Related, "Max number of related videos (same section) on a video page. Negative values disable the limit.")
		recommendedLimit  = flag.Int("recommendedLimit", catalog.DefaultLimits.Recommended, "Max number of recommended videos (other section) on a video page. Negative values disable the limit.")
		shortsLimit       = flag.Int("shortsLimit", catalog.DefaultLimits.Shorts, "Max number of shorts on a video page. Negative values disable the limit.")
		homeVideosPreview = flag.Int("homeVideosPreview", 4, "Number of videos per video section on the home feed. Negative values show all videos.")
		homeShortsPreview = flag.Int("homeShortsPreview", 10, "Number of shorts per shorts section on the home feed. Negative values show all shorts.")
		pageSize          = flag.Int("pageSize", 24, "Default number of items per section page, used when the request doesn't contain a page size")
		adPolicy          = flag.String("adPolicy", string(catalog.AdFirst), `Which ad to show on a video page. Can be "first" or "random".`)
		logLevel          = flag.String("logLevel", "debug", `Log level to show only logs with the given and more severe levels. Can be "debug", "info", "warn", "error".`)
		logEncoding       = flag.String("logEncoding", "console", `Log encoding. Can be "console" or "json", where "json" makes more sense when using centralized logging solutions like ELK, Graylog or Loki.`)
		envPrefix         = flag.String("envPrefix", "", "Prefix for environment variables")
	)

	flag.Parse()

	if *envPrefix != "" && !strings.HasSuffix(*envPrefix, "_") {
		*envPrefix += "_"
	}
	result.EnvPrefix = *envPrefix

	// Only overwrite the values by their env var counterparts that have not been set (and that *are* set via env var).
	if !isArgSet("bindAddr") {
		if val, ok := os.LookupEnv(*envPrefix + "BIND_ADDR"); ok {
			*bindAddr = val
		}
	}
	result.BindAddr = *bindAddr

	result.Port = intFromEnv(logger, "port", *envPrefix+"PORT", *port)

	if !isArgSet("catalogPath") {
		if val, ok := os.LookupEnv(*envPrefix + "CATALOG_PATH"); ok {
			*catalogPath = val
		}
	}
	result.CatalogPath = *catalogPath

	if !isArgSet("storagePath") {
		if val, ok := os.LookupEnv(*envPrefix + "STORAGE_PATH"); ok {
			*storagePath = val
		}
	}
	result.StoragePath = *storagePath

	if !isArgSet("cachePath") {
		if val, ok := os.LookupEnv(*envPrefix + "CACHE_PATH"); ok {
			*cachePath = val
		}
	}
	result.CachePath = *cachePath

	if !isArgSet("redisAddr") {
		if val, ok := os.LookupEnv(*envPrefix + "REDIS_ADDR"); ok {
			*redisAddr = val
		}
	}
	result.RedisAddr = *redisAddr

	if !isArgSet("redisCreds") {
		if val, ok := os.LookupEnv(*envPrefix + "REDIS_CREDS"); ok {
			*redisCreds = val
		}
	}
	result.RedisCreds = *redisCreds

	result.RelatedLimit = intFromEnv(logger, "relatedLimit", *envPrefix+"RELATED_LIMIT", *relatedLimit)
	result.RecommendedLimit = intFromEnv(logger, "recommendedLimit", *envPrefix+"RECOMMENDED_LIMIT", *recommendedLimit)
	result.ShortsLimit = intFromEnv(logger, "shortsLimit", *envPrefix+"SHORTS_LIMIT", *shortsLimit)
	result.HomeVideosPreview = intFromEnv(logger, "homeVideosPreview", *envPrefix+"HOME_VIDEOS_PREVIEW", *homeVideosPreview)
	result.HomeShortsPreview = intFromEnv(logger, "homeShortsPreview", *envPrefix+"HOME_SHORTS_PREVIEW", *homeShortsPreview)
	result.PageSize = intFromEnv(logger, "pageSize", *envPrefix+"PAGE_SIZE", *pageSize)

	if !isArgSet("adPolicy") {
		if val, ok := os.LookupEnv(*envPrefix + "AD_POLICY"); ok {
			*adPolicy = val
		}
	}
	result.AdPolicy = *adPolicy

	if !isArgSet("logLevel") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_LEVEL"); ok {
			*logLevel = val
		}
	}
	result.LogLevel = *logLevel

	if !isArgSet("logEncoding") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_ENCODING"); ok {
			*logEncoding = val
		}
	}
	result.LogEncoding = *logEncoding

	return result
}

// intFromEnv returns the env var value for an int flag that wasn't set on the command line.
func intFromEnv(logger *zap.Logger, arg, envVar string, flagVal int) int {
	if isArgSet(arg) {
		return flagVal
	}
	val, ok := os.LookupEnv(envVar)
	if !ok {
		return flagVal
	}
	res, err := strconv.Atoi(val)
	if err != nil {
		logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", envVar))
	}
	return res
}

func (c *config) validate(logger *zap.Logger) {
	if c.StoragePath == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			logger.Fatal("Couldn't determine user cache directory via `os.UserCacheDir()`", zap.Error(err))
		}
		// Add two levels, because even if we're in `os.UserCacheDir()`, on Windows that's for example `C:\Users\John\AppData\Local`
		c.StoragePath = filepath.Join(userCacheDir, "vidshelf/badger")
	} else {
		c.StoragePath = filepath.Clean(c.StoragePath)
	}
	// If the dir doesn't exist, BadgerDB creates it when writing its DB files.

	if c.CachePath == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			logger.Fatal("Couldn't determine user cache directory via `os.UserCacheDir()`", zap.Error(err))
		}
		c.CachePath = filepath.Join(userCacheDir, "vidshelf/cache")
	} else {
		c.CachePath = filepath.Clean(c.CachePath)
	}
	// If the dir doesn't exist, it's created when the files are written.

	if c.CatalogPath != "" {
		if _, err := catalog.FormatOf(c.CatalogPath); err != nil {
			logger.Fatal("Invalid catalogPath", zap.Error(err), zap.String("catalogPath", c.CatalogPath))
		}
	}

	if _, err := catalog.ParseAdPolicy(c.AdPolicy); err != nil {
		logger.Fatal("Invalid adPolicy", zap.Error(err))
	}

	if c.PageSize < 1 {
		logger.Fatal("pageSize must be positive", zap.Int("pageSize", c.PageSize))
	}

	if c.LogEncoding != "console" && c.LogEncoding != "json" {
		logger.Fatal(`logEncoding must be one of "console" or "json"`, zap.String("logEncoding", c.LogEncoding))
	}
}

func (c config) limits() catalog.Limits {
	return catalog.Limits{
		Related:     c.RelatedLimit,
		Recommended: c.RecommendedLimit,
		Shorts:      c.ShortsLimit,
	}
}

func (c config) previews() feed.Previews {
	return feed.Previews{
		catalog.TypeVideos: c.HomeVideosPreview,
		catalog.TypeShorts: c.HomeShortsPreview,
		catalog.TypeAds:    -1,
	}
}

// isArgSet returns true if the argument you're looking for is actually set as command line argument.
// Pass without "-" prefix.
func isArgSet(arg string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == arg {
			found = true
		}
	})
	return found
}
