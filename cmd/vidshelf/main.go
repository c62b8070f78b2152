package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/markbates/pkger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doingodswork/vidshelf/pkg/adclick"
	"github.com/doingodswork/vidshelf/pkg/catalog"
	"github.com/doingodswork/vidshelf/pkg/feed"
)

const (
	version = "0.1.0"

	embeddedSource = "embedded"
)

func init() {
	// Make the demo catalog part of the binary when building with `pkger`
	pkger.Include("/assets/demo-catalog.yaml")
}

type appOptions struct {
	Catalog *catalog.Catalog
	// CatalogSource is the path of the loaded catalog file, "embedded" for the demo catalog
	// or prefixed with "snapshot:" when the catalog file couldn't be loaded.
	CatalogSource  string
	Selector       *catalog.Selector
	Counter        adclick.Counter
	CounterBackend string
	Previews       feed.Previews
	PageSize       int
}

func main() {
	// The actual logger depends on the config, so the config parsing has to use a preliminary one
	bootLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	config := parseConfig(bootLogger)

	logger, err := newLogger(config.LogLevel, config.LogEncoding)
	if err != nil {
		bootLogger.Fatal("Couldn't create logger", zap.Error(err))
	}
	defer logger.Sync()

	config.validate(logger)
	logConfig(config, logger)

	registerTypes()

	// Load catalog

	store, err := openSnapshotStore(config.StoragePath, logger)
	if err != nil {
		logger.Fatal("Couldn't open snapshot store", zap.Error(err), zap.String("storagePath", config.StoragePath))
	}
	defer store.Close()

	cat, source, err := loadCatalog(afero.NewOsFs(), config.CatalogPath, store, logger)
	if err != nil {
		logger.Fatal("Couldn't load any catalog", zap.Error(err))
	}

	// Related content

	policy, _ := catalog.ParseAdPolicy(config.AdPolicy) // Already validated
	var src rand.Source
	if policy == catalog.AdRandom {
		src = rand.NewSource(time.Now().UnixNano())
	}
	selector, err := catalog.NewSelector(config.limits(), policy, src)
	if err != nil {
		logger.Fatal("Couldn't create related content selector", zap.Error(err))
	}

	// Ad click counter

	goCaches := map[string]*gocache.Cache{}
	var counter adclick.Counter
	var counterBackend string
	if config.RedisAddr != "" {
		rc := newRedisCounter(config.RedisAddr, config.RedisCreds, logger)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("Couldn't connect to Redis", zap.Error(err), zap.String("redisAddr", config.RedisAddr))
		}
		defer rc.Close()
		counter = rc
		counterBackend = "redis"
	} else {
		clickCache := loadOrCreateGoCache(config.CachePath, clickCacheName, logger)
		goCaches[clickCacheName] = clickCache
		counter = &goCacheCounter{cache: clickCache}
		counterBackend = "go-cache"
	}

	app := newApp(appOptions{
		Catalog:        cat,
		CatalogSource:  source,
		Selector:       selector,
		Counter:        counter,
		CounterBackend: counterBackend,
		Previews:       config.previews(),
		PageSize:       config.PageSize,
	}, logger)

	mainCtx, cancel := context.WithCancel(context.Background())

	addr := config.BindAddr + ":" + strconv.Itoa(config.Port)
	logger.Info("Starting server", zap.String("address", addr), zap.String("version", version))
	go func() {
		if err := app.Listen(addr); err != nil {
			if mainCtx.Err() == nil {
				logger.Fatal("Couldn't start server", zap.Error(err))
			} else {
				logger.Error("Error in app.Listen() during server shutdown", zap.Error(err))
			}
		}
	}()

	if len(goCaches) > 0 {
		// Save cache to file every hour
		go func() {
			for {
				time.Sleep(time.Hour)
				persistCaches(mainCtx, config.CachePath, goCaches, logger)
			}
		}()

		// Print cache stats every hour
		go func() {
			// Don't run at the same time as the persistence
			time.Sleep(time.Minute)
			for {
				logCacheStats(goCaches, logger)
				time.Sleep(time.Hour)
			}
		}()
	}

	// Graceful shutdown

	c := make(chan os.Signal, 1)
	// Accept SIGINT (Ctrl+C) and SIGTERM (`docker stop`)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	logger.Info("Received signal, shutting down...", zap.Stringer("signal", sig))
	cancel()
	// `docker stop` gives us 10 seconds.
	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- app.Shutdown()
	}()
	select {
	case err := <-shutdownErr:
		if err != nil {
			logger.Error("Error shutting down server", zap.Error(err))
		}
	case <-time.After(9 * time.Second):
		logger.Error("Server didn't shut down within 9 seconds")
	}
	if len(goCaches) > 0 {
		persistCaches(context.Background(), config.CachePath, goCaches, logger)
	}
	logger.Info("Server shut down")
}

func newApp(opts appOptions, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          createErrorHandler(logger),
		DisableStartupMessage: true,
		// Timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(createLoggingMiddleware(logger), recover.New(), cors.New())

	app.Get("/health", healthHandler)
	app.Get("/status", createStatusHandler(opts, logger))

	api := app.Group("/api/v1")
	api.Get("/homePageContents", createHomeHandler(opts))
	api.Get("/homePageContents/:section/videos/:video", createVideoHandler(opts, logger))
	api.Get("/sectionPage/:section", createSectionHandler(opts, logger))

	// Counts the click and redirects to the advertiser
	app.Get("/ads/:id/click", createAdClickHandler(opts, logger))

	return app
}

// loadCatalog loads the catalog file, or the embedded demo catalog if catalogPath is empty.
// A successfully loaded catalog is stored as snapshot, which is used in case the catalog can't be loaded.
// The returned string describes where the catalog came from.
func loadCatalog(fs afero.Fs, catalogPath string, store *snapshotStore, logger *zap.Logger) (*catalog.Catalog, string, error) {
	source := catalogPath
	var c *catalog.Catalog
	var err error
	if catalogPath == "" {
		source = embeddedSource
		c, err = loadEmbeddedCatalog()
	} else {
		c, err = catalog.LoadFile(fs, catalogPath)
	}
	if err == nil {
		stats := c.Stats()
		logger.Info("Loaded catalog", zap.String("source", source), zap.Int("sectionCount", c.Len()), zap.Any("itemCounts", stats.Items))
		if err := store.Save(c, source); err != nil {
			logger.Error("Couldn't save catalog snapshot", zap.Error(err))
		}
		return c, source, nil
	}

	logger.Error("Couldn't load catalog, trying the last snapshot", zap.Error(err), zap.String("source", source))
	snapCatalog, snap, found, snapErr := store.Load()
	if snapErr != nil {
		return nil, "", multierr.Append(err, snapErr)
	} else if !found {
		return nil, "", fmt.Errorf("Couldn't load catalog and there's no snapshot: %w", err)
	}
	logger.Warn("Using catalog snapshot", zap.String("snapshotSource", snap.Source), zap.Time("snapshotCreated", snap.Created))
	return snapCatalog, "snapshot:" + snap.Source, nil
}

func loadEmbeddedCatalog() (*catalog.Catalog, error) {
	file, err := pkger.Open("/assets/demo-catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("Couldn't open embedded catalog: %w", err)
	}
	defer file.Close()
	return catalog.Decode(file, catalog.FormatYAML)
}

func newLogger(level, encoding string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("Couldn't parse log level: %w", err)
	}
	var cfg zap.Config
	switch encoding {
	case "console":
		cfg = zap.NewDevelopmentConfig()
		// Stack traces for warnings are too noisy
		cfg.Development = false
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, errors.New(`encoding must be one of "console" or "json"`)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func logConfig(config config, logger *zap.Logger) {
	if config.RedisCreds != "" {
		config.RedisCreds = "********"
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		logger.Fatal("Couldn't marshal config to JSON", zap.Error(err))
	}
	logger.Info("Parsed config", zap.ByteString("config", configJSON))
}
