package main

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/adclick"
	"github.com/doingodswork/vidshelf/pkg/catalog"
	"github.com/doingodswork/vidshelf/pkg/feed"
)

var errAdNotFound = errors.New("ad not found")

// errorResponse is the body of all error responses.
// Home lets clients offer a way back to the home feed.
type errorResponse struct {
	Error string `json:"error"`
	Home  string `json:"home"`
}

func sendError(c *fiber.Ctx, code int, err error) error {
	return c.Status(code).JSON(errorResponse{
		Error: err.Error(),
		Home:  "/",
	})
}

// param returns the unescaped path parameter.
func param(c *fiber.Ctx, key string) string {
	raw := c.Params(key, "")
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return unescaped
}

func healthHandler(c *fiber.Ctx) error {
	return c.SendString("OK")
}

type statusResponse struct {
	Catalog        catalog.Stats            `json:"catalog"`
	CatalogSource  string                   `json:"catalogSource"`
	CounterBackend string                   `json:"counterBackend"`
	AdClicks       map[catalog.ItemID]int64 `json:"adClicks,omitempty"`
	AdClicksErr    string                   `json:"adClicksErr,omitempty"`
	Duration       string                   `json:"duration"`
}

func createStatusHandler(opts appOptions, logger *zap.Logger) fiber.Handler {
	var adIDs []catalog.ItemID
	for _, s := range opts.Catalog.Sections() {
		if s.Type != catalog.TypeAds {
			continue
		}
		for _, item := range s.Content {
			adIDs = append(adIDs, item.ID)
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		res := statusResponse{
			Catalog:        opts.Catalog.Stats(),
			CatalogSource:  opts.CatalogSource,
			CounterBackend: opts.CounterBackend,
		}

		counts, err := adclick.Counts(c.Context(), opts.Counter, adIDs)
		if err != nil {
			logger.Error("Couldn't get ad click counts", zap.Error(err))
			res.AdClicksErr = err.Error()
		} else {
			res.AdClicks = counts
		}

		res.Duration = strconv.FormatInt(time.Since(start).Milliseconds(), 10) + "ms"
		return c.JSON(res)
	}
}

func createHomeHandler(opts appOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(feed.BuildHome(opts.Catalog, opts.Previews))
	}
}

func createSectionHandler(opts appOptions, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sectionKey := param(c, "section")
		s, err := opts.Catalog.ResolveSection(sectionKey)
		if err != nil {
			logger.Debug("Section not found", zap.String("section", sectionKey))
			return sendError(c, fiber.StatusNotFound, err)
		}

		page, err := queryInt(c, "page", 1)
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, err)
		}
		pageSize, err := queryInt(c, "pageSize", opts.PageSize)
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, err)
		}

		payload, err := feed.BuildSection(opts.Catalog, s, page, pageSize)
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, err)
		}
		return c.JSON(payload)
	}
}

// queryInt returns the query parameter as int, or the default value if it's missing.
func queryInt(c *fiber.Ctx, key string, defaultVal int) (int, error) {
	val := c.Query(key, "")
	if val == "" {
		return defaultVal, nil
	}
	res, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return res, nil
}

func createVideoHandler(opts appOptions, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sectionKey := param(c, "section")
		s, err := opts.Catalog.ResolveSection(sectionKey)
		if err != nil {
			logger.Debug("Section not found", zap.String("section", sectionKey))
			return sendError(c, fiber.StatusNotFound, err)
		}

		videoID := catalog.NewItemID(param(c, "video"))
		item, err := catalog.ResolveItem(s, videoID)
		if err != nil {
			logger.Debug("Video not found", zap.String("section", sectionKey), zap.String("video", videoID.String()))
			return sendError(c, fiber.StatusNotFound, err)
		}

		sel := opts.Selector.Select(opts.Catalog, s, item)
		return c.JSON(feed.BuildVideo(opts.Catalog, s, item, sel))
	}
}

func createAdClickHandler(opts appOptions, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adID := catalog.NewItemID(param(c, "id"))
		zapFieldAdID := zap.String("adID", adID.String())
		item, found := opts.Catalog.FindAd(adID)
		if !found {
			logger.Debug("Ad not found", zapFieldAdID)
			return sendError(c, fiber.StatusNotFound, errAdNotFound)
		}

		// A failing counter must not keep the user from the advertiser's site
		count, err := opts.Counter.Incr(c.Context(), adID)
		if err != nil {
			logger.Error("Couldn't count ad click", zap.Error(err), zapFieldAdID)
		} else {
			logger.Debug("Counted ad click", zapFieldAdID, zap.Int64("count", count))
		}

		return c.Redirect(item.RedirectURL, fiber.StatusFound)
	}
}
