package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/doingodswork/vidshelf/pkg/catalog"
	"github.com/doingodswork/vidshelf/pkg/feed"
	"github.com/doingodswork/vidshelf/pkg/feedclient"
)

var (
	baseURL = flag.String("baseURL", feedclient.DefaultClientOpts.BaseURL, "Base URL of the vidshelf API")
	section = flag.String("section", "", "Slug or index of the section to fetch. An empty value leads to the first videos section of the home feed.")
	video   = flag.String("video", "", "ID of the video to fetch. An empty value leads to the first video of the section.")
	timeout = flag.Duration("timeout", feedclient.DefaultClientOpts.Timeout, "Timeout for each request")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	client, err := feedclient.NewClient(feedclient.NewClientOpts(*baseURL, *timeout), logger)
	if err != nil {
		logger.Fatal("Couldn't create feed client", zap.Error(err))
	}

	if err := probe(context.Background(), client, *section, *video, logger); err != nil {
		state := client.State()
		logger.Fatal("Probe failed", zap.Error(err), zap.Bool("loading", state.Loading), zap.String("stateErr", state.Err))
	}
	logger.Info("Probe succeeded")
}

func probe(ctx context.Context, client *feedclient.Client, sectionKey, videoID string, logger *zap.Logger) error {
	home, err := client.FetchHome(ctx)
	if err != nil {
		return fmt.Errorf("Couldn't fetch home feed: %w", err)
	}
	logger.Info("Fetched home feed", zap.Int("sectionCount", len(home.Sections)), zap.Time("generatedAt", home.GeneratedAt))

	if sectionKey == "" {
		var ok bool
		if sectionKey, ok = firstVideosSection(home); !ok {
			return errors.New("the home feed doesn't contain a videos section")
		}
	}

	page, err := client.FetchSection(ctx, sectionKey)
	if err != nil {
		return fmt.Errorf("Couldn't fetch section %q: %w", sectionKey, err)
	}
	logger.Info("Fetched section page",
		zap.String("section", sectionKey),
		zap.String("sectionTitle", page.SectionTitle),
		zap.Int("itemCount", len(page.Items)),
		zap.Int("totalItems", page.TotalItems),
		zap.Bool("hasMore", page.HasMore))

	if videoID == "" {
		if len(page.Items) == 0 {
			return fmt.Errorf("section %q is empty", sectionKey)
		}
		videoID = page.Items[0].ID.String()
	}

	start := time.Now()
	videoPage, err := client.FetchVideo(ctx, sectionKey, videoID)
	if err != nil {
		return fmt.Errorf("Couldn't fetch video %q: %w", videoID, err)
	}
	fields := []zap.Field{
		zap.String("video", videoID),
		zap.String("title", videoPage.Video.DisplayTitle()),
		zap.String("views", videoPage.FormattedViews),
		zap.Int("relatedCount", len(videoPage.Related)),
		zap.Int("recommendedCount", len(videoPage.Recommended)),
		zap.Int("shortsCount", len(videoPage.Shorts)),
		zap.Duration("duration", time.Since(start)),
	}
	if videoPage.Ad != nil {
		fields = append(fields, zap.String("adPath", videoPage.Ad.Path))
	}
	logger.Info("Fetched video page", fields...)

	state := client.State()
	logger.Debug("Client state", zap.Bool("loading", state.Loading), zap.String("err", state.Err))
	return nil
}

// firstVideosSection returns the key of the first videos section, which is its slug or its position.
func firstVideosSection(home feed.HomePayload) (string, bool) {
	for i, row := range home.Sections {
		if row.Type != catalog.TypeVideos {
			continue
		}
		if row.Slug != "" {
			return row.Slug, true
		}
		return strconv.Itoa(i), true
	}
	return "", false
}
