package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/source"
	"github.com/linkedin-postgen/pkg/logger"
	"github.com/linkedin-postgen/pkg/ratelimit"
)

const defaultMaxAge = 7 * 24 * time.Hour

// Source implements TopicSource for RSS feeds
type Source struct {
	name    string
	url     string
	maxAge  time.Duration
	parser  *gofeed.Parser
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// New creates a new RSS source for a single feed.
// A nil limiter disables pacing.
func New(feed config.RSSFeed, maxAgeDays int, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	maxAge := defaultMaxAge
	if maxAgeDays > 0 {
		maxAge = time.Duration(maxAgeDays) * 24 * time.Hour
	}
	return &Source{
		name:    feed.Name,
		url:     feed.URL,
		maxAge:  maxAge,
		parser:  gofeed.NewParser(),
		limiter: limiter,
		log:     log.WithSource("rss", feed.Name),
	}
}

// NewMultiple creates RSS sources from config sharing one feed limiter
func NewMultiple(cfg config.IdeasConfig, log *logger.Logger) []*Source {
	limiter := ratelimit.NewFeedLimiter(cfg.FeedsPerMinute)
	sources := make([]*Source, 0, len(cfg.RSS.Feeds))
	for _, feed := range cfg.RSS.Feeds {
		sources = append(sources, New(feed, cfg.MaxAgeDays, limiter, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch retrieves ideas from the RSS feed
func (s *Source) Fetch(ctx context.Context) ([]*models.RawIdea, error) {
	feed, err := s.parse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.name, err)
	}

	ideas := make([]*models.RawIdea, 0, len(feed.Items))

	for _, item := range feed.Items {
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
			if time.Since(publishedAt) > s.maxAge {
				continue
			}
		}

		title := cleanText(item.Title)
		if title == "" {
			continue
		}

		ideas = append(ideas, &models.RawIdea{
			Title:       title,
			Description: cleanText(item.Description),
			URL:         item.Link,
			SourceType:  "rss",
			SourceName:  s.name,
			Keywords:    extractKeywords(item),
			PublishedAt: publishedAt,
			RawData: map[string]interface{}{
				"guid":       item.GUID,
				"categories": item.Categories,
				"published":  item.Published,
				"feed_title": feed.Title,
			},
		})
	}

	s.log.Info().
		Int("count", len(ideas)).
		Str("feed", s.name).
		Msg("Fetched RSS ideas")

	return ideas, nil
}

// HealthCheck verifies the RSS feed is accessible
func (s *Source) HealthCheck(ctx context.Context) error {
	_, err := s.parse(ctx)
	return err
}

func (s *Source) parse(ctx context.Context) (*gofeed.Feed, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, ratelimit.LimiterFeeds); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}
	s.log.Debug().Str("url", s.url).Msg("Fetching RSS feed")
	return s.parser.ParseURLWithContext(s.url, ctx)
}

// cleanText removes HTML tags and extra whitespace
func cleanText(text string) string {
	text = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ", "</p>", " ", "<p>", "").Replace(text)

	var result strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// extractKeywords extracts keywords from feed item
func extractKeywords(item *gofeed.Item) []string {
	keywords := make([]string, 0, len(item.Categories)+1)
	keywords = append(keywords, item.Categories...)
	if item.Author != nil && item.Author.Name != "" {
		keywords = append(keywords, item.Author.Name)
	}
	return keywords
}

// Ensure Source implements source.TopicSource
var _ source.TopicSource = (*Source)(nil)
