package custom

import (
	"context"
	"strings"
	"time"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/source"
	"github.com/linkedin-postgen/pkg/logger"
)

// Source turns configured keywords into ideas
type Source struct {
	keywords []string
	log      *logger.Logger
}

// New creates a new custom source
func New(cfg config.CustomConfig, log *logger.Logger) *Source {
	return &Source{
		keywords: cfg.Keywords,
		log:      log.WithSource("custom", "keywords"),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "custom-keywords"
}

// Type returns "custom"
func (s *Source) Type() string {
	return "custom"
}

// Fetch returns one idea per non-blank keyword
func (s *Source) Fetch(ctx context.Context) ([]*models.RawIdea, error) {
	ideas := make([]*models.RawIdea, 0, len(s.keywords))

	for _, keyword := range s.keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		ideas = append(ideas, &models.RawIdea{
			Title:       keyword,
			Description: "Custom keyword",
			SourceType:  "custom",
			SourceName:  "keywords",
			Keywords:    []string{keyword},
			PublishedAt: time.Now(),
			RawData: map[string]interface{}{
				"type": "keyword",
			},
		})
	}

	s.log.Debug().
		Int("count", len(ideas)).
		Msg("Returned custom keyword ideas")

	return ideas, nil
}

// HealthCheck always succeeds for custom source
func (s *Source) HealthCheck(ctx context.Context) error {
	return nil
}

// Ensure Source implements source.TopicSource
var _ source.TopicSource = (*Source)(nil)
