package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/source"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/pkg/logger"
)

// Agent refreshes the idea inbox from the registered sources
type Agent struct {
	sourceManager *source.Manager
	repository    storage.Repository
	maxAge        time.Duration
	log           *logger.Logger
}

// NewAgent creates a new discovery agent. maxAgeDays <= 0 keeps ideas forever.
func NewAgent(
	sourceManager *source.Manager,
	repository storage.Repository,
	maxAgeDays int,
	log *logger.Logger,
) *Agent {
	return &Agent{
		sourceManager: sourceManager,
		repository:    repository,
		maxAge:        time.Duration(maxAgeDays) * 24 * time.Hour,
		log:           log.WithComponent("discovery"),
	}
}

// DiscoveryResult contains the results of a discovery run
type DiscoveryResult struct {
	IdeasFound   int
	IdeasSaved   int
	IdeasSkipped int
	IdeasPruned  int64
	Errors       []error
	Duration     time.Duration
}

// Run fetches every source, saves new ideas and prunes expired ones
func (a *Agent) Run(ctx context.Context) (*DiscoveryResult, error) {
	startTime := time.Now()
	result := &DiscoveryResult{}

	a.log.Info().Int("sources", len(a.sourceManager.GetSources())).Msg("Refreshing idea inbox")

	rawIdeas, fetchErrors := a.sourceManager.FetchAll(ctx)
	result.Errors = append(result.Errors, fetchErrors...)
	result.IdeasFound = len(rawIdeas)

	a.log.Info().
		Int("ideas_found", len(rawIdeas)).
		Int("fetch_errors", len(fetchErrors)).
		Msg("Fetched ideas from sources")

	a.save(ctx, rawIdeas, result)
	a.prune(ctx, result)

	result.Duration = time.Since(startTime)

	a.log.Info().
		Int("ideas_saved", result.IdeasSaved).
		Int("ideas_skipped", result.IdeasSkipped).
		Int64("ideas_pruned", result.IdeasPruned).
		Dur("duration", result.Duration).
		Msg("Discovery completed")

	return result, nil
}

// RunForSource refreshes ideas from a single named source
func (a *Agent) RunForSource(ctx context.Context, sourceName string) (*DiscoveryResult, error) {
	startTime := time.Now()
	result := &DiscoveryResult{}

	src := a.sourceManager.GetSourceByName(sourceName)
	if src == nil {
		return nil, fmt.Errorf("source not found: %s", sourceName)
	}

	a.log.Info().Str("source", sourceName).Msg("Running discovery for source")

	rawIdeas, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", sourceName, err)
	}
	result.IdeasFound = len(rawIdeas)

	a.save(ctx, rawIdeas, result)

	result.Duration = time.Since(startTime)
	return result, nil
}

// save stores ideas not seen in this batch or in the repository
func (a *Agent) save(ctx context.Context, rawIdeas []*models.RawIdea, result *DiscoveryResult) {
	seen := make(map[string]bool)

	for _, raw := range rawIdeas {
		externalID := source.ExternalIDFor(raw)
		if seen[externalID] {
			result.IdeasSkipped++
			continue
		}
		seen[externalID] = true

		existing, err := a.repository.GetIdeaByExternalID(ctx, externalID)
		if existing != nil {
			result.IdeasSkipped++
			continue
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Errorf("lookup %s: %w", raw.Title, err))
			result.IdeasSkipped++
			continue
		}

		if err := a.repository.CreateIdea(ctx, toIdea(externalID, raw)); err != nil {
			a.log.Warn().
				Err(err).
				Str("title", raw.Title).
				Msg("Failed to save idea")
			result.IdeasSkipped++
			continue
		}
		result.IdeasSaved++
	}
}

func (a *Agent) prune(ctx context.Context, result *DiscoveryResult) {
	if a.maxAge <= 0 {
		return
	}
	n, err := a.repository.DeleteIdeasBefore(ctx, time.Now().Add(-a.maxAge))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("prune ideas: %w", err))
		return
	}
	result.IdeasPruned = n
}

func toIdea(externalID string, raw *models.RawIdea) *models.Idea {
	idea := &models.Idea{
		ExternalID:  externalID,
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.URL,
		SourceType:  raw.SourceType,
		SourceName:  raw.SourceName,
		Keywords:    raw.Keywords,
		RawData:     raw.RawData,
		Status:      models.IdeaStatusNew,
	}
	if !raw.PublishedAt.IsZero() {
		published := raw.PublishedAt
		idea.PublishedAt = &published
	}
	return idea
}
