package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/linkedin-postgen/internal/models"
)

// TopicSource defines the interface for idea sources
type TopicSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (rss, custom)
	Type() string

	// Fetch retrieves ideas from the source
	Fetch(ctx context.Context) ([]*models.RawIdea, error)

	// HealthCheck verifies the source is accessible
	HealthCheck(ctx context.Context) error
}

// GenerateExternalID creates a unique ID for an idea based on source and key
func GenerateExternalID(sourceType, key string) string {
	data := fmt.Sprintf("%s:%s", sourceType, key)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16]) // Use first 16 bytes (32 hex chars)
}

// ExternalIDFor identifies a raw idea by URL, or by title when it has none
func ExternalIDFor(raw *models.RawIdea) string {
	key := raw.URL
	if key == "" {
		key = raw.Title
	}
	return GenerateExternalID(raw.SourceType, key)
}

// Manager manages multiple idea sources
type Manager struct {
	sources []TopicSource
}

// NewManager creates a new source manager
func NewManager() *Manager {
	return &Manager{
		sources: make([]TopicSource, 0),
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source TopicSource) {
	m.sources = append(m.sources, source)
}

// GetSources returns all registered sources
func (m *Manager) GetSources() []TopicSource {
	return m.sources
}

// GetSourceByName returns a source by name
func (m *Manager) GetSourceByName(name string) TopicSource {
	for _, s := range m.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// FetchAll fetches ideas from all sources concurrently.
// Results keep registration order so dedup is deterministic.
func (m *Manager) FetchAll(ctx context.Context) ([]*models.RawIdea, []error) {
	type result struct {
		ideas []*models.RawIdea
		err   error
	}

	results := make([]result, len(m.sources))
	var wg sync.WaitGroup

	for i, source := range m.sources {
		wg.Add(1)
		go func(i int, s TopicSource) {
			defer wg.Done()
			ideas, err := s.Fetch(ctx)
			results[i] = result{ideas: ideas, err: err}
		}(i, source)
	}
	wg.Wait()

	var allIdeas []*models.RawIdea
	var errors []error

	for _, r := range results {
		if r.err != nil {
			errors = append(errors, r.err)
		} else {
			allIdeas = append(allIdeas, r.ideas...)
		}
	}

	return allIdeas, errors
}
