package storage

import (
	"context"
	"errors"
	"time"

	"github.com/linkedin-postgen/internal/models"
)

// ErrNotFound is returned when an idea does not exist
var ErrNotFound = errors.New("idea not found")

// Repository defines the interface for idea persistence.
// Generated posts are never stored.
type Repository interface {
	CreateIdea(ctx context.Context, idea *models.Idea) error
	GetIdeaByID(ctx context.Context, id uint) (*models.Idea, error)
	GetIdeaByExternalID(ctx context.Context, externalID string) (*models.Idea, error)
	ListIdeas(ctx context.Context, filter IdeaFilter) ([]*models.Idea, error)
	UpdateIdeaStatus(ctx context.Context, id uint, status models.IdeaStatus) error
	// DeleteIdeasBefore only removes ideas still in the new status
	DeleteIdeasBefore(ctx context.Context, before time.Time) (int64, error)

	// Maintenance
	Close() error
	Migrate() error
}

// IdeaFilter defines filtering options for ideas
type IdeaFilter struct {
	Status     *models.IdeaStatus
	SourceType *string
	Limit      int
	Offset     int
	OrderBy    string // "discovered_at", "published_at"
	OrderDesc  bool
}

// DefaultIdeaFilter returns a filter with sensible defaults
func DefaultIdeaFilter() IdeaFilter {
	return IdeaFilter{
		Limit:     50,
		OrderBy:   "discovered_at",
		OrderDesc: true,
	}
}
