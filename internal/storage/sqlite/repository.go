package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

var orderColumns = map[string]bool{
	"discovered_at": true,
	"published_at":  true,
	"id":            true,
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dsn != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Idea{})
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *Repository) GetIdeaByID(ctx context.Context, id uint) (*models.Idea, error) {
	var idea models.Idea
	if err := r.db.WithContext(ctx).First(&idea, id).Error; err != nil {
		return nil, translate(err)
	}
	return &idea, nil
}

func (r *Repository) GetIdeaByExternalID(ctx context.Context, externalID string) (*models.Idea, error) {
	var idea models.Idea
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&idea).Error; err != nil {
		return nil, translate(err)
	}
	return &idea, nil
}

func (r *Repository) ListIdeas(ctx context.Context, filter storage.IdeaFilter) ([]*models.Idea, error) {
	var ideas []*models.Idea
	query := r.db.WithContext(ctx).Model(&models.Idea{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}

	// Ordering
	orderCol := "discovered_at"
	if orderColumns[filter.OrderBy] {
		orderCol = filter.OrderBy
	}
	if filter.OrderDesc {
		query = query.Order(orderCol + " DESC").Order("id DESC")
	} else {
		query = query.Order(orderCol + " ASC").Order("id ASC")
	}

	// Pagination
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&ideas).Error; err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *Repository) UpdateIdeaStatus(ctx context.Context, id uint, status models.IdeaStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Idea{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteIdeasBefore removes new ideas discovered before the cutoff.
// Used and dismissed ideas stay so refreshes keep skipping them.
func (r *Repository) DeleteIdeasBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("discovered_at < ? AND status = ?", before, models.IdeaStatusNew).
		Delete(&models.Idea{})
	return res.RowsAffected, res.Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

var _ storage.Repository = (*Repository)(nil)
