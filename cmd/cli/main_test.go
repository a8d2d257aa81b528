package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/internal/storage/sqlite"
)

func TestLoadIdea(t *testing.T) {
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "ideas.db"))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	idea := &models.Idea{ExternalID: "kw", Title: "Go generics", SourceType: "custom", Status: models.IdeaStatusNew}
	if err := repo.CreateIdea(ctx, idea); err != nil {
		t.Fatalf("CreateIdea() error = %v", err)
	}

	got, err := loadIdea(ctx, repo, idea.ID)
	if err != nil {
		t.Fatalf("loadIdea() error = %v", err)
	}
	if got.Title != "Go generics" {
		t.Errorf("Title = %q", got.Title)
	}

	_, err = loadIdea(ctx, repo, 404)
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("loadIdea(missing) error = %v, want a not-found error", err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("loadIdea(missing) should wrap storage.ErrNotFound")
	}
}
