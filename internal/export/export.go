package export

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
)

// ManifestName is the file written next to the exported posts
const ManifestName = "posts.yaml"

// DataURI encodes text as a downloadable data URI
func DataURI(text string) string {
	return "data:file/txt;base64," + base64.StdEncoding.EncodeToString([]byte(text))
}

// Manifest describes one exported run
type Manifest struct {
	RunID      string                   `yaml:"run_id,omitempty"`
	ExportedAt time.Time                `yaml:"exported_at"`
	Request    models.GenerationRequest `yaml:"request"`
	Requested  int                      `yaml:"requested"`
	Count      int                      `yaml:"count"`
	Posts      []ManifestPost           `yaml:"posts"`
}

// ManifestPost is one post entry in the manifest
type ManifestPost struct {
	Index int    `yaml:"index"`
	File  string `yaml:"file"`
	Text  string `yaml:"text"`
}

// Options controls WriteFiles
type Options struct {
	RunID    string
	Request  models.GenerationRequest
	Manifest bool
}

// WriteFiles writes one linkedin_post_<i>.txt per post into dir and
// returns the written paths. The manifest, when requested, is last.
func WriteFiles(dir string, collection models.PostCollection, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewExportError("failed to create export dir", err)
	}

	paths := make([]string, 0, collection.Count()+1)
	for _, p := range collection.Posts {
		path, err := WriteFile(dir, p)
		if err != nil {
			return paths, apperrors.NewExportError("failed to export posts", err)
		}
		paths = append(paths, path)
	}

	if opts.Manifest {
		path, err := WriteManifest(dir, collection, opts)
		if err != nil {
			return paths, apperrors.NewExportError("failed to export posts", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// WriteManifest writes posts.yaml describing the run into dir
func WriteManifest(dir string, collection models.PostCollection, opts Options) (string, error) {
	m := Manifest{
		RunID:      opts.RunID,
		ExportedAt: time.Now().UTC(),
		Request:    opts.Request,
		Requested:  collection.Requested,
		Count:      collection.Count(),
		Posts:      make([]ManifestPost, len(collection.Posts)),
	}
	for i, p := range collection.Posts {
		m.Posts[i] = ManifestPost{Index: p.Index, File: p.Filename(), Text: p.Text}
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// WriteFile writes a single post into dir and returns its path
func WriteFile(dir string, post models.Post) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, post.Filename())
	if err := os.WriteFile(path, []byte(post.Text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", post.Filename(), err)
	}
	return path, nil
}
