package export

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
)

func TestDataURI(t *testing.T) {
	text := "Hello LinkedIn 🚀\nSecond line"
	uri := DataURI(text)

	const prefix = "data:file/txt;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("DataURI() = %q, want prefix %q", uri, prefix)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(decoded) != text {
		t.Errorf("decoded = %q, want %q", decoded, text)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	collection := models.NewPostCollection([]string{"first post", "second post"}, 3)
	req := models.GenerationRequest{Topic: "Go", Tone: models.ToneProfessional, Audience: "devs", PostCount: 3}

	paths, err := WriteFiles(dir, collection, Options{RunID: "run-1", Request: req, Manifest: true})
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v, want 2 posts + manifest", paths)
	}

	data, err := os.ReadFile(filepath.Join(dir, "linkedin_post_2.txt"))
	if err != nil {
		t.Fatalf("read post: %v", err)
	}
	if string(data) != "second post" {
		t.Errorf("post 2 content = %q", data)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest is not YAML: %v", err)
	}
	if m.RunID != "run-1" || m.Requested != 3 || m.Count != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Request.Tone != models.ToneProfessional || m.Request.Topic != "Go" {
		t.Errorf("manifest request = %+v", m.Request)
	}
	if len(m.Posts) != 2 || m.Posts[0].File != "linkedin_post_1.txt" || m.Posts[1].Text != "second post" {
		t.Errorf("manifest posts = %+v", m.Posts)
	}
}

func TestWriteFiles_NoManifest(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, models.NewPostCollection([]string{"only"}, 1), Options{})
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("paths = %v, want 1", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); !os.IsNotExist(err) {
		t.Error("manifest should not be written")
	}
}

func TestWriteFiles_ExportError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "taken")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := WriteFiles(filepath.Join(blocker, "out"), models.NewPostCollection([]string{"only"}, 1), Options{})
	if err == nil {
		t.Fatal("WriteFiles() should fail when the directory cannot be created")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeExport) {
		t.Errorf("error = %v, want an export error", err)
	}
	if apperrors.CodeOf(err) != "EXPORT_FAILED" {
		t.Errorf("code = %s, want EXPORT_FAILED", apperrors.CodeOf(err))
	}
}
