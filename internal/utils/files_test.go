package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestResolveEnvelopeFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, "inbox", "1.hush"))
	writeFile(t, filepath.Join(tempDir, "inbox", "2.hush"))
	writeFile(t, filepath.Join(tempDir, "inbox", "nested", "3.hush"))
	writeFile(t, filepath.Join(tempDir, "inbox", "notes.txt"))
	writeFile(t, filepath.Join(tempDir, "legacy.txt"))

	t.Run("Directory", func(t *testing.T) {
		files, err := ResolveEnvelopeFiles([]string{"inbox"}, tempDir)
		if err != nil {
			t.Fatalf("ResolveEnvelopeFiles failed: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("Expected 3 envelope files, got %d: %v", len(files), files)
		}
	})

	t.Run("DoubleStarGlob", func(t *testing.T) {
		files, err := ResolveEnvelopeFiles([]string{"inbox/**/*.hush"}, tempDir)
		if err != nil {
			t.Fatalf("ResolveEnvelopeFiles failed: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("Expected 3 envelope files, got %d: %v", len(files), files)
		}
	})

	t.Run("ExplicitFileAnyExtension", func(t *testing.T) {
		files, err := ResolveEnvelopeFiles([]string{"legacy.txt"}, tempDir)
		if err != nil {
			t.Fatalf("ResolveEnvelopeFiles failed: %v", err)
		}
		if len(files) != 1 || files[0] != filepath.Join(tempDir, "legacy.txt") {
			t.Errorf("Unexpected result: %v", files)
		}
	})

	t.Run("Deduplicates", func(t *testing.T) {
		files, err := ResolveEnvelopeFiles([]string{"inbox/1.hush", "inbox/*.hush"}, tempDir)
		if err != nil {
			t.Fatalf("ResolveEnvelopeFiles failed: %v", err)
		}
		if len(files) != 2 {
			t.Errorf("Expected 2 files, got %d: %v", len(files), files)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ResolveEnvelopeFiles([]string{"nope.hush"}, tempDir)
		if !errors.Is(err, kerrors.ErrFileNotFound) {
			t.Errorf("Expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		_, err := ResolveEnvelopeFiles([]string{"outbox/*.hush"}, tempDir)
		if !errors.Is(err, kerrors.ErrNoFilesFound) {
			t.Errorf("Expected ErrNoFilesFound, got %v", err)
		}
	})
}
