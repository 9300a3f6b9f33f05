package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// EnvelopeExtension is the suffix of files holding one serialized envelope.
const EnvelopeExtension = ".hush"

// ResolveEnvelopeFiles takes user-provided paths, directories or globs and returns matching
// envelope files, deduplicated and in the order they were first matched.
// Relative patterns are resolved against baseDir.
func ResolveEnvelopeFiles(patterns []string, baseDir string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, baseDir)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	return files, nil
}

func resolvePattern(pattern string, baseDir string) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(baseDir, pattern)
	}

	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return findEnvelopesInDir(absPattern)
	}

	if strings.ContainsAny(pattern, "*?[") {
		return expandGlob(absPattern, pattern)
	}

	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, pattern)
	}

	// Explicitly named files are accepted whatever their extension: legacy
	// plaintext exports are still readable through the decrypt path.
	return []string{absPattern}, nil
}

func expandGlob(absPattern, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		filtered = append(filtered, m)
	}

	return filtered, nil
}

func findEnvelopesInDir(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if IsEnvelopeFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// IsEnvelopeFile reports whether path carries the envelope file extension.
func IsEnvelopeFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), EnvelopeExtension)
}
