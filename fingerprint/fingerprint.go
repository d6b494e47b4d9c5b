package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultSkipDirs lists directory names excluded from every walk: dependency
// caches, VCS metadata and the patch backup store.
var DefaultSkipDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	".ai_patch_backups",
	".patchflow",
}

// Summary is a snapshot of a directory tree's file contents.
type Summary struct {
	// Files maps relative forward-slash paths to hex SHA-256 digests.
	Files map[string]string

	// Skipped counts files that could not be read and were omitted.
	Skipped int
}

// Computer walks directory trees and hashes file contents.
type Computer struct {
	skipDirs map[string]struct{}
}

// New creates a Computer. Any extra directory names given are skipped in
// addition to DefaultSkipDirs.
func New(extraSkipDirs ...string) *Computer {
	skip := make(map[string]struct{}, len(DefaultSkipDirs)+len(extraSkipDirs))
	for _, d := range DefaultSkipDirs {
		skip[d] = struct{}{}
	}
	for _, d := range extraSkipDirs {
		if d != "" {
			skip[d] = struct{}{}
		}
	}
	return &Computer{skipDirs: skip}
}

// Compute walks baseDir and returns a summary of every readable file.
// Two runs over an unchanged tree yield identical summaries. Only a failure
// to walk the tree itself is an error; unreadable files are skipped.
func (c *Computer) Compute(baseDir string) (*Summary, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("stat base dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base dir %s: not a directory", baseDir)
	}

	summary := &Summary{Files: make(map[string]string)}

	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == baseDir {
				return err
			}
			// Unreadable subtree: skip it rather than failing the scan.
			summary.Skipped++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, skip := c.skipDirs[d.Name()]; skip && path != baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			summary.Skipped++
			return nil
		}

		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			return relErr
		}

		sum := sha256.Sum256(data)
		summary.Files[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", baseDir, err)
	}

	return summary, nil
}
