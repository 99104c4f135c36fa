// Package scan walks the support and transfer input directories and turns
// them into document collections for matching.
package scan

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/entity"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Scanner reads document collections from the local filesystem.
type Scanner struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	Recursive   bool
	logger      *slog.Logger
}

func NewScanner(recursive bool, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{Recursive: recursive, logger: logger}
}

// ScanDirectory collects all accepted documents under root. Hidden files and
// directories are always skipped. Results are sorted by path so runs over
// identical inputs see identical orderings.
func (s *Scanner) ScanDirectory(root string) ([]entity.Document, DirStats, error) {
	var docs []entity.Document
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (isHidden(path) || !s.Recursive) {
				return filepath.SkipDir
			}
			return nil
		}
		stats.Scanned++
		if isHidden(path) || !s.allowed(filepath.Ext(path)) {
			stats.Skipped++
			return nil
		}

		ext := constants.NormalizeExt(filepath.Ext(path))
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		docs = append(docs, entity.Document{
			Path:   path,
			Name:   name,
			Ext:    ext,
			Format: constants.MapExtToFormat(ext),
		})
		stats.Matched++
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	s.logger.Info("scan.dir.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
	)
	return docs, stats, nil
}

func (s *Scanner) allowed(ext string) bool {
	ext = constants.NormalizeExt(ext)
	if ext == "" {
		return false
	}
	if s.AllowedExts != nil {
		_, ok := s.AllowedExts[ext]
		return ok
	}
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
