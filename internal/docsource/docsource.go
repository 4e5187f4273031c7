// Package docsource turns directories of files into the document set the
// synchronizer reconciles against.
package docsource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/docid"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/models"
)

// Source walks configured directories and produces documents. Document IDs
// derive from the cleaned file path, so the same file always maps to the
// same document across runs.
type Source struct {
	dirs       []string
	extensions map[string]bool
	recursive  bool
	extractor  *extract.Extractor
	logger     *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a logger for per-file extraction warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// New creates a Source from watch configuration.
func New(cfg *config.WatchConfig, opts ...Option) *Source {
	s := &Source{
		dirs:       cfg.Directories,
		extensions: make(map[string]bool, len(cfg.Extensions)),
		recursive:  cfg.RecursiveOrDefault(),
		extractor:  extract.NewExtractor(),
	}
	for _, ext := range cfg.Extensions {
		s.extensions[strings.ToLower(ext)] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accepts reports whether path has a configured extension.
func (s *Source) Accepts(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Collect walks every configured directory and loads each accepted file as
// a document. Files that fail extraction are skipped with a warning rather
// than failing the walk; a missing directory is an error. Documents come
// back sorted by ID.
func (s *Source) Collect() ([]models.Document, error) {
	seen := make(map[string]bool)
	var docs []models.Document
	for _, dir := range s.dirs {
		if err := s.collectDir(dir, seen, &docs); err != nil {
			return nil, err
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Load reads a single file as a document.
func (s *Source) Load(path string) (models.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	text, err := s.extractor.File(abs)
	if err != nil {
		return models.Document{}, fmt.Errorf("extract %s: %w", abs, err)
	}
	return models.Document{
		ID:          docid.ForPath(abs),
		Text:        text,
		ContentHash: docid.ContentHash(text),
		Metadata: map[string]string{
			"path": abs,
			"name": filepath.Base(abs),
		},
	}, nil
}

func (s *Source) collectDir(dir string, seen map[string]bool, docs *[]models.Document) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !s.recursive {
				return filepath.SkipDir
			}
			// Hidden directories (.git and friends) are never indexed.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.Accepts(path) || seen[path] {
			return nil
		}
		doc, err := s.Load(path)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		seen[path] = true
		*docs = append(*docs, doc)
		return nil
	})
}
