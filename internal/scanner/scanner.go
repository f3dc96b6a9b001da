package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// ProcessedDir is the reserved directory segment for already processed files.
const ProcessedDir = "_processed"

// Ensure Scanner implements the interface.
var _ driven.FileScanner = (*Scanner)(nil)

// Option configures a Scanner.
type Option func(*Scanner)

// WithExcludedSegments adds directory names whose subtrees are never scanned.
func WithExcludedSegments(segments ...string) Option {
	return func(s *Scanner) {
		s.excluded = append(s.excluded, segments...)
	}
}

// WithExtensions restricts the scan to the given extensions instead of
// every supported one.
func WithExtensions(exts ...string) Option {
	return func(s *Scanner) {
		s.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			s.extensions[domain.NormalizeExtension(ext)] = true
		}
	}
}

// Scanner enumerates supported files under a root. It holds no state
// between scans.
type Scanner struct {
	excluded   []string
	extensions map[string]bool
}

// New creates a Scanner that excludes ProcessedDir.
func New(opts ...Option) *Scanner {
	s := &Scanner{excluded: []string{ProcessedDir}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks root and streams matching absolute paths in lexical order.
// Unreadable entries below the root are logged and skipped. A root that
// is missing, unreadable or not a directory is reported on the error channel.
func (s *Scanner) Scan(ctx context.Context, root string) (<-chan string, <-chan error) {
	paths := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		absRoot, err := s.validateRoot(root)
		if err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					return err
				}
				logger.Warn("Skipping unreadable path %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			if path == absRoot {
				return nil
			}

			if d.IsDir() {
				if s.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() || !s.Match(path) {
				return nil
			}

			select {
			case paths <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			errs <- fmt.Errorf("scanning %s: %w", absRoot, walkErr)
		}
	}()

	return paths, errs
}

// Match reports whether a file path would be yielded by a scan, judging
// only by its name: hidden names and unsupported extensions are rejected.
func (s *Scanner) Match(path string) bool {
	name := filepath.Base(path)
	if isHidden(name) {
		return false
	}
	ext := domain.ExtensionOf(name)
	if s.extensions != nil {
		return s.extensions[ext]
	}
	return domain.IsSupportedExtension(ext)
}

// Excluded reports whether any directory of rel (relative to the scan
// root) is hidden or reserved.
func (s *Scanner) Excluded(rel string) bool {
	dir := filepath.Dir(filepath.Clean(rel))
	if dir == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if s.skipDir(part) {
			return true
		}
	}
	return false
}

func (s *Scanner) skipDir(name string) bool {
	if isHidden(name) {
		return true
	}
	for _, seg := range s.excluded {
		if name == seg {
			return true
		}
	}
	return false
}

func (s *Scanner) validateRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("root directory %s does not exist: %w", absRoot, err)
		}
		return "", fmt.Errorf("reading root directory %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", absRoot, domain.ErrInvalidInput)
	}
	return absRoot, nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
