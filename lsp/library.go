package lsp

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/rlch/kalc/types"
)

// LibraryLoader loads the class libraries a workspace declares on top of the
// builtins. File contents are cached until invalidated.
type LibraryLoader struct {
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewLibraryLoader creates a new library loader.
func NewLibraryLoader(logger *zap.Logger) *LibraryLoader {
	return &LibraryLoader{
		logger: logger,
		cache:  make(map[string][]byte),
	}
}

// Read returns the content of the library file at path.
func (l *LibraryLoader) Read(path string) ([]byte, error) {
	l.mu.RLock()
	if content, ok := l.cache[path]; ok {
		l.mu.RUnlock()

		return content, nil
	}
	l.mu.RUnlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = content
	l.mu.Unlock()

	return content, nil
}

// Load builds the library chain for paths. Each file extends the one before
// it, the first extends the builtins.
func (l *LibraryLoader) Load(paths []string) (*types.Library, error) {
	lib := types.Builtins()

	for _, path := range paths {
		content, err := l.Read(path)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", path, err)
		}

		lib, err = types.LoadLibrary(content, lib)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", path, err)
		}

		l.logger.Debug("Loaded library", zap.String("path", path), zap.Int("classes", len(lib.Classes())))
	}

	return lib, nil
}

// Invalidate removes paths from the cache and reports whether any of them
// was cached.
func (l *LibraryLoader) Invalidate(paths ...string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cached := false

	for path := range l.cache {
		if slices.Contains(paths, path) {
			delete(l.cache, path)

			cached = true
		}
	}

	return cached
}
