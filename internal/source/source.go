// Package source loads test cases and translation tables from files.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fjglira/bugzero/internal/domain"
)

// Loader reads one test case file.
type Loader interface {
	Load(path string) (*domain.TestCase, error)
	SupportedExtensions() []string
}

// Registry maps file extensions to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// DefaultRegistry returns a Registry with every built-in loader. sheet
// selects the worksheet of Excel test cases; empty means the first one.
func DefaultRegistry(sheet string) *Registry {
	r := NewRegistry()
	r.Register(NewExcelLoader(sheet))
	r.Register(NewYAMLLoader())
	r.Register(NewCSVLoader())
	r.Register(NewMarkdownLoader())
	return r
}

// Register adds a loader for each of its supported extensions.
func (r *Registry) Register(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range l.SupportedExtensions() {
		r.loaders[normalizeExt(ext)] = l
	}
}

// LoaderFor returns the loader registered for the extension.
func (r *Registry) LoaderFor(ext string) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.loaders[normalizeExt(ext)]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("no loader registered for extension %q", ext)
}

// Extensions lists the registered extensions, dot included, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, "."+ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads the test case at path with the loader for its extension.
func (r *Registry) Load(path string) (*domain.TestCase, error) {
	if err := checkExists(path, "test case"); err != nil {
		return nil, err
	}
	l, err := r.LoaderFor(filepath.Ext(path))
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("source", path, 0, err.Error(),
			fmt.Sprintf("supported extensions: %s", strings.Join(r.Extensions(), ", ")), nil)
	}
	return l.Load(path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// checkExists returns an error wrapping domain.ErrNotFound when path is absent.
func checkExists(path, what string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return domain.NewError("source", path, 0, what+" not found", domain.ErrNotFound)
	}
	return domain.NewError("source", path, 0, "cannot access "+what, err)
}

// caseName derives a test case name from its file name.
func caseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
