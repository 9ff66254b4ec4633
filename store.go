package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DocumentStore is the host-side backing for plot content. The bridge never
// owns persistence; it reads and atomically replaces whole documents through
// this interface.
type DocumentStore interface {
	// List returns the storage paths of every plot file the host exposes.
	List() ([]string, error)

	// Load returns the current raw content of one document.
	Load(path string) (string, error)

	// Replace swaps the entire content of one document in a single atomic
	// edit. Readers never observe a partial write.
	Replace(path string, content string) error
}

// plotExtensions are the file suffixes recognized as plot documents.
var plotExtensions = []string{".plot.json", ".geojson"}

func isPlotFile(name string) bool {
	for _, ext := range plotExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// FileDocumentStore serves plot files from a workspace directory.
type FileDocumentStore struct {
	root   string
	logger *log.Logger
}

// NewFileDocumentStore creates a store over the given workspace directory.
func NewFileDocumentStore(root string, logger *log.Logger) (*FileDocumentStore, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %q is not a directory", abs)
	}
	return &FileDocumentStore{root: abs, logger: logger}, nil
}

// List scans the workspace for plot files, sorted for stable startup order.
func (s *FileDocumentStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isPlotFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.root, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads one plot file.
func (s *FileDocumentStore) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read plot file: %w", err)
	}
	return string(data), nil
}

// Replace writes the new content to a temp file and renames it into place,
// so a concurrent Load sees either the old or the new content, never a mix.
func (s *FileDocumentStore) Replace(path string, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write plot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace plot file: %w", err)
	}
	return nil
}

// MemoryDocumentStore keeps documents in an in-process map. Used by tests
// and the interactive CLI when no workspace is configured.
type MemoryDocumentStore struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryDocumentStore creates an empty in-memory store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{files: map[string]string{}}
}

// Put creates or overwrites a document without the atomicity ceremony;
// this is the host-edit path in tests.
func (s *MemoryDocumentStore) Put(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
}

// List returns all document paths, sorted.
func (s *MemoryDocumentStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Load returns the current content of one document.
func (s *MemoryDocumentStore) Load(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("document %q not found", path)
	}
	return content, nil
}

// Replace swaps the content of one document.
func (s *MemoryDocumentStore) Replace(path string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return fmt.Errorf("document %q not found", path)
	}
	s.files[path] = content
	return nil
}
