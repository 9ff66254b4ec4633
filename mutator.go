package main

import (
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"
)

// DocumentMutator parses, validates and atomically rewrites plot content
// through the host document store. It is the single source of truth for
// "current content" and "write new content".
type DocumentMutator struct {
	store  DocumentStore
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-document write locks
}

// NewDocumentMutator creates a mutator over the given store.
func NewDocumentMutator(store DocumentStore, logger *log.Logger) *DocumentMutator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DocumentMutator{
		store:  store,
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

// Read parses the document's current content. Empty or whitespace-only
// content is a valid empty collection, not an error. Malformed JSON and
// schema failures surface as InvalidInput with the validator's messages.
func (m *DocumentMutator) Read(doc *PlotDocument) (*FeatureCollection, *CommandError) {
	content, err := m.store.Load(doc.Path)
	if err != nil {
		m.logger.Printf("Warning: failed to load %q: %v", doc.Filename, err)
		return nil, NotFoundError("Plot file %q could not be read", doc.Filename)
	}
	return m.parse(doc, content)
}

func (m *DocumentMutator) parse(doc *PlotDocument, content string) (*FeatureCollection, *CommandError) {
	if strings.TrimSpace(content) == "" {
		return NewFeatureCollection(), nil
	}

	var fc FeatureCollection
	if err := json.Unmarshal([]byte(content), &fc); err != nil {
		return nil, InvalidInputError("Plot file %q is not valid JSON: %v", doc.Filename, err)
	}
	if fc.Features == nil {
		fc.Features = []Feature{}
	}

	result := ValidateFeatureCollection(&fc)
	if !result.IsValid {
		return nil, InvalidInputError("Plot file %q failed validation: %s",
			doc.Filename, joinValidationErrors(result.Errors))
	}
	return &fc, nil
}

// Write serializes the collection and replaces the document's entire
// content in one atomic edit. It does not re-validate; callers accepting a
// caller-supplied whole collection must validate before calling Write.
func (m *DocumentMutator) Write(doc *PlotDocument, fc *FeatureCollection) *CommandError {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		m.logger.Printf("Warning: failed to serialize %q: %v", doc.Filename, err)
		return InternalError("Failed to serialize plot content")
	}
	if err := m.store.Replace(doc.Path, string(data)); err != nil {
		m.logger.Printf("Warning: failed to write %q: %v", doc.Filename, err)
		return InternalError("Failed to write plot content")
	}
	return nil
}

// Replace writes a fully constructed collection under the document's write
// lock, so it cannot interleave with a concurrent read-modify-write.
func (m *DocumentMutator) Replace(doc *PlotDocument, fc *FeatureCollection) *CommandError {
	lock := m.lockFor(doc.Path)
	lock.Lock()
	defer lock.Unlock()
	return m.Write(doc, fc)
}

// Update runs fn on the current content under the document's write lock and
// writes the result back. The lock keeps a concurrent read-modify-write on
// the same document from losing either update.
func (m *DocumentMutator) Update(doc *PlotDocument, fn func(fc *FeatureCollection) *CommandError) *CommandError {
	lock := m.lockFor(doc.Path)
	lock.Lock()
	defer lock.Unlock()

	fc, cerr := m.Read(doc)
	if cerr != nil {
		return cerr
	}
	if cerr := fn(fc); cerr != nil {
		return cerr
	}
	return m.Write(doc, fc)
}

func (m *DocumentMutator) lockFor(path string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[path] = lock
	}
	return lock
}

// Forget drops the write lock for a closed document.
func (m *DocumentMutator) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, path)
}
