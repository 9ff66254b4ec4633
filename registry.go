package main

import (
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// PlotDocument is one open plot. Identity is the absolute storage path, so
// it is stable across edits and never reused for different content unless
// the host reopens a different file at the same location.
type PlotDocument struct {
	Path     string // Stable identity
	Filename string // Short display name, used for disambiguation
}

// Title returns the human title: the filename minus its plot extension.
func (d *PlotDocument) Title() string {
	for _, ext := range plotExtensions {
		if strings.HasSuffix(d.Filename, ext) {
			return strings.TrimSuffix(d.Filename, ext)
		}
	}
	return strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
}

// Info returns the listing entry for this document.
func (d *PlotDocument) Info() PlotInfo {
	return PlotInfo{Filename: d.Filename, Title: d.Title()}
}

// DocumentRegistry tracks every open plot document and resolves loose
// filename strings to exactly one of them. It also holds the single-slot
// cached target filename that saves sequential-command clients from
// repeating the filename on every call.
type DocumentRegistry struct {
	mu           sync.RWMutex
	docs         map[string]*PlotDocument // by path
	cachedTarget string                   // most recently explicitly supplied filename
	onClose      []func(path string)
	logger       *log.Logger
}

// NewDocumentRegistry creates an empty registry.
func NewDocumentRegistry(logger *log.Logger) *DocumentRegistry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DocumentRegistry{
		docs:   map[string]*PlotDocument{},
		logger: logger,
	}
}

// OnClose registers a hook invoked with the document path whenever a
// document is deregistered. Selection and state stores hook in here.
func (r *DocumentRegistry) OnClose(fn func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = append(r.onClose, fn)
}

// Open registers a document for the given storage path. Reopening an
// already-open path returns the existing registration.
func (r *DocumentRegistry) Open(path string) *PlotDocument {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.docs[path]; ok {
		return doc
	}
	doc := &PlotDocument{
		Path:     path,
		Filename: filepath.Base(path),
	}
	r.docs[path] = doc
	r.logger.Printf("Opened plot %q", doc.Filename)
	return doc
}

// Close deregisters a document and runs the close hooks. If the cached
// target pointed at it, the cache is cleared.
func (r *DocumentRegistry) Close(path string) {
	r.mu.Lock()
	doc, ok := r.docs[path]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.docs, path)
	if r.cachedTarget != "" && r.matchLocked(r.cachedTarget) == nil {
		r.cachedTarget = ""
	}
	hooks := make([]func(string), len(r.onClose))
	copy(hooks, r.onClose)
	r.mu.Unlock()

	r.logger.Printf("Closed plot %q", doc.Filename)
	for _, fn := range hooks {
		fn(path)
	}
}

// ListOpen returns every open plot, sorted by filename.
func (r *DocumentRegistry) ListOpen() []PlotInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listOpenLocked()
}

// Resolve maps an optional filename to exactly one open document.
//
// With a filename: exact or suffix match against open documents; a match
// updates the cached target. Without one: the cached target wins if still
// open; otherwise a single open document is used (and cached); zero open
// documents is NotFound and two or more is the MULTIPLE_PLOTS
// disambiguation error carrying the full open list. Never guesses.
func (r *DocumentRegistry) Resolve(filename string) (*PlotDocument, *CommandError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if filename != "" {
		doc := r.matchLocked(filename)
		if doc == nil {
			return nil, NotFoundError("Plot file %q is not open", filename)
		}
		r.cachedTarget = filename
		return doc, nil
	}

	if r.cachedTarget != "" {
		if doc := r.matchLocked(r.cachedTarget); doc != nil {
			return doc, nil
		}
		// Cached file no longer open; fall through to the ambiguous path.
		r.cachedTarget = ""
	}

	switch len(r.docs) {
	case 0:
		return nil, NotFoundError(NoPlotsOpenMsg)
	case 1:
		// Only explicitly supplied filenames establish the cached
		// target. A lone open document resolves without caching, so
		// opening a second one makes the next ambiguous call
		// disambiguate instead of guessing.
		for _, doc := range r.docs {
			return doc, nil
		}
	}
	return nil, MultiplePlotsError(r.listOpenLocked())
}

// ClearCachedTarget drops the per-session target. Called when the client
// connection that established it disconnects.
func (r *DocumentRegistry) ClearCachedTarget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cachedTarget = ""
}

// matchLocked finds the open document for a loose filename: an exact
// display-name match wins, otherwise a unique path-suffix match. Ambiguous
// suffixes match nothing rather than guessing.
func (r *DocumentRegistry) matchLocked(filename string) *PlotDocument {
	for _, doc := range r.docs {
		if doc.Filename == filename {
			return doc
		}
	}
	var match *PlotDocument
	for _, doc := range r.docs {
		if strings.HasSuffix(doc.Path, filename) {
			if match != nil {
				return nil
			}
			match = doc
		}
	}
	return match
}

func (r *DocumentRegistry) listOpenLocked() []PlotInfo {
	plots := make([]PlotInfo, 0, len(r.docs))
	for _, doc := range r.docs {
		plots = append(plots, doc.Info())
	}
	sort.Slice(plots, func(i, j int) bool {
		return plots[i].Filename < plots[j].Filename
	})
	return plots
}
