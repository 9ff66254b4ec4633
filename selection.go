package main

import (
	"sync"
)

// SelectionStore tracks which feature ids are selected, per document,
// independently of document content. Selection may reference ids no longer
// present in content (e.g. right after an external delete); readers must
// tolerate the dangling ids. Selection is only pruned on document close.
type SelectionStore struct {
	mu       sync.RWMutex
	byDoc    map[string][]string // by document path
	notifier Notifier
}

// NewSelectionStore creates an empty selection store. Changes are announced
// through the given notifier.
func NewSelectionStore(notifier Notifier) *SelectionStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SelectionStore{
		byDoc:    map[string][]string{},
		notifier: notifier,
	}
}

// Get returns the selected ids for a document. The returned slice is a
// copy; order is stable between calls until the next Set.
func (s *SelectionStore) Get(doc *PlotDocument) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDoc[doc.Path]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Set replaces the selection wholesale and announces the change so the
// active UI surface can re-render.
func (s *SelectionStore) Set(doc *PlotDocument, ids []string) {
	stored := make([]string, len(ids))
	copy(stored, ids)

	s.mu.Lock()
	s.byDoc[doc.Path] = stored
	s.mu.Unlock()

	s.notifier.RefreshSelection(doc.Filename, stored)
}

// Restore re-pushes the stored selection to the UI surface. The host calls
// this when a hidden document becomes active again.
func (s *SelectionStore) Restore(doc *PlotDocument) {
	s.mu.RLock()
	ids := s.byDoc[doc.Path]
	out := make([]string, len(ids))
	copy(out, ids)
	s.mu.RUnlock()

	s.notifier.SetSelectionByIDs(doc.Filename, out)
}

// Clear drops the selection for a closed document.
func (s *SelectionStore) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDoc, path)
}
