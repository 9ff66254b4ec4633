package main

import (
	"io"
	"log"
)

// Notifier pushes UI-refresh events to whichever surface currently owns the
// plot. Calls are fire-and-forget; no acknowledgement is expected and the
// core never depends on a concrete UI technology.
type Notifier interface {
	// RefreshSelection announces that the selection for a plot changed.
	RefreshSelection(filename string, ids []string)

	// ZoomToSelection asks the surface to fit its view to the selection.
	ZoomToSelection(filename string, ids []string)

	// SetSelectionByIDs re-pushes a stored selection to a surface that
	// just became active.
	SetSelectionByIDs(filename string, ids []string)

	// ShowMessage displays a user-facing message.
	ShowMessage(message string)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) RefreshSelection(string, []string)  {}
func (NopNotifier) ZoomToSelection(string, []string)   {}
func (NopNotifier) SetSelectionByIDs(string, []string) {}
func (NopNotifier) ShowMessage(string)                 {}

// LogNotifier writes every event to the server log. Used in test mode and
// as the fallback when no UI surface is attached.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier over the given logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RefreshSelection(filename string, ids []string) {
	n.logger.Printf("refreshSelection %q: %v", filename, ids)
}

func (n *LogNotifier) ZoomToSelection(filename string, ids []string) {
	n.logger.Printf("zoomToSelection %q: %v", filename, ids)
}

func (n *LogNotifier) SetSelectionByIDs(filename string, ids []string) {
	n.logger.Printf("setSelectionByIds %q: %v", filename, ids)
}

func (n *LogNotifier) ShowMessage(message string) {
	n.logger.Printf("notify: %s", message)
}

// UIEvent is the JSON shape a broadcast notifier pushes to attached
// surfaces.
type UIEvent struct {
	Type     string   `json:"type"`
	Filename string   `json:"filename,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// multiNotifier fans one event out to several notifiers.
type multiNotifier []Notifier

func (m multiNotifier) RefreshSelection(filename string, ids []string) {
	for _, n := range m {
		n.RefreshSelection(filename, ids)
	}
}

func (m multiNotifier) ZoomToSelection(filename string, ids []string) {
	for _, n := range m {
		n.ZoomToSelection(filename, ids)
	}
}

func (m multiNotifier) SetSelectionByIDs(filename string, ids []string) {
	for _, n := range m {
		n.SetSelectionByIDs(filename, ids)
	}
}

func (m multiNotifier) ShowMessage(message string) {
	for _, n := range m {
		n.ShowMessage(message)
	}
}

// CombineNotifiers builds a notifier that forwards to all of the given
// notifiers in order.
func CombineNotifiers(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}
