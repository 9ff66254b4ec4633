package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
)

// Dispatcher routes decoded command envelopes to handlers and produces a
// result or a structured error. No handler failure escapes unencoded: the
// outermost boundary converts panics to a generic Internal error and keeps
// the detail in the server log.
type Dispatcher struct {
	registry  *DocumentRegistry
	mutator   *DocumentMutator
	selection *SelectionStore
	state     *StateStore
	notifier  Notifier
	logger    *log.Logger

	handlers map[string]handlerFunc
}

type handlerFunc func(params json.RawMessage) (any, *CommandError)

// NewDispatcher wires the full command table over the given components.
func NewDispatcher(
	registry *DocumentRegistry,
	mutator *DocumentMutator,
	selection *SelectionStore,
	state *StateStore,
	notifier Notifier,
	logger *log.Logger,
) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	d := &Dispatcher{
		registry:  registry,
		mutator:   mutator,
		selection: selection,
		state:     state,
		notifier:  notifier,
		logger:    logger,
	}
	d.handlers = map[string]handlerFunc{
		"get_feature_collection": d.getFeatureCollection,
		"set_feature_collection": d.setFeatureCollection,
		"get_selected_features":  d.getSelectedFeatures,
		"set_selected_features":  d.setSelectedFeatures,
		"update_features":        d.updateFeatures,
		"add_features":           d.addFeatures,
		"delete_features":        d.deleteFeatures,
		"zoom_to_selection":      d.zoomToSelection,
		"list_open_plots":        d.listOpenPlots,
		"notify":                 d.notify,
		"get_time":               d.getTime,
		"set_time":               d.setTime,
		"get_viewport":           d.getViewport,
		"set_viewport":           d.setViewport,
	}
	return d
}

// Execute runs one command to completion and returns its result or error.
// There is no mid-command cancellation; a dispatched handler runs until it
// finishes or fails.
func (d *Dispatcher) Execute(req CommandRequest) (result any, cerr *CommandError) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("Panic in command %q: %v", req.Command, r)
			result = nil
			cerr = InternalError("Internal error while handling command")
		}
	}()

	handler, ok := d.handlers[req.Command]
	if !ok {
		return nil, InvalidInputError("Unknown command %q", req.Command)
	}
	return handler(req.Params)
}

// Dispatch runs one command and encodes the wire response. Exactly one of
// result/error is present in the payload.
func (d *Dispatcher) Dispatch(req CommandRequest) []byte {
	result, cerr := d.Execute(req)
	if cerr != nil {
		return encodeResponse(ErrorResponse{Error: cerr.Wire()})
	}
	return encodeResponse(CommandResponse{Result: result})
}

func encodeResponse(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshal of our own response types cannot fail in practice.
		return []byte(`{"error":{"message":"Internal error encoding response","code":500}}`)
	}
	return data
}

// decodeParams deserializes command params into the handler's typed struct.
// Absent params decode as the zero value.
func decodeParams(raw json.RawMessage, v any) *CommandError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return InvalidInputError("Invalid parameters: %v", err)
	}
	return nil
}
