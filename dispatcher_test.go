package main

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
)

// recordingNotifier captures fan-out events for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	events   []UIEvent
	messages []string
}

func (n *recordingNotifier) record(event UIEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) RefreshSelection(filename string, ids []string) {
	n.record(UIEvent{Type: "refreshSelection", Filename: filename, IDs: ids})
}

func (n *recordingNotifier) ZoomToSelection(filename string, ids []string) {
	n.record(UIEvent{Type: "zoomToSelection", Filename: filename, IDs: ids})
}

func (n *recordingNotifier) SetSelectionByIDs(filename string, ids []string) {
	n.record(UIEvent{Type: "setSelectionByIds", Filename: filename, IDs: ids})
}

func (n *recordingNotifier) ShowMessage(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		types = append(types, ev.Type)
	}
	return types
}

// testRig is one independent component graph over an in-memory store.
type testRig struct {
	store      *MemoryDocumentStore
	registry   *DocumentRegistry
	mutator    *DocumentMutator
	selection  *SelectionStore
	state      *StateStore
	notifier   *recordingNotifier
	dispatcher *Dispatcher
}

func newTestRig() *testRig {
	store := NewMemoryDocumentStore()
	registry := NewDocumentRegistry(nil)
	mutator := NewDocumentMutator(store, nil)
	state := NewStateStore()
	notifier := &recordingNotifier{}
	selection := NewSelectionStore(notifier)

	registry.OnClose(func(path string) {
		selection.Clear(path)
		state.Clear(path)
		mutator.Forget(path)
	})

	return &testRig{
		store:      store,
		registry:   registry,
		mutator:    mutator,
		selection:  selection,
		state:      state,
		notifier:   notifier,
		dispatcher: NewDispatcher(registry, mutator, selection, state, notifier, nil),
	}
}

func (r *testRig) open(path, content string) *PlotDocument {
	r.store.Put(path, content)
	return r.registry.Open(path)
}

func (r *testRig) run(command, params string) (any, *CommandError) {
	var raw json.RawMessage
	if params != "" {
		raw = json.RawMessage(params)
	}
	return r.dispatcher.Execute(CommandRequest{Command: command, Params: raw})
}

const twoFeaturePlot = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "alpha", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"featureType": "track"}},
    {"type": "Feature", "id": "bravo", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"featureType": "point"}}
  ]
}`

func TestAddThenGet(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/empty.plot.json", "")

	result, cerr := rig.run("add_features",
		`{"features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"featureType": "point"}}]}`)
	assert.Equal(t, cerr, nil)

	added := result.(map[string]any)["added"].([]string)
	assert.Equal(t, 1, len(added))
	assert.NotEqual(t, "", added[0])

	result, cerr = rig.run("get_feature_collection", "")
	assert.Equal(t, cerr, nil)
	fc := result.(*FeatureCollection)
	assert.Equal(t, 1, len(fc.Features))
	assert.Equal(t, added[0], fc.Features[0].ID.String())
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateFeatureID().String()
		if seen[id] {
			t.Fatalf("generated duplicate feature id %q", id)
		}
		seen[id] = true
	}
}

func TestDeleteFeaturesIsSetSubtraction(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	result, cerr := rig.run("delete_features", `{"ids": ["alpha", "missing"]}`)
	assert.Equal(t, cerr, nil)
	assert.Equal(t, 1, result.(map[string]any)["deleted"])

	got, cerr := rig.run("get_feature_collection", "")
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []string{"bravo"}, got.(*FeatureCollection).FeatureIDs())

	// Deleting the same set again is a no-op.
	result, cerr = rig.run("delete_features", `{"ids": ["alpha", "missing"]}`)
	assert.Equal(t, cerr, nil)
	assert.Equal(t, 0, result.(map[string]any)["deleted"])

	got, cerr = rig.run("get_feature_collection", "")
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []string{"bravo"}, got.(*FeatureCollection).FeatureIDs())
}

func TestUpdateFeaturesSkipsUnmatchedIDs(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	result, cerr := rig.run("update_features",
		`{"features": [
			{"type": "Feature", "id": "bravo", "geometry": {"type": "Point", "coordinates": [9, 9]}, "properties": {"featureType": "point", "name": "moved"}},
			{"type": "Feature", "id": "ghost", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"featureType": "point"}}
		]}`)
	assert.Equal(t, cerr, nil)
	out := result.(map[string]any)
	assert.Equal(t, 1, out["updated"])
	assert.Equal(t, []string{"ghost"}, out["skipped"])

	got, _ := rig.run("get_feature_collection", "")
	fc := got.(*FeatureCollection)
	idx := fc.FindByID(NewFeatureID("bravo"))
	assert.Equal(t, "moved", fc.Features[idx].Properties["name"])
}

func TestUpdateFeaturesRejectsInvalidFeature(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	// A track cannot carry Point geometry.
	_, cerr := rig.run("update_features",
		`{"features": [{"type": "Feature", "id": "alpha", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"featureType": "track"}}]}`)
	if cerr == nil {
		t.Fatal("expected validation error")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
	assert.MatchRegex(t, cerr.Message, `features\[0\]\.geometry\.type`)
}

func TestSetFeatureCollectionInvalidRejectedWhole(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	_, cerr := rig.run("set_feature_collection",
		`{"data": {"type": "FeatureCollection", "features": [{"type": "Feature"}]}}`)
	if cerr == nil {
		t.Fatal("expected validation error")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)

	// Content unchanged from before the call.
	got, cerr := rig.run("get_feature_collection", "")
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []string{"alpha", "bravo"}, got.(*FeatureCollection).FeatureIDs())
}

func TestSetFeatureCollectionReplacesContent(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	_, cerr := rig.run("set_feature_collection",
		`{"data": {"type": "FeatureCollection", "features": [
			{"type": "Feature", "id": "charlie", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": {"featureType": "point"}}
		]}}`)
	assert.Equal(t, cerr, nil)

	got, _ := rig.run("get_feature_collection", "")
	assert.Equal(t, []string{"charlie"}, got.(*FeatureCollection).FeatureIDs())
}

func TestSelectionRoundTrip(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	_, cerr := rig.run("set_selected_features", `{"ids": ["bravo", "dangling"]}`)
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []string{"refreshSelection"}, rig.notifier.eventTypes())

	// Dangling ids are tolerated; only matching features come back.
	result, cerr := rig.run("get_selected_features", "")
	assert.Equal(t, cerr, nil)
	features := result.([]Feature)
	assert.Equal(t, 1, len(features))
	assert.Equal(t, "bravo", features[0].ID.String())
}

func TestRestoreRepushesStoredSelection(t *testing.T) {
	rig := newTestRig()
	doc := rig.open("/plots/plot.plot.json", twoFeaturePlot)

	rig.selection.Set(doc, []string{"alpha"})

	// The host calls Restore when a hidden plot becomes active again; the
	// stored selection goes back out as a setSelectionByIds push.
	rig.selection.Restore(doc)
	assert.Equal(t, []string{"refreshSelection", "setSelectionByIds"}, rig.notifier.eventTypes())

	last := rig.notifier.events[len(rig.notifier.events)-1]
	assert.Equal(t, []string{"alpha"}, last.IDs)
	assert.Equal(t, "plot.plot.json", last.Filename)
}

func TestSetSelectedFeaturesRequiresIDs(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	_, cerr := rig.run("set_selected_features", `{}`)
	if cerr == nil {
		t.Fatal("expected error for missing ids")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
}

func TestZoomToSelectionNotifies(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)
	rig.selection.Set(rig.registry.Open("/plots/plot.plot.json"), []string{"alpha"})

	_, cerr := rig.run("zoom_to_selection", "")
	assert.Equal(t, cerr, nil)

	types := rig.notifier.eventTypes()
	assert.Equal(t, "zoomToSelection", types[len(types)-1])
}

func TestNotifyRequiresMessage(t *testing.T) {
	rig := newTestRig()

	_, cerr := rig.run("notify", `{}`)
	if cerr == nil {
		t.Fatal("expected error for missing message")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)

	_, cerr = rig.run("notify", `{"message": "analysis complete"}`)
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []string{"analysis complete"}, rig.notifier.messages)
}

func TestUnknownCommand(t *testing.T) {
	rig := newTestRig()

	_, cerr := rig.run("frobnicate", "")
	if cerr == nil {
		t.Fatal("expected error for unknown command")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
}

func TestListOpenPlots(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/pacific.plot.json", "")
	rig.open("/plots/atlantic.plot.json", "")

	result, cerr := rig.run("list_open_plots", "")
	assert.Equal(t, cerr, nil)
	assert.Equal(t, []PlotInfo{
		{Filename: "atlantic.plot.json", Title: "atlantic"},
		{Filename: "pacific.plot.json", Title: "pacific"},
	}, result)
}

func TestAddFeatureRejectsDuplicateID(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", twoFeaturePlot)

	_, cerr := rig.run("add_features",
		`{"features": [{"type": "Feature", "id": "alpha", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"featureType": "annotation"}}]}`)
	if cerr == nil {
		t.Fatal("expected duplicate id error")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
	assert.MatchRegex(t, cerr.Message, `already exists`)
}

func TestCloseClearsSelectionAndState(t *testing.T) {
	rig := newTestRig()
	doc := rig.open("/plots/plot.plot.json", twoFeaturePlot)

	rig.selection.Set(doc, []string{"alpha"})
	rig.state.SetTime(doc, TimeState{Current: "2024-06-01T12:00:00Z"})
	rig.registry.Close(doc.Path)

	reopened := rig.open("/plots/plot.plot.json", twoFeaturePlot)
	assert.Equal(t, 0, len(rig.selection.Get(reopened)))
	_, ok := rig.state.Time(reopened)
	assert.Equal(t, false, ok)
}
