package main

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestViewportRejectsOutOfRangeLatitude(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", "")

	_, cerr := rig.run("set_viewport", `{"bounds": [-10, -95, 10, 50]}`)
	if cerr == nil {
		t.Fatal("expected out-of-range error")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
	assert.Equal(t,
		"ViewportState.bounds[1] (south) must be between -90 and 90 degrees, got -95",
		cerr.Message)
}

func TestViewportRejectsOutOfRangeLongitude(t *testing.T) {
	vs := ViewportState{Bounds: []float64{190, -10, 10, 10}}
	cerr := vs.Validate()
	if cerr == nil {
		t.Fatal("expected out-of-range error")
	}
	assert.Equal(t,
		"ViewportState.bounds[0] (west) must be between -180 and 180 degrees, got 190",
		cerr.Message)
}

func TestViewportAcceptsAntimeridianCrossing(t *testing.T) {
	rig := newTestRig()
	doc := rig.open("/plots/plot.plot.json", "")

	// West > east is a legal antimeridian crossing, not an error.
	_, cerr := rig.run("set_viewport", `{"bounds": [170, -10, -170, 10]}`)
	assert.Equal(t, cerr, nil)

	vs, ok := rig.state.Viewport(doc)
	assert.Equal(t, true, ok)
	assert.Equal(t, []float64{170, -10, -170, 10}, vs.Bounds)
}

func TestViewportRejectsWrongElementCount(t *testing.T) {
	vs := ViewportState{Bounds: []float64{1, 2, 3}}
	cerr := vs.Validate()
	if cerr == nil {
		t.Fatal("expected shape error")
	}
	assert.MatchRegex(t, cerr.Message, `exactly 4 elements`)
}

func TestViewportRejectsInvertedLatitudes(t *testing.T) {
	vs := ViewportState{Bounds: []float64{0, 40, 10, -40}}
	cerr := vs.Validate()
	if cerr == nil {
		t.Fatal("expected south > north error")
	}
	assert.MatchRegex(t, cerr.Message, `south.*must not be greater than`)
}

func TestViewportRequiresBoundsParam(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", "")

	_, cerr := rig.run("set_viewport", `{}`)
	if cerr == nil {
		t.Fatal("expected missing bounds error")
	}
	assert.Equal(t, CodeInvalidInput, cerr.Code.Number)
}

func TestTimeStateRoundTrip(t *testing.T) {
	rig := newTestRig()
	rig.open("/plots/plot.plot.json", "")

	// Unset state reads as null.
	result, cerr := rig.run("get_time", "")
	assert.Equal(t, cerr, nil)
	assert.Equal(t, result, nil)

	_, cerr = rig.run("set_time",
		`{"start": "2024-06-01T00:00:00Z", "current": "2024-06-01T12:00:00Z", "end": "2024-06-02T00:00:00Z"}`)
	assert.Equal(t, cerr, nil)

	result, cerr = rig.run("get_time", "")
	assert.Equal(t, cerr, nil)
	ts := result.(TimeState)
	assert.Equal(t, "2024-06-01T12:00:00Z", ts.Current)
}

func TestTimeStateRejectsBadTimestamp(t *testing.T) {
	ts := TimeState{Current: "yesterday"}
	cerr := ts.Validate()
	if cerr == nil {
		t.Fatal("expected parse error")
	}
	assert.Equal(t,
		`TimeState.current must be an ISO-8601 timestamp, got "yesterday"`,
		cerr.Message)
}

func TestTimeStateRejectsInvertedRange(t *testing.T) {
	ts := TimeState{Start: "2024-06-02T00:00:00Z", End: "2024-06-01T00:00:00Z"}
	cerr := ts.Validate()
	if cerr == nil {
		t.Fatal("expected ordering error")
	}
	assert.MatchRegex(t, cerr.Message, `TimeState.start .* must not be after TimeState.end`)
}

func TestTimeStateRejectsCurrentOutsideRange(t *testing.T) {
	ts := TimeState{
		Start:   "2024-06-01T00:00:00Z",
		Current: "2024-06-05T00:00:00Z",
		End:     "2024-06-02T00:00:00Z",
	}
	cerr := ts.Validate()
	if cerr == nil {
		t.Fatal("expected range error")
	}
	assert.MatchRegex(t, cerr.Message, `TimeState.current .* must not be after TimeState.end`)
}

func TestPartialTimeStateAllowed(t *testing.T) {
	ts := TimeState{Current: "2024-06-01T12:00:00Z"}
	assert.Equal(t, ts.Validate(), nil)

	empty := TimeState{}
	assert.Equal(t, empty.Validate(), nil)
}
