package main

import (
	"encoding/json"
)

// Extended state commands: read/write the auxiliary per-plot slices (time
// range, map viewport) that live beside the document content.

type setTimeParams struct {
	Filename string `json:"filename"`
	Current  string `json:"current"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type setViewportParams struct {
	Filename string     `json:"filename"`
	Bounds   *[]float64 `json:"bounds"`
}

func (d *Dispatcher) getTime(raw json.RawMessage) (any, *CommandError) {
	var params targetParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	ts, ok := d.state.Time(doc)
	if !ok {
		return nil, nil
	}
	return ts, nil
}

func (d *Dispatcher) setTime(raw json.RawMessage) (any, *CommandError) {
	var params setTimeParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	ts := TimeState{
		Current: params.Current,
		Start:   params.Start,
		End:     params.End,
	}
	if cerr := d.state.SetTime(doc, ts); cerr != nil {
		return nil, cerr
	}
	return nil, nil
}

func (d *Dispatcher) getViewport(raw json.RawMessage) (any, *CommandError) {
	var params targetParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	vs, ok := d.state.Viewport(doc)
	if !ok {
		return nil, nil
	}
	return vs, nil
}

func (d *Dispatcher) setViewport(raw json.RawMessage) (any, *CommandError) {
	var params setViewportParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if params.Bounds == nil {
		return nil, InvalidInputError("set_viewport.bounds is required and must be an array of 4 numbers")
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := d.state.SetViewport(doc, ViewportState{Bounds: *params.Bounds}); cerr != nil {
		return nil, cerr
	}
	return nil, nil
}
