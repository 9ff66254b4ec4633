package main

import (
	"encoding/json"
	"fmt"
)

// targetParams is the common optional-filename shape shared by most
// commands; the filename resolves through the registry.
type targetParams struct {
	Filename string `json:"filename"`
}

type setCollectionParams struct {
	Filename string          `json:"filename"`
	Data     json.RawMessage `json:"data"`
}

type selectionParams struct {
	Filename string       `json:"filename"`
	IDs      *[]FeatureID `json:"ids"`
}

type featuresParams struct {
	Filename string            `json:"filename"`
	Features []json.RawMessage `json:"features"`
}

type idsParams struct {
	Filename string      `json:"filename"`
	IDs      []FeatureID `json:"ids"`
}

type notifyParams struct {
	Message *string `json:"message"`
}

func (d *Dispatcher) getFeatureCollection(raw json.RawMessage) (any, *CommandError) {
	var params targetParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	return d.mutator.Read(doc)
}

func (d *Dispatcher) setFeatureCollection(raw json.RawMessage) (any, *CommandError) {
	var params setCollectionParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if len(params.Data) == 0 {
		return nil, InvalidInputError("set_feature_collection.data is required")
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}

	var fc FeatureCollection
	if err := json.Unmarshal(params.Data, &fc); err != nil {
		return nil, InvalidInputError("set_feature_collection.data is not a FeatureCollection: %v", err)
	}
	if fc.Features == nil {
		fc.Features = []Feature{}
	}

	// The whole caller-supplied collection must validate before anything
	// touches the document; on failure the content stays untouched.
	result := ValidateFeatureCollection(&fc)
	if !result.IsValid {
		return nil, InvalidInputError("FeatureCollection failed validation: %s",
			joinValidationErrors(result.Errors))
	}
	if cerr := d.mutator.Replace(doc, &fc); cerr != nil {
		return nil, cerr
	}
	return nil, nil
}

func (d *Dispatcher) getSelectedFeatures(raw json.RawMessage) (any, *CommandError) {
	var params targetParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	fc, cerr := d.mutator.Read(doc)
	if cerr != nil {
		return nil, cerr
	}

	selected := map[string]bool{}
	for _, id := range d.selection.Get(doc) {
		selected[id] = true
	}
	// Dangling selected ids (deleted since selection was set) simply do
	// not match any feature.
	features := []Feature{}
	for i := range fc.Features {
		if selected[fc.Features[i].ID.String()] {
			features = append(features, fc.Features[i])
		}
	}
	return features, nil
}

func (d *Dispatcher) setSelectedFeatures(raw json.RawMessage) (any, *CommandError) {
	var params selectionParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if params.IDs == nil {
		return nil, InvalidInputError("set_selected_features.ids is required and must be an array of feature ids")
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}

	ids := make([]string, 0, len(*params.IDs))
	for _, id := range *params.IDs {
		ids = append(ids, id.String())
	}
	d.selection.Set(doc, ids)
	return nil, nil
}

func (d *Dispatcher) updateFeatures(raw json.RawMessage) (any, *CommandError) {
	var params featuresParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if len(params.Features) == 0 {
		return nil, InvalidInputError("update_features.features is required and must be a non-empty array")
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}

	features, cerr := decodeFeatures(params.Features)
	if cerr != nil {
		return nil, cerr
	}
	for i := range features {
		if features[i].ID.IsZero() {
			return nil, InvalidInputError("features[%d].id is required to update a feature", i)
		}
	}

	updated := 0
	skipped := []string{}
	cerr = d.mutator.Update(doc, func(fc *FeatureCollection) *CommandError {
		for i := range features {
			idx := fc.FindByID(features[i].ID)
			if idx < 0 {
				d.logger.Printf("Warning: update_features: no feature with id %q in %q, skipping",
					features[i].ID.String(), doc.Filename)
				skipped = append(skipped, features[i].ID.String())
				continue
			}
			fc.Features[idx] = features[i]
			updated++
		}
		return nil
	})
	if cerr != nil {
		return nil, cerr
	}
	return map[string]any{"updated": updated, "skipped": skipped}, nil
}

func (d *Dispatcher) addFeatures(raw json.RawMessage) (any, *CommandError) {
	var params featuresParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if len(params.Features) == 0 {
		return nil, InvalidInputError("add_features.features is required and must be a non-empty array")
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}

	features, cerr := decodeFeatures(params.Features)
	if cerr != nil {
		return nil, cerr
	}

	added := []string{}
	cerr = d.mutator.Update(doc, func(fc *FeatureCollection) *CommandError {
		for i := range features {
			if features[i].ID.IsZero() {
				features[i].ID = GenerateFeatureID()
			} else if fc.FindByID(features[i].ID) >= 0 {
				return InvalidInputError("features[%d].id %q already exists in %q",
					i, features[i].ID.String(), doc.Filename)
			}
			fc.Features = append(fc.Features, features[i])
			added = append(added, features[i].ID.String())
		}
		return nil
	})
	if cerr != nil {
		return nil, cerr
	}
	return map[string]any{"added": added}, nil
}

func (d *Dispatcher) deleteFeatures(raw json.RawMessage) (any, *CommandError) {
	var params idsParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}

	doomed := map[string]bool{}
	for _, id := range params.IDs {
		doomed[id.String()] = true
	}

	deleted := 0
	cerr = d.mutator.Update(doc, func(fc *FeatureCollection) *CommandError {
		kept := fc.Features[:0]
		for i := range fc.Features {
			if doomed[fc.Features[i].ID.String()] {
				deleted++
				continue
			}
			kept = append(kept, fc.Features[i])
		}
		fc.Features = kept
		return nil
	})
	if cerr != nil {
		return nil, cerr
	}
	return map[string]any{"deleted": deleted}, nil
}

func (d *Dispatcher) zoomToSelection(raw json.RawMessage) (any, *CommandError) {
	var params targetParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	doc, cerr := d.registry.Resolve(params.Filename)
	if cerr != nil {
		return nil, cerr
	}
	d.notifier.ZoomToSelection(doc.Filename, d.selection.Get(doc))
	return nil, nil
}

func (d *Dispatcher) listOpenPlots(json.RawMessage) (any, *CommandError) {
	return d.registry.ListOpen(), nil
}

func (d *Dispatcher) notify(raw json.RawMessage) (any, *CommandError) {
	var params notifyParams
	if cerr := decodeParams(raw, &params); cerr != nil {
		return nil, cerr
	}
	if params.Message == nil {
		return nil, InvalidInputError("notify.message is required and must be a string")
	}
	d.notifier.ShowMessage(*params.Message)
	return nil, nil
}

// decodeFeatures unmarshals and individually validates caller-supplied
// features, with errors naming the failing array index.
func decodeFeatures(raw []json.RawMessage) ([]Feature, *CommandError) {
	features := make([]Feature, len(raw))
	for i := range raw {
		if err := json.Unmarshal(raw[i], &features[i]); err != nil {
			return nil, InvalidInputError("features[%d] is not a valid Feature: %v", i, err)
		}
		if errs := validateFeature(&features[i], fmt.Sprintf("features[%d]", i)); len(errs) > 0 {
			return nil, InvalidInputError("%s", joinValidationErrors(errs))
		}
	}
	return features, nil
}
