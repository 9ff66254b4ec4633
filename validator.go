package main

import (
	"fmt"
	"strings"
)

// ValidationResult is the outcome of validating a candidate
// FeatureCollection: overall verdict, field-precise error messages, and a
// count of features per classification.
type ValidationResult struct {
	IsValid       bool           `json:"isValid"`
	Errors        []string       `json:"errors"`
	FeatureCounts map[string]int `json:"featureCounts"`
}

// geometryByFeatureType maps each classification to the geometry types it
// accepts.
var geometryByFeatureType = map[string]map[string]bool{
	FeatureTypeTrack: {
		"LineString":      true,
		"MultiLineString": true,
	},
	FeatureTypePoint: {
		"Point": true,
	},
	FeatureTypeAnnotation: {
		"Point":           true,
		"MultiPoint":      true,
		"LineString":      true,
		"MultiLineString": true,
		"Polygon":         true,
		"MultiPolygon":    true,
	},
}

// ClassifyFeature returns the feature's classification, or "unknown" when
// properties.featureType is absent or not a recognized value.
func ClassifyFeature(f *Feature) string {
	ft := f.FeatureType()
	if _, ok := geometryByFeatureType[ft]; ok {
		return ft
	}
	return FeatureTypeUnknown
}

// ValidateFeatureByType reports whether the feature is structurally valid
// for its declared classification.
func ValidateFeatureByType(f *Feature) bool {
	return len(validateFeature(f, "feature")) == 0
}

// validateFeature checks one feature and returns field-precise error
// messages, each prefixed with the given path (e.g. "features[3]").
// Presence of an id is a collection-level concern and is not checked here,
// so features submitted to add_features before id generation still pass.
func validateFeature(f *Feature, path string) []string {
	var errs []string

	if f.Type != "Feature" {
		errs = append(errs, fmt.Sprintf("%s.type must be \"Feature\", got %q", path, f.Type))
	}
	if f.Properties == nil {
		errs = append(errs, fmt.Sprintf("%s.properties is required", path))
	}
	if f.Geometry == nil {
		errs = append(errs, fmt.Sprintf("%s.geometry is required", path))
	}
	if f.Properties == nil || f.Geometry == nil {
		return errs
	}

	ft := f.FeatureType()
	allowed, known := geometryByFeatureType[ft]
	if !known {
		errs = append(errs, fmt.Sprintf(
			"%s.properties.featureType must be one of \"track\", \"point\", \"annotation\", got %q",
			path, ft))
		return errs
	}
	if !allowed[f.Geometry.Type] {
		errs = append(errs, fmt.Sprintf(
			"%s.geometry.type %q is not valid for featureType %q (allowed: %s)",
			path, f.Geometry.Type, ft, allowedGeometryList(ft)))
	}
	return errs
}

func allowedGeometryList(featureType string) string {
	switch featureType {
	case FeatureTypeTrack:
		return "LineString, MultiLineString"
	case FeatureTypePoint:
		return "Point"
	case FeatureTypeAnnotation:
		return "Point, MultiPoint, LineString, MultiLineString, Polygon, MultiPolygon"
	}
	return ""
}

// ValidateFeatureCollection validates a whole candidate collection. Every
// feature must be individually valid, carry an id, and ids must be unique
// within the collection.
func ValidateFeatureCollection(fc *FeatureCollection) ValidationResult {
	result := ValidationResult{
		FeatureCounts: map[string]int{},
	}

	if fc.Type != "FeatureCollection" {
		result.Errors = append(result.Errors,
			fmt.Sprintf("type must be \"FeatureCollection\", got %q", fc.Type))
	}

	seen := map[string]int{}
	for i := range fc.Features {
		f := &fc.Features[i]
		path := fmt.Sprintf("features[%d]", i)

		result.Errors = append(result.Errors, validateFeature(f, path)...)
		result.FeatureCounts[ClassifyFeature(f)]++

		if f.ID.IsZero() {
			result.Errors = append(result.Errors, fmt.Sprintf("%s.id is required", path))
			continue
		}
		if prev, dup := seen[f.ID.String()]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"%s.id %q duplicates features[%d].id", path, f.ID.String(), prev))
			continue
		}
		seen[f.ID.String()] = i
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// joinValidationErrors flattens validator messages into one wire message.
func joinValidationErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
