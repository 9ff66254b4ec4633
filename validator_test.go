package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func makeFeature(id, featureType, geometryType string) Feature {
	f := Feature{
		Type:       "Feature",
		Geometry:   &Geometry{Type: geometryType, Coordinates: json.RawMessage(`[0,0]`)},
		Properties: map[string]any{"featureType": featureType},
	}
	if id != "" {
		f.ID = NewFeatureID(id)
	}
	return f
}

func TestClassifyFeature(t *testing.T) {
	tests := []struct {
		featureType string
		want        string
	}{
		{"track", FeatureTypeTrack},
		{"point", FeatureTypePoint},
		{"annotation", FeatureTypeAnnotation},
		{"buoyfield", FeatureTypeUnknown},
		{"", FeatureTypeUnknown},
	}
	for _, tt := range tests {
		f := makeFeature("x", tt.featureType, "Point")
		assert.Equal(t, tt.want, ClassifyFeature(&f))
	}
}

func TestGeometryCompatibility(t *testing.T) {
	tests := []struct {
		featureType  string
		geometryType string
		valid        bool
	}{
		{"track", "LineString", true},
		{"track", "MultiLineString", true},
		{"track", "Point", false},
		{"track", "Polygon", false},
		{"point", "Point", true},
		{"point", "LineString", false},
		{"annotation", "Point", true},
		{"annotation", "LineString", true},
		{"annotation", "Polygon", true},
		{"annotation", "MultiPolygon", true},
		{"annotation", "GeometryCollection", false},
	}
	for _, tt := range tests {
		f := makeFeature("x", tt.featureType, tt.geometryType)
		if got := ValidateFeatureByType(&f); got != tt.valid {
			t.Errorf("%s/%s: got valid=%v, want %v", tt.featureType, tt.geometryType, got, tt.valid)
		}
	}
}

func TestValidateCollectionCountsByClassification(t *testing.T) {
	fc := NewFeatureCollection()
	fc.Features = []Feature{
		makeFeature("a", "track", "LineString"),
		makeFeature("b", "track", "LineString"),
		makeFeature("c", "point", "Point"),
		makeFeature("d", "annotation", "Polygon"),
	}

	result := ValidateFeatureCollection(fc)
	assert.Equal(t, true, result.IsValid)
	assert.Equal(t, 2, result.FeatureCounts[FeatureTypeTrack])
	assert.Equal(t, 1, result.FeatureCounts[FeatureTypePoint])
	assert.Equal(t, 1, result.FeatureCounts[FeatureTypeAnnotation])
}

func TestValidateCollectionRequiresIDs(t *testing.T) {
	fc := NewFeatureCollection()
	fc.Features = []Feature{
		makeFeature("a", "point", "Point"),
		makeFeature("", "point", "Point"),
	}

	result := ValidateFeatureCollection(fc)
	assert.Equal(t, false, result.IsValid)
	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "features[1].id is required") {
			found = true
		}
	}
	assert.Equal(t, true, found)
}

func TestValidateCollectionRejectsDuplicateIDs(t *testing.T) {
	fc := NewFeatureCollection()
	fc.Features = []Feature{
		makeFeature("a", "point", "Point"),
		makeFeature("a", "point", "Point"),
	}

	result := ValidateFeatureCollection(fc)
	assert.Equal(t, false, result.IsValid)
	assert.MatchRegex(t, joinValidationErrors(result.Errors), `features\[1\]\.id "a" duplicates features\[0\]\.id`)
}

func TestValidateBareFeature(t *testing.T) {
	f := Feature{Type: "Feature"}
	errs := validateFeature(&f, "features[0]")
	joined := joinValidationErrors(errs)
	assert.MatchRegex(t, joined, `features\[0\]\.properties is required`)
	assert.MatchRegex(t, joined, `features\[0\]\.geometry is required`)
}

func TestValidateCollectionWrongRootType(t *testing.T) {
	fc := &FeatureCollection{Type: "Feature", Features: []Feature{}}
	result := ValidateFeatureCollection(fc)
	assert.Equal(t, false, result.IsValid)
	assert.MatchRegex(t, result.Errors[0], `type must be "FeatureCollection"`)
}

// String and numeric forms of the same id refer to the same feature.
func TestFeatureIDEquivalence(t *testing.T) {
	var numeric FeatureID
	assert.Equal(t, json.Unmarshal([]byte(`7`), &numeric), nil)
	assert.Equal(t, true, numeric.Equal(NewFeatureID("7")))

	out, err := json.Marshal(numeric)
	assert.Equal(t, err, nil)
	assert.Equal(t, "7", string(out))
}
