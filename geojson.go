package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// FeatureID is a GeoJSON feature id, which the format allows to be either a
// JSON string or a JSON number. The original form is preserved on re-encode
// so rewriting a document does not alter untouched features.
type FeatureID struct {
	value  string
	number bool
}

// NewFeatureID builds a string-form id.
func NewFeatureID(value string) FeatureID {
	return FeatureID{value: value}
}

// GenerateFeatureID builds a collision-resistant id for features supplied
// without one. ULIDs carry a millisecond timestamp plus random suffix.
func GenerateFeatureID() FeatureID {
	return NewFeatureID("feature-" + strings.ToLower(ulid.Make().String()))
}

// String returns the id in its canonical string form. Numeric ids render as
// their decimal text.
func (id FeatureID) String() string {
	return id.value
}

// IsZero reports whether the id is absent.
func (id FeatureID) IsZero() bool {
	return id.value == ""
}

// Equal compares ids by canonical string form, so numeric 5 and string "5"
// reference the same feature. Clients are not consistent about which form
// they echo back.
func (id FeatureID) Equal(other FeatureID) bool {
	return id.value == other.value
}

func (id FeatureID) MarshalJSON() ([]byte, error) {
	if id.number {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *FeatureID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.value = s
		id.number = false
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		id.value = n.String()
		id.number = true
		return nil
	}
	return fmt.Errorf("feature id must be a string or number, got %s", data)
}

// Geometry is one GeoJSON geometry. Coordinates are kept raw; the bridge
// never needs to interpret individual positions, only the geometry type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

// Feature is one GeoJSON Feature within a plot document.
type Feature struct {
	Type       string         `json:"type"`
	ID         FeatureID      `json:"id,omitzero"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureType returns the classification carried in properties.featureType,
// or "" when absent or not a string.
func (f *Feature) FeatureType() string {
	if f.Properties == nil {
		return ""
	}
	ft, _ := f.Properties["featureType"].(string)
	return ft
}

// FeatureCollection is the content of one plot document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns an empty, valid collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
}

// FindByID returns the index of the feature with the given id, or -1.
func (fc *FeatureCollection) FindByID(id FeatureID) int {
	for i := range fc.Features {
		if fc.Features[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}

// FeatureIDs returns the id of every feature, in document order.
func (fc *FeatureCollection) FeatureIDs() []string {
	ids := make([]string, 0, len(fc.Features))
	for i := range fc.Features {
		ids = append(ids, fc.Features[i].ID.String())
	}
	return ids
}
