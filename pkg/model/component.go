package model

import "time"

// Component is a structural component extracted from an engineering drawing.
// Piece marks are uppercased at ingestion and never empty; uniqueness holds
// over (drawing_id, piece_mark, instance_identifier).
type Component struct {
	ID                 string    `json:"id"`
	DrawingID          string    `json:"drawing_id"`
	PieceMark          string    `json:"piece_mark"`
	ComponentType      string    `json:"component_type"`
	Description        string    `json:"description,omitempty"`
	MaterialType       string    `json:"material_type,omitempty"`
	InstanceIdentifier string    `json:"instance_identifier,omitempty"`
	ConfidenceScore    *float64  `json:"confidence_score,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Drawing carries the subset of drawing metadata the search core filters on.
type Drawing struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	DrawingType string    `json:"drawing_type,omitempty"`
	FileName    string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ComponentTypes is the fixed catalog of component type values produced by
// the extraction pipeline.
var ComponentTypes = []string{
	"wide_flange",
	"hss",
	"angle",
	"channel",
	"plate",
	"tube",
	"beam",
	"column",
	"brace",
	"girt",
	"truss",
	"generic",
}

// ValidComponentType reports whether t is in the catalog.
func ValidComponentType(t string) bool {
	for _, ct := range ComponentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// ComponentFilter holds the structured (non-text) filters applied to
// component queries. Zero values mean "no filter".
type ComponentFilter struct {
	ComponentType string
	ProjectID     string
	DrawingType   string
}

// IsZero reports whether no filter is set.
func (f ComponentFilter) IsZero() bool {
	return f.ComponentType == "" && f.ProjectID == "" && f.DrawingType == ""
}

// Map returns the filter as a key/value map for response echoing, omitting
// unset fields.
func (f ComponentFilter) Map() map[string]string {
	m := make(map[string]string)
	if f.ComponentType != "" {
		m["component_type"] = f.ComponentType
	}
	if f.ProjectID != "" {
		m["project_id"] = f.ProjectID
	}
	if f.DrawingType != "" {
		m["drawing_type"] = f.DrawingType
	}
	return m
}
