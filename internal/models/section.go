package models

import "time"

// SectionType classifies a report section's content.
type SectionType string

const (
	SectionText   SectionType = "TEXT"
	SectionTable  SectionType = "TABLE"
	SectionChart  SectionType = "CHART"
	SectionFigure SectionType = "FIGURE"
	SectionCode   SectionType = "CODE"
)

// Section is one ordered unit of a report's document, stored in PostgreSQL.
// Positions within a report are always a dense 1..N sequence.
type Section struct {
	ID        string      `json:"id"`
	ReportID  string      `json:"report_id"`
	Position  int         `json:"position"`
	Type      SectionType `json:"type"`
	Content   string      `json:"content"`
	Metadata  string      `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateSectionRequest is the JSON body for POST /api/sections/{reportID}.
type CreateSectionRequest struct {
	Type     SectionType `json:"type"`
	Content  string      `json:"content"`
	Metadata string      `json:"metadata"`
}

// UpdateSectionRequest is the JSON body for PUT /api/sections/{reportID}/{sectionID}.
type UpdateSectionRequest struct {
	Content string `json:"content"`
}

// ReorderRequest is the JSON body for POST /api/sections/{reportID}/reorder.
// IDs must be exactly the report's current section ids in their new order.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}
