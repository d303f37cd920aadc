package models

import "time"

// CitationType classifies a cited source.
type CitationType string

const (
	CiteWebsite CitationType = "WEBSITE"
	CiteJournal CitationType = "JOURNAL"
	CiteBook    CitationType = "BOOK"
	CiteNews    CitationType = "NEWS"
	CiteReport  CitationType = "REPORT"
)

// Citation is a row in the PostgreSQL citations table. The four style
// strings are computed once at insert and stored, never recomputed.
type Citation struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"project_id"`
	Type      CitationType `json:"type"`
	Title     string       `json:"title"`
	Authors   []string     `json:"authors"`
	URL       string       `json:"url,omitempty"`
	Date      string       `json:"date,omitempty"`
	Publisher string       `json:"publisher,omitempty"`
	DOI       string       `json:"doi,omitempty"`
	APA       string       `json:"apa"`
	MLA       string       `json:"mla"`
	Chicago   string       `json:"chicago"`
	IEEE      string       `json:"ieee"`
	CreatedAt time.Time    `json:"created_at"`
}

// CreateCitationRequest is the JSON body for POST /api/projects/{id}/citations.
type CreateCitationRequest struct {
	Type      CitationType `json:"type"`
	Title     string       `json:"title"`
	Authors   []string     `json:"authors"`
	URL       string       `json:"url"`
	Date      string       `json:"date"`
	Publisher string       `json:"publisher"`
	DOI       string       `json:"doi"`
}
