package models

import "time"

// ProjectStatus is the lifecycle state of a paper project.
type ProjectStatus string

const (
	StatusDraft       ProjectStatus = "DRAFT"
	StatusResearching ProjectStatus = "RESEARCHING"
	StatusWriting     ProjectStatus = "WRITING"
	StatusCompleted   ProjectStatus = "COMPLETED"
	StatusFailed      ProjectStatus = "FAILED"
)

// Project is a row in the PostgreSQL projects table.
type Project struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Title        string        `json:"title"`
	Topic        string        `json:"topic"`
	Preferences  string        `json:"preferences,omitempty"`
	Status       ProjectStatus `json:"status"`
	Outline      string        `json:"outline,omitempty"`
	LatexContent string        `json:"latex_content,omitempty"`
	PDFObjectKey string        `json:"pdf_object_key,omitempty"`
	TexObjectKey string        `json:"tex_object_key,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CreateProjectRequest is the JSON body for POST /api/projects.
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Topic       string `json:"topic"`
	Preferences string `json:"preferences"`
}
