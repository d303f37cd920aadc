// Package reporttypes serves the read-only report-type configuration:
// which paper formats exist, their section layout, and their LaTeX
// templates.
package reporttypes

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// ReportType describes one configurable paper format.
type ReportType struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Sections    []string `json:"sections"`
	Template    string   `json:"template"`
}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidID reports whether s is a well-formed report-type id.
func ValidID(s string) bool { return idPattern.MatchString(s) }

// Registry holds the loaded report types in definition order.
type Registry struct {
	order []string
	types map[string]ReportType
}

// defaults are served when no config file is provided.
var defaults = []ReportType{
	{
		ID:          "research-paper",
		Name:        "Research Paper",
		Description: "Standard academic research paper with abstract, literature review, and findings.",
		Enabled:     true,
		Sections:    []string{"Abstract", "Introduction", "Literature Review", "Methodology", "Results", "Discussion", "Conclusion", "References"},
		Template:    "\\documentclass{article}\n\\begin{document}\n%s\n\\end{document}\n",
	},
	{
		ID:          "literature-review",
		Name:        "Literature Review",
		Description: "Survey of existing work on a topic.",
		Enabled:     true,
		Sections:    []string{"Introduction", "Thematic Analysis", "Gaps", "Conclusion", "References"},
		Template:    "\\documentclass{article}\n\\begin{document}\n%s\n\\end{document}\n",
	},
	{
		ID:          "case-study",
		Name:        "Case Study",
		Description: "In-depth analysis of a single case.",
		Enabled:     true,
		Sections:    []string{"Background", "Case Description", "Analysis", "Recommendations", "References"},
		Template:    "\\documentclass{report}\n\\begin{document}\n%s\n\\end{document}\n",
	},
	{
		ID:          "thesis-chapter",
		Name:        "Thesis Chapter",
		Description: "Single chapter formatted for inclusion in a thesis.",
		Enabled:     false,
		Sections:    []string{"Introduction", "Body", "Summary"},
		Template:    "\\documentclass{book}\n\\begin{document}\n%s\n\\end{document}\n",
	},
}

// Load builds the registry from a JSON file, or from built-in defaults
// when path is empty.
func Load(path string) (*Registry, error) {
	types := defaults
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("report types config: %w", err)
		}
		types = nil
		if err := json.Unmarshal(data, &types); err != nil {
			return nil, fmt.Errorf("report types config: %w", err)
		}
	}

	r := &Registry{types: make(map[string]ReportType, len(types))}
	for _, t := range types {
		if !ValidID(t.ID) {
			return nil, fmt.Errorf("report types config: bad id %q", t.ID)
		}
		if _, dup := r.types[t.ID]; dup {
			return nil, fmt.Errorf("report types config: duplicate id %q", t.ID)
		}
		r.order = append(r.order, t.ID)
		r.types[t.ID] = t
	}
	return r, nil
}

// Enabled returns the enabled report types in definition order.
func (r *Registry) Enabled() []ReportType {
	out := []ReportType{}
	for _, id := range r.order {
		if t := r.types[id]; t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// All returns every report type, including disabled ones.
func (r *Registry) All() []ReportType {
	out := []ReportType{}
	for _, id := range r.order {
		out = append(out, r.types[id])
	}
	return out
}

// Get returns an enabled report type by id.
func (r *Registry) Get(id string) (ReportType, bool) {
	t, ok := r.types[id]
	if !ok || !t.Enabled {
		return ReportType{}, false
	}
	return t, true
}
