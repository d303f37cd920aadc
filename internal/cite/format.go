// Package cite formats citations in the four supported styles. The
// formatted strings are computed once when a citation is created and
// stored with it, never recomputed per display.
package cite

import (
	"fmt"
	"strings"

	"github.com/paperstudio/backend/internal/models"
)

// nameParts splits "Ada Lovelace" into given names and family name.
func nameParts(full string) (given, family string) {
	fields := strings.Fields(strings.TrimSpace(full))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return "", fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

func initials(given string) string {
	var out []string
	for _, part := range strings.Fields(given) {
		out = append(out, strings.ToUpper(part[:1])+".")
	}
	return strings.Join(out, " ")
}

func year(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return "n.d."
}

// apaAuthors renders "Lovelace, A., & Turing, A."
func apaAuthors(authors []string) string {
	var parts []string
	for _, a := range authors {
		given, family := nameParts(a)
		if given == "" {
			parts = append(parts, family)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s, %s", family, initials(given)))
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", & " + parts[len(parts)-1]
	}
}

// proseAuthors renders "Lovelace, Ada, and Alan Turing" (MLA/Chicago).
func proseAuthors(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	given, family := nameParts(authors[0])
	first := family
	if given != "" {
		first = family + ", " + given
	}
	if len(authors) == 1 {
		return first
	}
	if len(authors) > 2 {
		return first + ", et al"
	}
	return first + ", and " + authors[1]
}

// ieeeAuthors renders "A. Lovelace and A. Turing".
func ieeeAuthors(authors []string) string {
	var parts []string
	for _, a := range authors {
		given, family := nameParts(a)
		if given == "" {
			parts = append(parts, family)
			continue
		}
		parts = append(parts, initials(given)+" "+family)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func appendIf(b *strings.Builder, s, suffix string) {
	if s != "" {
		b.WriteString(s)
		b.WriteString(suffix)
	}
}

// APA formats the citation in APA style.
func APA(c models.CreateCitationRequest) string {
	var b strings.Builder
	appendIf(&b, apaAuthors(c.Authors), " ")
	fmt.Fprintf(&b, "(%s). ", year(c.Date))
	fmt.Fprintf(&b, "%s. ", c.Title)
	appendIf(&b, c.Publisher, ". ")
	if c.DOI != "" {
		b.WriteString("https://doi.org/" + c.DOI)
	} else {
		b.WriteString(c.URL)
	}
	return strings.TrimSpace(b.String())
}

// MLA formats the citation in MLA style.
func MLA(c models.CreateCitationRequest) string {
	var b strings.Builder
	appendIf(&b, proseAuthors(c.Authors), ". ")
	fmt.Fprintf(&b, "\"%s.\" ", c.Title)
	appendIf(&b, c.Publisher, ", ")
	appendIf(&b, c.Date, ", ")
	b.WriteString(c.URL)
	return strings.TrimRight(strings.TrimSpace(b.String()), ",")
}

// Chicago formats the citation in Chicago style.
func Chicago(c models.CreateCitationRequest) string {
	var b strings.Builder
	appendIf(&b, proseAuthors(c.Authors), ". ")
	fmt.Fprintf(&b, "\"%s.\" ", c.Title)
	appendIf(&b, c.Publisher, ". ")
	appendIf(&b, c.Date, ". ")
	b.WriteString(c.URL)
	return strings.TrimSpace(b.String())
}

// IEEE formats the citation in IEEE style.
func IEEE(c models.CreateCitationRequest) string {
	var b strings.Builder
	appendIf(&b, ieeeAuthors(c.Authors), ", ")
	fmt.Fprintf(&b, "\"%s,\" ", c.Title)
	appendIf(&b, c.Publisher, ", ")
	b.WriteString(year(c.Date) + ".")
	if c.URL != "" {
		b.WriteString(" [Online]. Available: " + c.URL)
	}
	return strings.TrimSpace(b.String())
}

// All computes the four stored style strings for a new citation.
func All(c models.CreateCitationRequest) (apa, mla, chicago, ieee string) {
	return APA(c), MLA(c), Chicago(c), IEEE(c)
}
