// Package categories maps the fixed set of user-facing complaint
// categories to live Department records. Resolution never fails and
// never blocks a submission: an unmatched category degrades to the
// first department in the list, and an empty list degrades to a
// synthetic record carrying only the canonical name. The result is
// tagged so callers can log degraded resolutions instead of masking
// them.
package categories

import (
	"strings"

	"github.com/crewvoice/crewvoice/internal/domain/models"
)

// Category labels shown to users. The canonical department-name strings
// differ cosmetically, so resolution goes through a fixed table.
const (
	CategoryGeneral        = "General"
	CategoryHR             = "HR"
	CategoryTechnical      = "Technical"
	CategoryFinance        = "Finance"
	CategoryAdministrative = "Administrative"
	CategoryIT             = "IT"
)

// canonicalNames translates a category label into the department name
// it should be routed to.
var canonicalNames = map[string]string{
	CategoryGeneral:        "General",
	CategoryHR:             "Human Resources",
	CategoryTechnical:      "Technical Support",
	CategoryFinance:        "Finance",
	CategoryAdministrative: "Administration",
	CategoryIT:             "IT Services",
}

// Kind classifies how a resolution was satisfied.
type Kind int

const (
	// Matched means a department matched the canonical name.
	Matched Kind = iota
	// Fallback means no department matched and the first in the list
	// was chosen.
	Fallback
	// Synthetic means the department list was empty and a minimal
	// record carrying only the canonical name was fabricated.
	Synthetic
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Fallback:
		return "fallback"
	default:
		return "synthetic"
	}
}

// Resolution is the outcome of resolving a category against a
// department list.
type Resolution struct {
	Kind          Kind
	CanonicalName string
	Department    models.DepartmentSnapshot
}

// Degraded reports whether the resolution did not find a real match.
func (r Resolution) Degraded() bool { return r.Kind != Matched }

// CanonicalName returns the department-name string for a category
// label. Unknown labels map to themselves so free-form categories still
// resolve somewhere.
func CanonicalName(category string) string {
	if name, ok := canonicalNames[category]; ok {
		return name
	}
	for label, name := range canonicalNames {
		if strings.EqualFold(label, category) {
			return name
		}
	}
	return category
}

// Resolve maps a category label to the best-matching department from
// the caller's already-loaded active department list.
//
// Matching is case-insensitive and bidirectional: a department matches
// when its name contains the canonical name or the canonical name
// contains the department name.
func Resolve(category string, departments []models.Department) Resolution {
	name := CanonicalName(category)
	target := strings.ToLower(name)

	for _, d := range departments {
		dn := strings.ToLower(d.Name)
		if dn == target || strings.Contains(dn, target) || strings.Contains(target, dn) {
			return Resolution{Kind: Matched, CanonicalName: name, Department: snapshot(d)}
		}
	}

	if len(departments) > 0 {
		return Resolution{Kind: Fallback, CanonicalName: name, Department: snapshot(departments[0])}
	}

	return Resolution{
		Kind:          Synthetic,
		CanonicalName: name,
		Department: models.DepartmentSnapshot{
			Name:          name,
			SanitizedName: Sanitize(name),
		},
	}
}

func snapshot(d models.Department) models.DepartmentSnapshot {
	return models.DepartmentSnapshot{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		SanitizedName: d.SanitizedName,
		Roles:         d.Roles,
		MemberCount:   d.MemberCount,
	}
}

// Sanitize converts a display name into a lookup-safe key usable as a
// path segment: lower-cased, with runs of non-alphanumerics collapsed
// to single underscores.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := true // trim leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
