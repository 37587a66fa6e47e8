// Package classify computes the derived complaint fields that are
// frozen at creation time: the numeric priority, the human-readable
// resolution estimate, the tag list, and the search-term list used by
// the naive search index.
package classify

import (
	"strings"

	"github.com/crewvoice/crewvoice/internal/domain/models"
)

const maxTags = 10

// stopwords excluded from tag extraction. Kept deliberately small; the
// tags are advisory grouping hints, not a search corpus.
var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {},
	"been": {}, "were": {}, "they": {}, "their": {}, "there": {},
	"about": {}, "which": {}, "would": {}, "should": {}, "could": {},
	"when": {}, "what": {}, "your": {}, "very": {}, "into": {},
}

// urgencyScores orders urgency levels for priority calculation.
var urgencyScores = map[string]int{
	models.UrgencyCritical: 4,
	models.UrgencyHigh:     3,
	models.UrgencyMedium:   2,
	models.UrgencyLow:      1,
}

// resolutionEstimates maps urgency to the fixed human-readable label.
var resolutionEstimates = map[string]string{
	models.UrgencyCritical: "4 hours",
	models.UrgencyHigh:     "24 hours",
	models.UrgencyMedium:   "3 days",
	models.UrgencyLow:      "1 week",
}

// UrgencyScore returns the numeric score for an urgency level
// (critical 4 .. low 1). Unknown levels score as low.
func UrgencyScore(urgency string) int {
	if s, ok := urgencyScores[strings.ToLower(urgency)]; ok {
		return s
	}
	return 1
}

// ValidUrgency reports whether the value is one of the fixed levels.
func ValidUrgency(urgency string) bool {
	_, ok := urgencyScores[strings.ToLower(urgency)]
	return ok
}

// DepartmentWeight returns the priority weight contributed by the
// resolved department: technical departments carry extra weight,
// everything else contributes nothing.
func DepartmentWeight(department string) int {
	d := strings.ToLower(department)
	if strings.Contains(d, "technical") || strings.Contains(d, "it services") || d == "it" {
		return 1
	}
	return 0
}

// Priority is the frozen numeric priority: urgency score plus
// department weight.
func Priority(urgency, department string) int {
	return UrgencyScore(urgency) + DepartmentWeight(department)
}

// ResolutionEstimate returns the fixed urgency→label estimate.
func ResolutionEstimate(urgency string) string {
	if e, ok := resolutionEstimates[strings.ToLower(urgency)]; ok {
		return e
	}
	return resolutionEstimates[models.UrgencyLow]
}

// Tags extracts up to maxTags deduplicated significant words (length
// greater than 3, not a stopword) from the title, description, and
// department, lower-cased in order of first appearance.
func Tags(title, description, department string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, word := range strings.Fields(strings.ToLower(title + " " + description + " " + department)) {
		word = trimPunct(word)
		if len(word) <= 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, word)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// SearchTerms tokenizes the given fields on whitespace into a
// deduplicated list of lower-cased terms longer than 2 characters, for
// the naive substring search index.
func SearchTerms(fields ...string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, f := range fields {
		for _, tok := range strings.Fields(strings.ToLower(f)) {
			tok = trimPunct(tok)
			if len(tok) <= 2 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			terms = append(terms, tok)
		}
	}
	return terms
}

func trimPunct(s string) string {
	return strings.Trim(s, ".,;:!?\"'()[]{}")
}
