package classify

import (
	"strings"
	"testing"
)

func TestPriority(t *testing.T) {
	tests := []struct {
		urgency    string
		department string
		want       int
	}{
		{"critical", "Technical Support", 5},
		{"low", "General", 1},
		{"high", "Finance", 3},
		{"critical", "IT Services", 5},
		{"medium", "Human Resources", 2},
		{"high", "Administration", 3},
		{"low", "Technical Support", 2},
	}
	for _, tt := range tests {
		if got := Priority(tt.urgency, tt.department); got != tt.want {
			t.Errorf("Priority(%q, %q) = %d, want %d", tt.urgency, tt.department, got, tt.want)
		}
	}
}

func TestUrgencyScore_Unknown(t *testing.T) {
	if got := UrgencyScore("whatever"); got != 1 {
		t.Errorf("unknown urgency should score as low, got %d", got)
	}
}

func TestValidUrgency(t *testing.T) {
	for _, u := range []string{"low", "medium", "high", "critical", "HIGH"} {
		if !ValidUrgency(u) {
			t.Errorf("ValidUrgency(%q) = false", u)
		}
	}
	if ValidUrgency("urgent") {
		t.Error("ValidUrgency(urgent) should be false")
	}
}

func TestResolutionEstimate(t *testing.T) {
	tests := map[string]string{
		"critical": "4 hours",
		"high":     "24 hours",
		"medium":   "3 days",
		"low":      "1 week",
		"bogus":    "1 week",
	}
	for urgency, want := range tests {
		if got := ResolutionEstimate(urgency); got != want {
			t.Errorf("ResolutionEstimate(%q) = %q, want %q", urgency, got, want)
		}
	}
}

func TestTags(t *testing.T) {
	tags := Tags("Printer broken again", "The printer in this room has been broken since Monday", "Technical Support")

	want := []string{"printer", "broken", "again", "room", "since", "monday", "technical", "support"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestTags_CapAndStopwords(t *testing.T) {
	long := strings.Repeat("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima ", 2)
	tags := Tags(long, "", "")
	if len(tags) != 10 {
		t.Errorf("tags should cap at 10, got %d: %v", len(tags), tags)
	}

	tags = Tags("this that with from", "", "")
	if len(tags) != 0 {
		t.Errorf("stopwords should be excluded, got %v", tags)
	}
}

func TestTags_ShortWordsExcluded(t *testing.T) {
	tags := Tags("the app is bad", "", "")
	// "the", "app", "is", "bad" are all length <= 3.
	if len(tags) != 0 {
		t.Errorf("words of length <= 3 should be excluded, got %v", tags)
	}
}

func TestSearchTerms(t *testing.T) {
	terms := SearchTerms("VPN Down", "vpn down for everyone", "Technical", "high", "Technical Support")

	want := []string{"vpn", "down", "for", "everyone", "technical", "high", "support"}
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestSearchTerms_LengthAndDedup(t *testing.T) {
	terms := SearchTerms("a an the the the")
	if len(terms) != 1 || terms[0] != "the" {
		t.Errorf("expected single deduplicated term longer than 2 chars, got %v", terms)
	}
}
