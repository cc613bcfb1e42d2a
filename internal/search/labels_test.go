package search

import (
	"slices"
	"testing"
)

func TestCocoLabelsComplete(t *testing.T) {
	if len(CocoLabels) != 80 {
		t.Errorf("len(CocoLabels) = %d, want 80", len(CocoLabels))
	}
}

func TestIsKnownLabel(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"person", true},
		{"  Dog ", true},
		{"traffic light", true},
		{"spaceship", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsKnownLabel(tt.label); got != tt.want {
			t.Errorf("IsKnownLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestSuggestLabels(t *testing.T) {
	if got := SuggestLabels("dogs", 3); !slices.Contains(got, "dog") {
		t.Errorf("SuggestLabels(dogs) = %v, want dog included", got)
	}
	if got := SuggestLabels("glass", 5); !slices.Contains(got, "wine glass") {
		t.Errorf("SuggestLabels(glass) = %v, want wine glass included", got)
	}
	if got := SuggestLabels("zzz", 2); len(got) != 1 || got[0] != "zebra" {
		t.Errorf("SuggestLabels(zzz) = %v, want [zebra]", got)
	}
	if got := SuggestLabels("c", 2); len(got) != 2 {
		t.Errorf("SuggestLabels(c, 2) = %v, want 2 entries", got)
	}
	if got := SuggestLabels("   ", 3); got != nil {
		t.Errorf("SuggestLabels(blank) = %v, want nil", got)
	}
}
