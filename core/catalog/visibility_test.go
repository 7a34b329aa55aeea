package catalog

import (
	"testing"
	"time"
)

func TestComputeIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		schedule *time.Time
		want     bool
	}{
		{"no schedule", nil, true},
		{"schedule in the past", &past, true},
		{"schedule exactly now", &now, true},
		{"schedule in the future", &future, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeIsActive(tt.schedule, now); got != tt.want {
				t.Errorf("ComputeIsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeIsActiveRaw(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"empty", "", true},
		{"past RFC3339", "2025-05-31T12:00:00Z", true},
		{"future RFC3339", "2025-06-02T12:00:00Z", false},
		{"future datetime", "2025-06-02 12:00:00", false},
		{"past date only", "2025-05-01", true},
		// An unparseable value compares as not-in-the-future: the beat
		// comes out visible.
		{"garbage fails open", "not-a-timestamp", true},
		{"partial garbage fails open", "2025-13-45T99:00:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeIsActiveRaw(tt.raw, now); got != tt.want {
				t.Errorf("ComputeIsActiveRaw(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseScheduledRelease(t *testing.T) {
	if got := ParseScheduledRelease(""); got != nil {
		t.Errorf("expected nil for empty value, got %v", got)
	}
	if got := ParseScheduledRelease("garbage"); got != nil {
		t.Errorf("expected nil for unparseable value, got %v", got)
	}
	got := ParseScheduledRelease("2025-06-02T12:00:00Z")
	if got == nil {
		t.Fatal("expected parsed time, got nil")
	}
	want := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
}
