package catalog

import (
	"time"
)

// scheduleLayouts are the accepted wire formats for scheduledReleaseAt.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ComputeIsActive derives the visibility flag from the release schedule:
// a beat is active unless its release time is strictly in the future.
func ComputeIsActive(scheduledReleaseAt *time.Time, now time.Time) bool {
	return scheduledReleaseAt == nil || !scheduledReleaseAt.After(now)
}

// ParseScheduledRelease parses a raw schedule value. It returns nil for an
// empty or unparseable value.
func ParseScheduledRelease(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// ComputeIsActiveRaw derives the visibility flag from a raw schedule value.
// An unparseable value compares as "not in the future", so the beat comes
// out active (visible). Malformed schedule data fails open, not closed.
func ComputeIsActiveRaw(raw string, now time.Time) bool {
	return ComputeIsActive(ParseScheduledRelease(raw), now)
}
