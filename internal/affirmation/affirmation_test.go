package affirmation

import (
	"testing"
	"time"
)

func TestForDateIsStableWithinADay(t *testing.T) {
	morning := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 1, 22, 30, 0, 0, time.UTC)
	if ForDate(morning) != ForDate(evening) {
		t.Error("affirmation changed within the same day")
	}
}

func TestForDateCyclesThroughTheList(t *testing.T) {
	seen := map[string]bool{}
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < len(affirmations); i++ {
		seen[ForDate(start.AddDate(0, 0, i))] = true
	}
	if len(seen) != len(affirmations) {
		t.Errorf("saw %d distinct affirmations over %d days", len(seen), len(affirmations))
	}
}
