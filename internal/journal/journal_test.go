package journal

import (
	"testing"
	"time"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/pkg/protocol"
)

var day0 = time.Date(2026, 3, 10, 15, 4, 0, 0, time.UTC)

func newTestStore(t *testing.T, events *bus.Bus) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), events)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return day0 }
	return s
}

func TestFirstLogStartsStreakAtOne(t *testing.T) {
	s := newTestStore(t, nil)

	res, err := s.LogMood(4)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.Streak != 1 {
		t.Errorf("got %+v, want accepted with streak 1", res)
	}
}

func TestSameDayLogIsRejected(t *testing.T) {
	s := newTestStore(t, nil)
	s.LogMood(4)

	res, err := s.LogMood(2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted {
		t.Error("second log on the same day must be rejected")
	}
	if res.Streak != 1 {
		t.Errorf("streak changed to %d on a rejected log", res.Streak)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].Level != 4 {
		t.Errorf("rejected log modified entries: %+v", entries)
	}
}

func TestConsecutiveDaysIncrementStreak(t *testing.T) {
	s := newTestStore(t, nil)

	for i := 0; i < 3; i++ {
		day := day0.AddDate(0, 0, i)
		s.now = func() time.Time { return day }
		res, err := s.LogMood(3)
		if err != nil {
			t.Fatal(err)
		}
		if res.Streak != i+1 {
			t.Errorf("day %d streak = %d, want %d", i, res.Streak, i+1)
		}
	}
}

func TestGapResetsStreakToOne(t *testing.T) {
	s := newTestStore(t, nil)
	s.LogMood(3)

	s.now = func() time.Time { return day0.AddDate(0, 0, 3) }
	res, err := s.LogMood(5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 1 {
		t.Errorf("streak after a gap = %d, want 1", res.Streak)
	}
}

func TestStaleStreakZeroedOnLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return day0 }
	s.LogMood(4)
	s.LogMood(4)

	// reopen two days later
	s2, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	s2.now = func() time.Time { return day0.AddDate(0, 0, 2) }
	if err := s2.load(); err != nil {
		t.Fatal(err)
	}
	if s2.Streak() != 0 {
		t.Errorf("stale streak = %d, want 0", s2.Streak())
	}
}

func TestStreakSurvivesReloadNextDay(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return day0 }
	s.LogMood(4)

	s2, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	s2.now = func() time.Time { return day0.AddDate(0, 0, 1) }
	if err := s2.load(); err != nil {
		t.Fatal(err)
	}
	res, err := s2.LogMood(2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 2 {
		t.Errorf("streak after reload = %d, want 2", res.Streak)
	}
}

func TestInvalidLevelRejected(t *testing.T) {
	s := newTestStore(t, nil)
	for _, level := range []int{0, 6, -1} {
		if _, err := s.LogMood(level); err == nil {
			t.Errorf("level %d accepted", level)
		}
	}
}

func TestTrendCoversRequestedWindow(t *testing.T) {
	s := newTestStore(t, nil)
	s.LogMood(5)

	trend := s.Trend(7)
	if len(trend) != 7 {
		t.Fatalf("trend length = %d, want 7", len(trend))
	}
	last := trend[6]
	if last.Date != day0.Format(dateLayout) || last.Level != 5 {
		t.Errorf("today's point = %+v", last)
	}
	for _, p := range trend[:6] {
		if p.Level != 0 {
			t.Errorf("unlogged day %s has level %d", p.Date, p.Level)
		}
	}
}

func TestAcceptedLogPublishesMoodEvent(t *testing.T) {
	events := bus.New()
	var got []bus.Event
	events.Subscribe("test", func(ev bus.Event) { got = append(got, ev) })

	s := newTestStore(t, events)
	s.LogMood(2)
	s.LogMood(2) // rejected, must not publish

	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	p, ok := got[0].Payload.(protocol.MoodPayload)
	if !ok || got[0].Type != protocol.EventMoodLogged {
		t.Fatalf("unexpected event %+v", got[0])
	}
	if p.Label != "Sedih" || p.Level != 2 || p.Streak != 1 {
		t.Errorf("payload = %+v", p)
	}
}

func TestLevelLabels(t *testing.T) {
	want := map[int]string{
		1: "Sangat Sedih",
		2: "Sedih",
		3: "Biasa Saja",
		4: "Senang",
		5: "Sangat Senang",
	}
	for level, label := range want {
		if LevelLabel(level) != label {
			t.Errorf("LevelLabel(%d) = %q, want %q", level, LevelLabel(level), label)
		}
		if LevelEmoji(level) == "" {
			t.Errorf("LevelEmoji(%d) is empty", level)
		}
	}
}
