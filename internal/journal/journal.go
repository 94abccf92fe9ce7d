// Package journal persists the mood journal: one entry per calendar day and
// a consecutive-day streak counter.
//
// State is one JSON file (journal.json) in the data dir, read on startup and
// written on every accepted log. Accepted logs are published on the event
// bus so the turn controller can react with a proactive message.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/pkg/protocol"
)

// Entry is one logged mood. At most one entry exists per calendar day;
// logging again the same day is refused.
type Entry struct {
	Date  string `json:"date"`  // RFC3339
	Level int    `json:"level"` // 1..5
}

// state is the persisted record shape.
type state struct {
	Logs        []Entry `json:"logs"`
	Streak      int     `json:"streak"`
	LastLogDate string  `json:"lastLogDate,omitempty"` // YYYY-MM-DD
}

// Result reports the outcome of a LogMood call.
type Result struct {
	Accepted bool `json:"accepted"`
	Streak   int  `json:"streak"`
}

// TrendPoint is one day of the mood trend. Level 0 means nothing was logged
// that day.
type TrendPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Level int    `json:"level"`
}

// Mood level labels shown in the picker, lowest to highest.
var levelLabels = map[int]string{
	1: "Sangat Sedih",
	2: "Sedih",
	3: "Biasa Saja",
	4: "Senang",
	5: "Sangat Senang",
}

var levelEmoji = map[int]string{
	1: "😢",
	2: "😟",
	3: "😐",
	4: "🙂",
	5: "😄",
}

// LevelLabel returns the Indonesian label for a mood level.
func LevelLabel(level int) string { return levelLabels[level] }

// LevelEmoji returns the picker emoji for a mood level.
func LevelEmoji(level int) string { return levelEmoji[level] }

const dateLayout = "2006-01-02"

// Store owns the journal file.
type Store struct {
	path   string
	events *bus.Bus // may be nil

	mu    sync.Mutex
	state state
	now   func() time.Time
}

// NewStore opens (or creates) the journal in dataDir. A streak whose last
// log is neither today nor yesterday is already broken, so it is zeroed on
// load.
func NewStore(dataDir string, events *bus.Bus) (*Store, error) {
	s := &Store{
		path:   filepath.Join(dataDir, "journal.json"),
		events: events,
		now:    time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// LogMood records today's mood. A second call on the same calendar day is a
// no-op returning Accepted=false with the streak unchanged.
func (s *Store) LogMood(level int) (Result, error) {
	if level < 1 || level > 5 {
		return Result{}, fmt.Errorf("journal: mood level must be 1-5, got %d", level)
	}

	s.mu.Lock()
	now := s.now()
	today := now.Format(dateLayout)

	if s.state.LastLogDate == today {
		res := Result{Accepted: false, Streak: s.state.Streak}
		s.mu.Unlock()
		return res, nil
	}

	if s.state.LastLogDate == yesterday(now) {
		s.state.Streak++
	} else {
		s.state.Streak = 1
	}

	s.upsertToday(now, level)
	s.state.LastLogDate = today

	if err := s.save(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	res := Result{Accepted: true, Streak: s.state.Streak}
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(protocol.EventMoodLogged, protocol.MoodPayload{
			Level:  level,
			Label:  LevelLabel(level),
			Streak: res.Streak,
		})
	}
	return res, nil
}

// upsertToday replaces any same-day entry. Callers hold s.mu.
func (s *Store) upsertToday(now time.Time, level int) {
	today := now.Format(dateLayout)
	entry := Entry{Date: now.Format(time.RFC3339), Level: level}
	for i, e := range s.state.Logs {
		if entryDay(e) == today {
			s.state.Logs[i] = entry
			return
		}
	}
	s.state.Logs = append(s.state.Logs, entry)
}

// Streak returns the current consecutive-day streak.
func (s *Store) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Streak
}

// Entries returns a copy of all logged entries, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.state.Logs))
	copy(out, s.state.Logs)
	return out
}

// LoggedToday reports whether today's mood is already recorded.
func (s *Store) LoggedToday() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastLogDate == s.now().Format(dateLayout)
}

// Trend returns one point per calendar day for the last days days, ending
// today. Days without an entry carry level 0.
func (s *Store) Trend(days int) []TrendPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string]int, len(s.state.Logs))
	for _, e := range s.state.Logs {
		byDay[entryDay(e)] = e.Level
	}

	now := s.now()
	out := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(dateLayout)
		out = append(out, TrendPoint{Date: day, Level: byDay[day]})
	}
	return out
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("journal: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return fmt.Errorf("journal: parse %s: %w", s.path, err)
	}

	// broken streak: last log is neither today nor yesterday
	now := s.now()
	if s.state.LastLogDate != now.Format(dateLayout) && s.state.LastLogDate != yesterday(now) {
		s.state.Streak = 0
	}
	return nil
}

// save writes the journal file. Callers hold s.mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("journal: create data dir: %w", err)
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("journal: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("journal: write %s: %w", s.path, err)
	}
	return nil
}

func yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(dateLayout)
}

func entryDay(e Entry) string {
	t, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}
