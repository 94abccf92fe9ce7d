package transcript

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendExchangeAndReadBack(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendExchange("sess-1", "aku capek banget hari ini", "Pasti melelahkan ya."); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendExchange("sess-1", "iya, kerjaan numpuk", "Mau cerita dari mana?"); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Messages("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles out of order: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[2].Content != "iya, kerjaan numpuk" {
		t.Errorf("unexpected content %q", msgs[2].Content)
	}
}

func TestSessionsAggregateCounts(t *testing.T) {
	s := newTestStore(t)

	s.AppendExchange("sess-a", "halo", "hai")
	s.AppendExchange("sess-a", "apa kabar", "baik")
	s.AppendExchange("sess-b", "halo juga", "hai juga")

	sessions, err := s.Sessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	counts := map[string]int{}
	for _, sess := range sessions {
		counts[sess.ID] = sess.Messages
	}
	if counts["sess-a"] != 4 || counts["sess-b"] != 2 {
		t.Errorf("message counts = %v", counts)
	}
}

func TestMessagesOfUnknownSessionIsEmpty(t *testing.T) {
	s := newTestStore(t)
	msgs, err := s.Messages("nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages for unknown session", len(msgs))
	}
}
