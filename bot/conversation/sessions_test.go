package conversation

import (
	"sync"
	"testing"
)

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	m := NewManager()

	m.With(1, func(s *Session) {
		s.State = StateChoosingCurrency
		s.Asset = "bitcoin"
	})
	m.With(2, func(s *Session) {
		s.State = StateTypingSearch
	})

	if got := m.Peek(1); got.State != StateChoosingCurrency || got.Asset != "bitcoin" {
		t.Fatalf("user 1 session: %+v", got)
	}
	if got := m.Peek(2); got.State != StateTypingSearch || got.Asset != "" {
		t.Fatalf("user 2 session: %+v", got)
	}
}

func TestPeekWithoutSessionDefaultsToMainMenu(t *testing.T) {
	m := NewManager()
	if got := m.Peek(99); got.State != StateMainMenu {
		t.Fatalf("expected zero session, got %+v", got)
	}
}

func TestExpectsText(t *testing.T) {
	m := NewManager()
	if m.ExpectsText(1) {
		t.Fatal("fresh session must not expect text")
	}
	m.With(1, func(s *Session) { s.State = StateTypingSearch })
	if !m.ExpectsText(1) {
		t.Fatal("typing-search session must expect text")
	}
}

func TestWithSerializesAccess(t *testing.T) {
	m := NewManager()
	const workers = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			m.With(1, func(s *Session) {
				// flip between two screens; interleaved access would race
				if s.State == StateMainMenu {
					s.State = StateChoosingAsset
				} else {
					s.State = StateMainMenu
				}
			})
		}()
	}
	wg.Wait()

	got := m.Peek(1)
	if got.State != StateMainMenu && got.State != StateChoosingAsset {
		t.Fatalf("unexpected final state: %v", got.State)
	}
}
