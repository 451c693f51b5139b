package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mbuchwa/rag-urz-ollama/pkg/store"
)

func turn(text string) store.Turn {
	return store.Turn{Role: store.RoleUser, Text: text, Language: store.LanguageGerman, Timestamp: time.Now()}
}

func TestHistoryStoreFIFOCap(t *testing.T) {
	s := NewHistoryStore(3)

	for i := 1; i <= 5; i++ {
		s.Append("s1", turn(fmt.Sprintf("turn %d", i)))
	}

	window := s.Window("s1")
	if len(window) != 3 {
		t.Fatalf("window size = %d, want capped at 3", len(window))
	}
	// Oldest turns evicted first.
	for i, want := range []string{"turn 3", "turn 4", "turn 5"} {
		if window[i].Text != want {
			t.Errorf("window[%d] = %q, want %q", i, window[i].Text, want)
		}
	}
}

func TestHistoryStoreDefaultCap(t *testing.T) {
	s := NewHistoryStore(0)

	for i := 0; i < DefaultMaxTurns+2; i++ {
		s.Append("s1", turn(fmt.Sprintf("turn %d", i)))
	}

	if got := len(s.Window("s1")); got != DefaultMaxTurns {
		t.Errorf("window size = %d, want %d", got, DefaultMaxTurns)
	}
}

func TestHistoryStoreSessionsAreIsolated(t *testing.T) {
	s := NewHistoryStore(5)
	s.Append("s1", turn("hello"))

	if got := s.Window("s2"); got != nil {
		t.Errorf("fresh session window = %v, want nil", got)
	}
	if got := len(s.Window("s1")); got != 1 {
		t.Errorf("s1 window size = %d, want 1", got)
	}
}

func TestHistoryStoreClear(t *testing.T) {
	s := NewHistoryStore(5)
	s.Append("s1", turn("hello"))
	s.Clear("s1")

	if got := s.Window("s1"); got != nil {
		t.Errorf("window after Clear = %v, want nil", got)
	}
}

func TestHistoryStoreEvictionDropsSessionLock(t *testing.T) {
	s := NewHistoryStore(5)
	s.Append("s1", turn("hello"))

	s.mu.Lock()
	_, held := s.locks["s1"]
	s.mu.Unlock()
	if !held {
		t.Fatal("expected a lock entry for the active session")
	}

	s.Clear("s1")

	s.mu.Lock()
	_, held = s.locks["s1"]
	s.mu.Unlock()
	if held {
		t.Error("lock entry must be dropped when the session is evicted")
	}
}

func TestHistoryStoreWindowReturnsCopy(t *testing.T) {
	s := NewHistoryStore(5)
	s.Append("s1", turn("original"))

	window := s.Window("s1")
	window[0].Text = "mutated"

	if got := s.Window("s1")[0].Text; got != "original" {
		t.Errorf("stored turn = %q, caller mutation must not leak into the store", got)
	}
}

func TestHistoryStoreConcurrentAppends(t *testing.T) {
	s := NewHistoryStore(100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Append("s1", turn(fmt.Sprintf("turn %d", n)))
		}(i)
	}
	wg.Wait()

	if got := len(s.Window("s1")); got != 50 {
		t.Errorf("window size = %d, want 50", got)
	}
}
