package workflow

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func newTestStore() (*Store, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(func() time.Time { return now }, nil)
	return st, &now
}

func TestBeginRejectsUnknownAction(t *testing.T) {
	st, _ := newTestStore()
	if _, err := st.Begin("u1", "overthrow"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected unknown action error, got %v", err)
	}
}

func TestStrikeWorkflowSequence(t *testing.T) {
	st, _ := newTestStore()
	s, err := st.Begin("u1", "strike")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if s.Next().Name != "target" {
		t.Fatalf("Expected target first, got %s", s.Next().Name)
	}

	if _, err := st.Advance(s.ID, "u1", "reason", "early"); !errors.Is(err, ErrWrongField) {
		t.Errorf("Expected out-of-order field rejected, got %v", err)
	}

	if _, err := st.Advance(s.ID, "u1", "target", "12345"); err != nil {
		t.Fatalf("Advance target failed: %v", err)
	}
	if _, err := st.Take(s.ID, "u1"); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected incomplete session unconfirmable, got %v", err)
	}

	s2, err := st.Advance(s.ID, "u1", "reason", "missed ops")
	if err != nil {
		t.Fatalf("Advance reason failed: %v", err)
	}
	if !s2.Ready() {
		t.Fatal("Expected session ready after all fields")
	}

	taken, err := st.Take(s.ID, "u1")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.Values["target"] != "12345" || taken.Values["reason"] != "missed ops" {
		t.Errorf("Unexpected collected values: %v", taken.Values)
	}

	// Consumed.
	if _, err := st.Peek(s.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected consumed session gone, got %v", err)
	}
}

func TestRequiredFieldRejectsEmptyValue(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "promote")

	if _, err := st.Advance(s.ID, "u1", "target", ""); !errors.Is(err, ErrRequired) {
		t.Errorf("Expected empty required value rejected, got %v", err)
	}
}

func TestOptionalFieldAcceptsEmptyValue(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "kick")

	st.Advance(s.ID, "u1", "target", "12345")
	if _, err := st.Advance(s.ID, "u1", "reason", ""); err != nil {
		t.Errorf("Expected empty optional value accepted, got %v", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "transfer")

	if _, err := st.Advance(s.ID, "u2", "target", "x"); !errors.Is(err, ErrNotYours) {
		t.Errorf("Expected foreign session rejected, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	st, now := newTestStore()
	s, _ := st.Begin("u1", "transfer")

	*now = now.Add(SessionTTL + time.Minute)
	if _, err := st.Peek(s.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected expired session gone, got %v", err)
	}
}

func TestAdvanceExtendsExpiry(t *testing.T) {
	st, now := newTestStore()
	s, _ := st.Begin("u1", "promote")

	*now = now.Add(SessionTTL - time.Minute)
	if _, err := st.Advance(s.ID, "u1", "target", "12345"); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// The step reset the clock; the session survives past the original TTL.
	*now = now.Add(SessionTTL - time.Minute)
	if _, err := st.Peek(s.ID, "u1"); err != nil {
		t.Errorf("Expected session alive after refresh, got %v", err)
	}
}

func TestZeroStepActionsAreImmediatelyReady(t *testing.T) {
	st, _ := newTestStore()
	s, err := st.Begin("u1", "disband")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if !s.Ready() {
		t.Error("Expected disband session ready with no steps")
	}
	if _, err := st.Take(s.ID, "u1"); err != nil {
		t.Errorf("Take failed: %v", err)
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "invite")

	if err := st.Abandon(s.ID, "u1"); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if _, err := st.Peek(s.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected abandoned session gone, got %v", err)
	}
}

func TestAdvanceAfterAbandonFails(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "strike")

	if err := st.Abandon(s.ID, "u1"); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if _, err := st.Advance(s.ID, "u1", "target", "12345"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected abandoned session unadvanceable, got %v", err)
	}
}

func TestReturnedSessionIsACopy(t *testing.T) {
	st, _ := newTestStore()
	s, _ := st.Begin("u1", "strike")

	// Writes to a returned session must not reach the store.
	s.Values["target"] = "forged"
	s.Step = 2

	peeked, err := st.Peek(s.ID, "u1")
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if len(peeked.Values) != 0 || peeked.Step != 0 {
		t.Errorf("Caller mutation leaked into store: %+v", peeked)
	}

	advanced, _ := st.Advance(s.ID, "u1", "target", "12345")
	advanced.Values["target"] = "forged"
	st.Advance(s.ID, "u1", "reason", "afk")

	taken, err := st.Take(s.ID, "u1")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.Values["target"] != "12345" {
		t.Errorf("Expected stored value 12345, got %s", taken.Values["target"])
	}
}

func TestConcurrentPeekAndAdvance(t *testing.T) {
	st := NewStore(nil, nil)
	s, _ := st.Begin("u1", "create")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				st.Peek(s.ID, "u1")
			}
		}()
	}

	for i, f := range actionFields["create"] {
		if _, err := st.Advance(s.ID, "u1", f.Name, "v"+strconv.Itoa(i)); err != nil {
			t.Fatalf("Advance %s failed: %v", f.Name, err)
		}
	}
	wg.Wait()

	taken, err := st.Take(s.ID, "u1")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.Values["name"] != "v0" || taken.Values["color"] != "v4" {
		t.Errorf("Unexpected collected values: %v", taken.Values)
	}
}

func TestSessionCounter(t *testing.T) {
	count := 0
	st := NewStore(nil, func(delta int) { count += delta })

	s1, _ := st.Begin("u1", "kick")
	st.Begin("u2", "kick")
	if count != 2 {
		t.Errorf("Expected 2 open sessions, got %d", count)
	}
	st.Abandon(s1.ID, "u1")
	if count != 1 {
		t.Errorf("Expected 1 open session after abandon, got %d", count)
	}
}
