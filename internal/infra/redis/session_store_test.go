package redis

import (
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	store.Save(app.NewSession("s1", "alice", domain.DefaultScoringRules()))
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreExpiresWithMarker(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	store.Save(app.NewSession("s1", "alice", domain.DefaultScoringRules()))

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session to expire with its marker")
	}
}

func TestSessionStoreSweepsAbandonedSessionsOnSave(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(newClient(mr), time.Minute)
	store.clock = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		store.Save(app.NewSession(fmt.Sprintf("s%d", i), "alice", domain.DefaultScoringRules()))
	}
	if store.Len() != 1000 {
		t.Fatalf("expected 1000 local sessions, got %d", store.Len())
	}

	now = now.Add(2 * time.Minute)
	mr.FastForward(2 * time.Minute)
	store.Save(app.NewSession("fresh", "bob", domain.DefaultScoringRules()))

	if store.Len() != 1 {
		t.Fatalf("expected abandoned sessions to be swept, %d remain", store.Len())
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatalf("expected fresh session present")
	}
}
