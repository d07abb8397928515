package memory

import (
	"testing"
	"time"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Minute)

	store.Save(app.NewSession("s1", "alice", domain.DefaultScoringRules()))
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreExpiresSessions(t *testing.T) {
	now := time.Now()
	store := NewSessionStore(time.Minute)
	store.clock = func() time.Time { return now }

	store.Save(app.NewSessionWithClock("old", "alice", domain.DefaultScoringRules(), func() time.Time { return now }))
	now = now.Add(2 * time.Minute)

	if _, ok := store.Get("old"); ok {
		t.Fatalf("expected expired session to be gone")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired session evicted, len=%d", store.Len())
	}
}
