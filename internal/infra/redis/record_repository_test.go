package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"pixel-quiz-service/internal/app"
	"pixel-quiz-service/internal/domain"
)

func TestRecordRepositoryRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	repo := NewRecordRepository(newClient(mr))

	if _, found, err := repo.FindByUserID(ctx, "alice"); err != nil || found {
		t.Fatalf("expected missing record, found=%v err=%v", found, err)
	}

	rec := domain.UserRecord{
		UserID:          "alice",
		PlayCount:       1,
		CumulativeScore: 300,
		MaxScore:        300,
		LastPlayedAt:    time.Date(2026, 2, 3, 4, 5, 6, 789000, time.UTC),
		Version:         1,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, found, err := repo.FindByUserID(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("find: %v %v", found, err)
	}
	assertSameRecord(t, got, rec)

	first, attempts := 500, 2
	rec.PlayCount, rec.CumulativeScore, rec.MaxScore = 2, 800, 500
	rec.FirstPassScore, rec.AttemptsToPass = &first, &attempts
	rec.Version = 2
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _, _ = repo.FindByUserID(ctx, "alice")
	assertSameRecord(t, got, rec)

	if err := repo.Upsert(ctx, rec); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict on replay, got %v", err)
	}
}

func TestResultStoresShareRedisWithoutLostUpdates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	// Two stores model two service instances; only the version check protects them.
	stores := []*app.ResultStore{
		app.NewResultStore(NewRecordRepository(client), nil),
		app.NewResultStore(NewRecordRepository(client), nil),
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := stores[i%2].Merge(ctx, domain.AttemptSummary{UserID: "shared", Score: 100})
			if err != nil {
				t.Errorf("merge %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rec, found, err := NewRecordRepository(client).FindByUserID(ctx, "shared")
	if err != nil || !found {
		t.Fatalf("find: %v %v", found, err)
	}
	if rec.PlayCount != 6 || rec.CumulativeScore != 600 {
		t.Fatalf("lost update: %+v", rec)
	}
}

func assertSameRecord(t *testing.T, got, want domain.UserRecord) {
	t.Helper()
	if got.UserID != want.UserID || got.PlayCount != want.PlayCount ||
		got.CumulativeScore != want.CumulativeScore || got.MaxScore != want.MaxScore ||
		got.Version != want.Version || !got.LastPlayedAt.Equal(want.LastPlayedAt) {
		t.Fatalf("record mismatch:\n got %+v\nwant %+v", got, want)
	}
	if !sameIntPtr(got.FirstPassScore, want.FirstPassScore) || !sameIntPtr(got.AttemptsToPass, want.AttemptsToPass) {
		t.Fatalf("first-pass mismatch:\n got %v/%v\nwant %v/%v", got.FirstPassScore, got.AttemptsToPass, want.FirstPassScore, want.AttemptsToPass)
	}
}

func sameIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
