package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerClient(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(1, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := hit("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d within burst rejected: %d", i, code)
		}
	}
	if code := hit("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past burst, got %d", code)
	}
	if code := hit("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client should have its own bucket, got %d", code)
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	l := newIPRateLimiter(10, 1)
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(10 * time.Minute)
	l.allow("b")
	if _, ok := l.visitors["a"]; ok {
		t.Fatalf("idle visitor should have been swept")
	}
	if len(l.visitors) != 1 {
		t.Fatalf("expected 1 visitor, got %d", len(l.visitors))
	}
}
