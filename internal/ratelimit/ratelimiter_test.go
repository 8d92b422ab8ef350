package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/event-registration-service/internal/metrics"
)

func setupTestRL(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRedisLimiter(client, limit, time.Second, logger), mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	rl, _ := setupTestRL(t, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !rl.Allow(ctx, "10.0.0.1") {
			t.Errorf("request %d should be allowed (limit=5)", i+1)
		}
	}
}

func TestRedisLimiter_BlocksOverLimit(t *testing.T) {
	rl, _ := setupTestRL(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.Allow(ctx, "10.0.0.1")
	}

	if rl.Allow(ctx, "10.0.0.1") {
		t.Error("request should be blocked when over limit")
	}
}

func TestRedisLimiter_ZeroLimit_AllowsAll(t *testing.T) {
	rl, _ := setupTestRL(t, 0)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if !rl.Allow(ctx, "10.0.0.1") {
			t.Errorf("request %d should be allowed with limit=0 (unlimited)", i+1)
		}
	}
}

func TestRedisLimiter_IsolationBetweenClients(t *testing.T) {
	rl, _ := setupTestRL(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rl.Allow(ctx, "10.0.0.1")
	}

	if rl.Allow(ctx, "10.0.0.1") {
		t.Error("10.0.0.1 should be blocked")
	}
	if !rl.Allow(ctx, "10.0.0.2") {
		t.Error("10.0.0.2 should be allowed, limits are per client")
	}
}

func TestRedisLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	rl, mr := setupTestRL(t, 1)
	ctx := context.Background()

	mr.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, "10.0.0.1") {
			t.Errorf("request %d should be allowed when redis is unavailable", i+1)
		}
	}
}

func TestLocalLimiter_BlocksOverBurst(t *testing.T) {
	l := NewLocalLimiter(2)
	frozen := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }
	ctx := context.Background()

	if !l.Allow(ctx, "a") || !l.Allow(ctx, "a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow(ctx, "a") {
		t.Error("third request in the same instant should be blocked")
	}
	if !l.Allow(ctx, "b") {
		t.Error("other clients have their own bucket")
	}

	frozen = frozen.Add(time.Second)
	if !l.Allow(ctx, "a") {
		t.Error("bucket should refill after a second")
	}
}

func TestLocalLimiter_DisabledWhenZero(t *testing.T) {
	l := NewLocalLimiter(0)
	for i := 0; i < 50; i++ {
		if !l.Allow(context.Background(), "a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestLocalLimiter_SweepsStaleClients(t *testing.T) {
	l := NewLocalLimiter(1)
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow(context.Background(), "a")
	l.Allow(context.Background(), "b")
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	now = now.Add(10 * time.Minute)
	l.Allow(context.Background(), "c")
	if l.size() != 1 {
		t.Errorf("size after sweep = %d, want 1", l.size())
	}
}

func TestMiddleware_Returns429(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	l := NewLocalLimiter(1)
	frozen := time.Now()
	l.now = func() time.Time { return frozen }

	h := Middleware(l, met)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/events/x/register", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusCreated {
		t.Fatalf("first request: status = %d, want 201", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if got := testutil.ToFloat64(met.RateLimited); got != 1 {
		t.Errorf("rate limited counter = %v, want 1", got)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	if got := ClientKey(req); got != "203.0.113.9" {
		t.Errorf("ClientKey = %q", got)
	}
	req.RemoteAddr = "203.0.113.9"
	if got := ClientKey(req); got != "203.0.113.9" {
		t.Errorf("ClientKey without port = %q", got)
	}
}
