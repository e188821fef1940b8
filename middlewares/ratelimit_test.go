package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/urfave/negroni"

	"bitbucket.org/vecpay/backend/middlewares"
)

func TestRateLimiter_AllowsWithinBudget(t *testing.T) {
	rl := middlewares.NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.Allow("10.0.0.1") {
		t.Fatal("request over budget should be rejected")
	}

	// other clients keep their own budget
	if !rl.Allow("10.0.0.2") {
		t.Fatal("different client should be allowed")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := middlewares.NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request inside window should be rejected")
	}

	time.Sleep(15 * time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("request after the window should be allowed again")
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := middlewares.NewRateLimiter(10, 10*time.Millisecond)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	if got := rl.ActiveClients(); got != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", got)
	}

	time.Sleep(15 * time.Millisecond)

	// a request from a third client triggers the sweep of the idle ones
	rl.Allow("10.0.0.3")
	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("expected only the active client tracked, got %d", got)
	}
}

func TestRateLimiterMiddleware_Returns429(t *testing.T) {
	rl := middlewares.NewRateLimiter(1, time.Minute)

	n := negroni.New()
	n.Use(rl.Middleware())
	n.UseHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func() int {
		r := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.9")
		w := httptest.NewRecorder()
		n.ServeHTTP(w, r)
		return w.Code
	}

	if code := request(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := request(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestRevocationStore(t *testing.T) {
	store := middlewares.NewRevocationStore()

	if store.IsRevoked("token-a") {
		t.Fatal("fresh token should not be revoked")
	}

	store.Revoke("token-a")

	if !store.IsRevoked("token-a") {
		t.Fatal("revoked token should stay revoked")
	}
	if store.IsRevoked("token-b") {
		t.Fatal("unrelated token should not be revoked")
	}
}
