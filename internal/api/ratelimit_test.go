package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(6, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.allow("192.0.2.1"); !ok {
			t.Fatalf("request %d within burst denied", i+1)
		}
	}

	ok, wait := l.allow("192.0.2.1")
	if ok {
		t.Fatal("request beyond burst allowed")
	}
	if wait <= 0 || wait > 10*time.Second {
		t.Errorf("wait = %v, want (0, 10s]", wait)
	}

	if ok, _ := l.allow("192.0.2.2"); !ok {
		t.Error("other IPs must have their own bucket")
	}

	now = now.Add(10 * time.Second)
	if ok, _ := l.allow("192.0.2.1"); !ok {
		t.Error("token should have refilled")
	}
}

func TestIPRateLimiter_Prunes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(60, 1)
	l.now = func() time.Time { return now }

	for i := 0; i < pruneThreshold; i++ {
		l.allow(time.Duration(i).String())
	}
	now = now.Add(visitorStaleAfter + time.Minute)
	l.allow("fresh")

	if len(l.visitors) != 1 {
		t.Errorf("visitors = %d after prune, want 1", len(l.visitors))
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	if got := clientIP(r); got != "198.51.100.7" {
		t.Errorf("clientIP = %q", got)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{0: "1", 300 * time.Millisecond: "1", 1500 * time.Millisecond: "2", time.Minute: "60"}
	for d, want := range cases {
		if got := retryAfterSeconds(d); got != want {
			t.Errorf("retryAfterSeconds(%v) = %q, want %q", d, got, want)
		}
	}
}
