package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if l.Remaining("k") != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining("k"))
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}
	l.Reset("k")
	if l.Remaining("k") != 2 || !l.Allow("k") {
		t.Error("Reset should restore the full budget")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	defer l.Close()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request inside window should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after window should pass")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name, xff, remote, want string
	}{
		{"remote with port", "", "10.0.0.1:5555", "10.0.0.1"},
		{"first forwarded hop", "203.0.113.7, 10.0.0.1", "10.0.0.1:1", "203.0.113.7"},
		{"single forwarded", "198.51.100.2", "10.0.0.1:1", "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientKey(r); got != tt.want {
				t.Errorf("clientKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiterWith(Budget{Attempts: 100, Per: time.Minute}, Budget{Attempts: 2, Per: time.Minute})
	defer ll.Close()

	r := httptest.NewRequest("POST", "/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Dana@Example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	ok, reason := ll.Check(r, " dana@example.com ")
	if ok || reason == "" {
		t.Error("email limit should apply case-insensitively")
	}
	ll.ResetEmail("DANA@example.com")
	if ok, _ := ll.Check(r, "dana@example.com"); !ok {
		t.Error("ResetEmail should clear the email budget")
	}
}
