package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRateLimitedHandler() http.Handler {
	return RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimit_ExemptsHealthAndMetrics(t *testing.T) {
	h := newRateLimitedHandler()
	for _, path := range []string{"/health", "/healthz/live", "/healthz/ready", "/metrics"} {
		for i := 0; i < 200; i++ {
			req := httptest.NewRequest("GET", path, nil)
			req.RemoteAddr = "10.9.9.9:1234"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s request %d got %d, want 200", path, i, rec.Code)
			}
		}
	}
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	h := newRateLimitedHandler()
	ip := "10.1.2.3:5000"

	blocked := false
	for i := 0; i < rateLimitStandardBurst+5; i++ {
		req := httptest.NewRequest("POST", "/api/v1/leads", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked = true
			if rec.Header().Get("Retry-After") == "" {
				t.Error("429 response missing Retry-After header")
			}
			if rec.Header().Get("X-RateLimit-Remaining") != "0" {
				t.Errorf("X-RateLimit-Remaining = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
			}
			break
		}
	}
	if !blocked {
		t.Error("Expected 429 after exhausting the burst")
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	h := newRateLimitedHandler()

	// Exhaust one IP's budget
	for i := 0; i < rateLimitStandardBurst+5; i++ {
		req := httptest.NewRequest("POST", "/api/v1/leads", nil)
		req.RemoteAddr = "10.2.0.1:1000"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A fresh IP still gets through
	req := httptest.NewRequest("POST", "/api/v1/leads", nil)
	req.RemoteAddr = "10.2.0.2:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Fresh IP got %d, want 200", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{"remote addr", func(r *http.Request) { r.RemoteAddr = "192.168.1.5:4321" }, "192.168.1.5"},
		{"x-forwarded-for single", func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.9") }, "203.0.113.9"},
		{"x-forwarded-for chain", func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1") }, "203.0.113.9"},
		{"x-real-ip", func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.7") }, "198.51.100.7"},
	}
	for i, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		tc.setup(req)
		if got := getClientIP(req); got != tc.expect {
			t.Errorf("case %d (%s): got %q, want %q", i, tc.name, got, tc.expect)
		}
	}
}

func TestTierForRequest(t *testing.T) {
	get := httptest.NewRequest("GET", "/api/v1/leads", nil)
	if tierForRequest(get) != tierGet {
		t.Error("GET should use the GET tier")
	}
	post := httptest.NewRequest("POST", "/api/v1/leads", nil)
	if tierForRequest(post) != tierStandard {
		t.Error("POST should use the standard tier")
	}
}

func BenchmarkRateLimitAllowedPath(b *testing.B) {
	h := newRateLimitedHandler()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest("GET", "/api/v1/leads", nil)
		req.RemoteAddr = fmt.Sprintf("10.50.%d.%d:80", i/250%250, i%250)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
