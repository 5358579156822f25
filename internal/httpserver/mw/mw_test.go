package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"localhost:7433", "localhost", true},
		{"localhost", "localhost", true},
		{"localhost:7433", "localhost:7433", true},
		{"localhost:9999", "localhost:7433", false},
		{"[::1]:7433", "[::1]", true},
		{"127.0.0.1:7433", "127.0.0.1", true},
		{"panel.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil.com:7433", "localhost", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"LOCALHOST"}, logger.Nop())(okHandler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "localhost:7433"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("allowed host got %d", w.Code)
	}

	r.Host = "attacker.test:7433"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign host got %d", w.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"loopback"}, false, logger.Nop())(okHandler)

	for addr, want := range map[string]int{
		"127.0.0.1:5000":   http.StatusNoContent,
		"[::1]:5000":       http.StatusNoContent,
		"192.168.1.9:5000": http.StatusForbidden,
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Errorf("%s: status %d, want %d", addr, w.Code, want)
		}
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimit(RateLimitConfig{Rate: 0.01, Burst: 2}, logger.Nop())(okHandler)

	do := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do("127.0.0.1:1"); w.Code != http.StatusNoContent {
			t.Fatalf("request %d within burst got %d", i, w.Code)
		}
	}
	w := do("127.0.0.1:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("request over burst got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("missing rate-limit headers: %v", w.Header())
	}

	if w := do("127.0.0.2:1"); w.Code != http.StatusNoContent {
		t.Errorf("another client should have its own bucket, got %d", w.Code)
	}
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	l := newLimiter(RateLimitConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()
	l.get("a", now)
	l.get("b", now.Add(2*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["a"]; ok {
		t.Error("idle client should have been swept")
	}
	if _, ok := l.clients["b"]; !ok {
		t.Error("active client should be kept")
	}
}

func TestLogKeepsFlusher(t *testing.T) {
	var flushed bool
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushed = w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !flushed {
		t.Error("wrapped writer should implement http.Flusher")
	}
}

func TestOriginAllowed(t *testing.T) {
	hosts := []string{"localhost", "127.0.0.1", "[::1]"}
	tests := []struct {
		name   string
		origin string
		hosts  []string
		want   bool
	}{
		{"no origin", "", hosts, true},
		{"panel page", "http://localhost:7433", hosts, true},
		{"ipv6 loopback page", "http://[::1]:7433", hosts, true},
		{"foreign site", "https://evil.example", hosts, false},
		{"opaque origin", "null", hosts, false},
		{"same as host without allow list", "http://127.0.0.1:7433", nil, true},
		{"other port without allow list", "http://127.0.0.1:3000", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			r.Host = "127.0.0.1:7433"
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := OriginAllowed(r, tt.hosts); got != tt.want {
				t.Errorf("OriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	h := SameOrigin([]string{"localhost"}, logger.Nop())(okHandler)

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"cli request", nil, http.StatusNoContent},
		{"panel page", map[string]string{"Origin": "http://localhost:7433", "Sec-Fetch-Site": "same-origin"}, http.StatusNoContent},
		{"foreign origin", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"cross-site fetch", map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
			r.Host = "localhost:7433"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	h := RequireJSON(okHandler)

	for ct, want := range map[string]int{
		"application/json":                  http.StatusNoContent,
		"application/json; charset=utf-8":   http.StatusNoContent,
		"text/plain":                        http.StatusUnsupportedMediaType,
		"application/x-www-form-urlencoded": http.StatusUnsupportedMediaType,
		"":                                  http.StatusUnsupportedMediaType,
	} {
		r := httptest.NewRequest(http.MethodPost, "/api/snapshots/delete", nil)
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Errorf("Content-Type %q: status %d, want %d", ct, w.Code, want)
		}
	}
}
