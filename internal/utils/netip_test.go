package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"127.0.0.1:7433":  "127.0.0.1",
		"[::1]:7433":      "::1",
		"::1":             "::1",
		"[::1]":           "::1",
		"localhost":       "localhost",
		"localhost:7433":  "localhost",
		"10.1.2.3":        "10.1.2.3",
		"sflens.internal": "sflens.internal",
	}
	for in, want := range tests {
		if got := ParseHostNoPort(in); got != want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:5000"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	if got := ClientIP(r, false); got != "127.0.0.1" {
		t.Errorf("untrusted proxy: ClientIP() = %q", got)
	}
	if got := ClientIP(r, true); got != "203.0.113.7" {
		t.Errorf("trusted proxy: ClientIP() = %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientIP(r, true); got != "198.51.100.2" {
		t.Errorf("X-Real-IP fallback: ClientIP() = %q", got)
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{" loopback ", "10.0.0.0/8", "192.168.1.20", "not-an-ip", ""})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"127.8.9.10", true},
		{"::1", true},
		{"::ffff:127.0.0.1", true},
		{"10.20.30.40", true},
		{"192.168.1.20", true},
		{"192.168.1.21", false},
		{"8.8.8.8", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() || !NewIPMatcher([]string{"nope"}).IsEmpty() {
		t.Error("matcher without valid entries should be empty")
	}
}
