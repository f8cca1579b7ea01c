package storage

import "testing"

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"acme/reports/1.md":   "text/markdown; charset=utf-8",
		"acme/reports/1.json": "application/json",
		"x.html":              "text/html; charset=utf-8",
		"x.bin":               "application/octet-stream",
	}
	for key, want := range tests {
		if got := contentType(key); got != want {
			t.Errorf("contentType(%q) = %q, want %q", key, got, want)
		}
	}
}
