package access

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeCountries struct {
	calls int
}

func (f *fakeCountries) CountryCode(string) string {
	f.calls++
	return "ZZ"
}

func guardedHandler(t *testing.T, geo CountryLookup) http.Handler {
	t.Helper()
	list, err := ParseEntries([]string{"203.0.113.7", "198.51.100.0/24"})
	if err != nil {
		t.Fatalf("ParseEntries returned error: %v", err)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "served")
	})
	return Guard(NewStore(list), Evaluator{}, geo)(next)
}

func TestGuardAllowsAllowlistedAddress(t *testing.T) {
	handler := guardedHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/status.html", nil)
	req.RemoteAddr = "198.51.100.200:41000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "served" {
		t.Fatalf("got %d %q, want 200 served", rec.Code, rec.Body.String())
	}
}

func TestGuardDeniesWithoutDetail(t *testing.T) {
	geo := &fakeCountries{}
	handler := guardedHandler(t, geo)

	req := httptest.NewRequest(http.MethodGet, "/status.html", nil)
	req.RemoteAddr = "203.0.113.8:41000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "Forbidden" {
		t.Fatalf("body = %q, want bare Forbidden", body)
	}
	if geo.calls != 1 {
		t.Fatalf("country lookups = %d, want 1", geo.calls)
	}
}

func TestGuardPassesUnprotectedPaths(t *testing.T) {
	handler := guardedHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/images/node.jpg", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGuardAllowsLoopback(t *testing.T) {
	handler := Guard(NewStore(nil), Evaluator{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
