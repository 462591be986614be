package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samuelorobosa/jci-conf-client/internal/fault"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestBearerAndRequestIDHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	}))
	defer server.Close()

	client := New(server.URL, time.Second, func() string { return "tok-123" }, testLogger())
	var out map[string]string
	if err := client.do(context.Background(), http.MethodGet, "/ping", nil, nil, &out); err != nil {
		t.Fatalf("do error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestAnonymousRequestOmitsAuthorization(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil, testLogger())
	if err := client.do(context.Background(), http.MethodGet, "/ping", nil, nil, nil); err != nil {
		t.Fatalf("do error: %v", err)
	}
	if sawAuth {
		t.Fatalf("anonymous request must not carry an Authorization header")
	}
}

func TestStatusFaultMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   fault.Kind
	}{
		{http.StatusBadRequest, fault.KindValidation},
		{http.StatusUnprocessableEntity, fault.KindValidation},
		{http.StatusUnauthorized, fault.KindUnauthorized},
		{http.StatusForbidden, fault.KindUnauthorized},
		{http.StatusNotFound, fault.KindNotFound},
		{http.StatusConflict, fault.KindConflict},
		{http.StatusInternalServerError, fault.KindUnknown},
	}

	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom", "message": "it broke"})
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil, testLogger())
	for _, tc := range cases {
		status = tc.status
		err := client.do(context.Background(), http.MethodGet, "/thing", nil, nil, nil)
		if fault.KindOf(err) != tc.kind {
			t.Fatalf("status %d: expected kind %v, got %v (%v)", tc.status, tc.kind, fault.KindOf(err), err)
		}
		if fault.CodeOf(err) != "boom" {
			t.Fatalf("status %d: expected upstream error code, got %q", tc.status, fault.CodeOf(err))
		}
	}
}

func TestUnparseableErrorBodyFallsBackToDefaultCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil, testLogger())
	err := client.do(context.Background(), http.MethodGet, "/auth/me", nil, nil, nil)
	if fault.KindOf(err) != fault.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if fault.CodeOf(err) != "unauthorized" {
		t.Fatalf("expected default code, got %q", fault.CodeOf(err))
	}
}

func TestTransportFailureIsNetworkFault(t *testing.T) {
	// Nothing listens here.
	client := New("http://127.0.0.1:1", time.Second, nil, testLogger())
	err := client.do(context.Background(), http.MethodGet, "/delegates", nil, nil, nil)
	if fault.KindOf(err) != fault.KindNetwork {
		t.Fatalf("expected network fault, got %v", err)
	}
}

func TestTimeoutIsNetworkFault(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := New(server.URL, 30*time.Millisecond, nil, testLogger())
	err := client.do(context.Background(), http.MethodGet, "/slow", nil, nil, nil)
	if fault.KindOf(err) != fault.KindNetwork {
		t.Fatalf("expected network fault on timeout, got %v", err)
	}
}

func TestDelegateFilterKeysDoNotAlias(t *testing.T) {
	// Separator characters inside a filter value must not collide with a
	// different filter combination.
	a := DelegateFilters{Search: "x&org=y", LocalOrganization: "z"}
	b := DelegateFilters{Search: "x", LocalOrganization: "y&org=z"}
	if a.Key() == b.Key() {
		t.Fatalf("distinct filters share cache key %q", a.Key())
	}

	// The key is stable for equal filters.
	if a.Key() != (DelegateFilters{Search: "x&org=y", LocalOrganization: "z"}).Key() {
		t.Fatalf("equal filters produced different keys")
	}
}

func TestQueryEncoding(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}, "pagination": map[string]int{}})
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil, testLogger())
	filters := DelegateFilters{Page: 2, Limit: 25, Search: "ada obi", LocalOrganization: "JCI Lagos"}
	if _, err := client.Delegates(context.Background(), filters); err != nil {
		t.Fatalf("delegates error: %v", err)
	}
	parsed, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatalf("bad query %q: %v", gotQuery, err)
	}
	if parsed.Get("page") != "2" || parsed.Get("limit") != "25" {
		t.Fatalf("pagination not encoded: %q", gotQuery)
	}
	if parsed.Get("search") != "ada obi" {
		t.Fatalf("search not encoded: %q", gotQuery)
	}
	if parsed.Get("localOrganization") != "JCI Lagos" {
		t.Fatalf("organization filter not encoded: %q", gotQuery)
	}
}
