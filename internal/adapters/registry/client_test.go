package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trinavo/tenancy/internal/adapters/cache"
	"github.com/trinavo/tenancy/internal/core/domain"

	"go.uber.org/zap"
)

const successBody = `{"success":true,"data":{"userApp":{"slug":"acme","userName":"Jane","userEmail":"jane@x.com"}}}`

func newRegistryServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/api/apps/info" {
			t.Errorf("path = %q, want /api/apps/info", r.URL.Path)
		}
		if r.URL.Query().Get("domain") == "" {
			t.Error("missing domain query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, cacheEnabled bool, ttl time.Duration) *Client {
	return NewClient(Config{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		CacheEnabled: cacheEnabled,
		CacheTTL:     ttl,
	}, cache.NewMemory(), zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	srv := newRegistryServer(t, http.StatusOK, successBody, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	desc, err := client.Fetch(context.Background(), "acme.example.com")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if desc.Slug != "acme" || desc.UserName != "Jane" || desc.UserEmail != "jane@x.com" {
		t.Fatalf("descriptor = %+v", desc)
	}
}

func TestFetchServesFromCacheWithinTTL(t *testing.T) {
	var hits atomic.Int64
	srv := newRegistryServer(t, http.StatusOK, successBody, &hits)
	client := newTestClient(srv.URL, true, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), "acme.example.com"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("registry hit %d times, want 1", hits.Load())
	}
}

func TestFetchRefetchesAfterTTLExpiry(t *testing.T) {
	var hits atomic.Int64
	srv := newRegistryServer(t, http.StatusOK, successBody, &hits)
	client := newTestClient(srv.URL, true, 10*time.Millisecond)

	if _, err := client.Fetch(context.Background(), "acme.example.com"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := client.Fetch(context.Background(), "acme.example.com"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("registry hit %d times, want 2 after expiry", hits.Load())
	}
}

func TestFetchCacheDisabledAlwaysHitsNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := newRegistryServer(t, http.StatusOK, successBody, &hits)
	client := newTestClient(srv.URL, false, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := client.Fetch(context.Background(), "acme.example.com"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("registry hit %d times, want 2 with caching off", hits.Load())
	}
}

func TestFetch422ClassifiesNotFound(t *testing.T) {
	srv := newRegistryServer(t, http.StatusUnprocessableEntity, `{"success":false}`, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	_, err := client.Fetch(context.Background(), "ghost.example.com")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Domain != "ghost.example.com" {
		t.Fatalf("domain = %q", notFound.Domain)
	}
}

func TestFetchSuccessFalseClassifiesNotFound(t *testing.T) {
	srv := newRegistryServer(t, http.StatusOK, `{"success":false,"message":"unknown app"}`, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	_, err := client.Fetch(context.Background(), "ghost.example.com")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFetch500ClassifiesFetchErrorWithBody(t *testing.T) {
	srv := newRegistryServer(t, http.StatusInternalServerError, `upstream exploded`, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	_, err := client.Fetch(context.Background(), "acme.example.com")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Body != "upstream exploded" {
		t.Fatalf("body = %q", fetchErr.Body)
	}
}

func TestFetchMalformedBodyClassifiesFetchError(t *testing.T) {
	srv := newRegistryServer(t, http.StatusOK, `{not json`, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	_, err := client.Fetch(context.Background(), "acme.example.com")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchWrongShapeClassifiesFetchError(t *testing.T) {
	srv := newRegistryServer(t, http.StatusOK, `{"success":true,"data":{}}`, nil)
	client := newTestClient(srv.URL, true, time.Minute)

	_, err := client.Fetch(context.Background(), "acme.example.com")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError for missing userApp, got %v", err)
	}
}

func TestFetchUnreachableRegistryClassifiesFetchError(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1", true, time.Minute)

	_, err := client.Fetch(context.Background(), "acme.example.com")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int64
	srv := newRegistryServer(t, http.StatusInternalServerError, `boom`, &hits)
	client := newTestClient(srv.URL, true, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := client.Fetch(context.Background(), "acme.example.com"); err == nil {
			t.Fatal("expected error")
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("registry hit %d times, want 2 (failures must not cache)", hits.Load())
	}
}
