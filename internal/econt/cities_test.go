package econt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func citiesServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cities": []map[string]string{
				{"name": "София", "postCode": "1000"},
				{"name": "Созопол", "postCode": "8130"},
				{"name": "Пловдив", "postCode": "4000"},
			},
		})
	}))
}

func TestCityCacheServesWithinTTL(t *testing.T) {
	var calls int32
	srv := citiesServer(t, &calls)
	defer srv.Close()

	cache := NewCityCache(testClient(srv.URL), time.Hour)
	clock := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	ctx := context.Background()
	if _, err := cache.Cities(ctx, "BGR"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := cache.Cities(ctx, "BGR"); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one remote call within TTL, got %d", calls)
	}

	clock = clock.Add(2 * time.Hour)
	if _, err := cache.Cities(ctx, "BGR"); err != nil {
		t.Fatalf("refresh fetch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refresh after TTL expiry, got %d calls", calls)
	}
}

func TestCityCacheServesStaleOnRefreshFailure(t *testing.T) {
	var calls int32
	srv := citiesServer(t, &calls)

	cache := NewCityCache(testClient(srv.URL), time.Hour)
	clock := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	ctx := context.Background()
	cities, err := cache.Cities(ctx, "BGR")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	srv.Close()
	clock = clock.Add(2 * time.Hour)

	stale, err := cache.Cities(ctx, "BGR")
	if err != nil {
		t.Fatalf("expected stale list instead of error, got %v", err)
	}
	if len(stale) != len(cities) {
		t.Fatalf("stale list differs from cached list")
	}
}

func TestCitySuggestPrefixFilter(t *testing.T) {
	var calls int32
	srv := citiesServer(t, &calls)
	defer srv.Close()

	cache := NewCityCache(testClient(srv.URL), time.Hour)

	matched, err := cache.Suggest(context.Background(), "BGR", "со")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected София and Созопол, got %v", matched)
	}
}
