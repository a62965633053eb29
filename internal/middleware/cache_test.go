package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/config"
)

// statsKey computes the cache key for a stats request the way the
// middleware sees it: routed through the parameterized pattern.
func statsKey(t *testing.T, target string) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/events/:id/stats")
	return cacheKeyFrom(config.CacheConfig{Prefix: "cache"}, c)
}

func TestCacheKeyDistinguishesEvents(t *testing.T) {
	k1 := statsKey(t, "/v1/events/1/stats")
	k2 := statsKey(t, "/v1/events/2/stats")
	if k1 == k2 {
		t.Fatalf("stats requests for two different events share cache key %s", k1)
	}
	if again := statsKey(t, "/v1/events/1/stats"); again != k1 {
		t.Errorf("same request hashed to %s then %s", k1, again)
	}
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	plain := statsKey(t, "/v1/events/1/stats")
	queried := statsKey(t, "/v1/events/1/stats?t=1")
	if plain == queried {
		t.Errorf("query string not part of cache key %s", plain)
	}
}
