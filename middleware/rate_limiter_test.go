package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(RateLimiter(ctx, rate.Limit(1), 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	status := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := status("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("first request: %d", got)
	}
	if got := status("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("second request within burst: %d", got)
	}
	if got := status("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the burst, got %d", got)
	}

	// Buckets are per client IP.
	if got := status("10.0.0.2"); got != http.StatusOK {
		t.Fatalf("other client must have its own bucket: %d", got)
	}
}
