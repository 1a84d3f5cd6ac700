package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func hitRoute(r *gin.Engine, path string) int {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitByIP_BurstExhaustion(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimitByIP(rate.Limit(0), 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		if code := hitRoute(r, "/limited"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := hitRoute(r, "/limited"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d after burst exhausted", code, http.StatusTooManyRequests)
	}
}

func TestRateLimitByIP_InstancesAreIndependent(t *testing.T) {
	// Two groups with different limits must not share limiters: exhausting
	// the strict one must leave the loose one untouched for the same IP.
	r := gin.New()
	r.GET("/strict", RateLimitByIP(rate.Limit(0), 1), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/loose", RateLimitByIP(rate.Limit(0), 10), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	if code := hitRoute(r, "/strict"); code != http.StatusOK {
		t.Fatalf("first strict request: status = %d, want %d", code, http.StatusOK)
	}
	if code := hitRoute(r, "/strict"); code != http.StatusTooManyRequests {
		t.Fatalf("second strict request: status = %d, want %d", code, http.StatusTooManyRequests)
	}

	for i := 0; i < 10; i++ {
		if code := hitRoute(r, "/loose"); code != http.StatusOK {
			t.Errorf("loose request %d: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
}
