package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mealpoint/kiosk-api/internal/config"
)

const testSecret = "test-jwt-secret-key"

func testRouterWithAuth() *gin.Engine {
	cfg := &config.Config{EnvVars: config.EnvVars{JwtSecretKey: testSecret}}
	r := gin.New()
	r.GET("/protected", VerifyAdminTokenMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func requestWithToken(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyAdminToken_Valid(t *testing.T) {
	r := testRouterWithAuth()
	token := signToken(t, jwt.MapClaims{
		"username": "manager",
		"role":     "admin",
		"type":     "access",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	w := requestWithToken(r, token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d. body: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestVerifyAdminToken_MissingHeader(t *testing.T) {
	r := testRouterWithAuth()
	w := requestWithToken(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyAdminToken_Expired(t *testing.T) {
	r := testRouterWithAuth()
	token := signToken(t, jwt.MapClaims{
		"username": "manager",
		"role":     "admin",
		"type":     "access",
		"exp":      time.Now().Add(-time.Minute).Unix(),
	})

	w := requestWithToken(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyAdminToken_RefreshTypeRejected(t *testing.T) {
	r := testRouterWithAuth()
	token := signToken(t, jwt.MapClaims{
		"username": "manager",
		"role":     "admin",
		"type":     "refresh",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	w := requestWithToken(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestVerifyAdminToken_NonAdminRoleRejected(t *testing.T) {
	r := testRouterWithAuth()
	token := signToken(t, jwt.MapClaims{
		"username": "guest",
		"role":     "viewer",
		"type":     "access",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	w := requestWithToken(r, token)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
