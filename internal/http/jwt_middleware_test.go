package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"batchbook/internal/domain"
	"batchbook/internal/service"
)

func newProtectedRouter(tokenSvc *service.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(tokenSvc), func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokenSvc := service.NewTokenService("secret", time.Hour)
	router := newProtectedRouter(tokenSvc)

	pair, err := tokenSvc.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"valid", "Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
		if tc.want == http.StatusOK && w.Body.String() != "u1" {
			t.Fatalf("expected claims in context, got %q", w.Body.String())
		}
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	shortLived := service.NewTokenService("secret", time.Nanosecond)
	router := newProtectedRouter(shortLived)

	pair, err := shortLived.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}
