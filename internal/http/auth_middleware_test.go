package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"emotion-diary/internal/service"
)

func TestOperatorAuthMiddleware_AllowsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService("secret", time.Hour)
	token, _, err := tokens.Issue("ops")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/protected", OperatorAuthMiddleware(tokens), func(c *gin.Context) {
		claims, ok := GetOperatorClaims(c)
		if !ok || claims.Operator != "ops" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOperatorAuthMiddleware_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		tokens *service.TokenService
		header string
		want   int
	}{
		{"missing token", service.NewTokenService("secret", time.Hour), "", http.StatusUnauthorized},
		{"garbage token", service.NewTokenService("secret", time.Hour), "Bearer nope", http.StatusUnauthorized},
		{"no secret", service.NewTokenService("", time.Hour), "Bearer nope", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/protected", OperatorAuthMiddleware(tc.tokens), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}
