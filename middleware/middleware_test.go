package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"minisocial-api/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubParser map[string]string

func (p stubParser) ParseToken(token string) (models.Session, error) {
	if uid, ok := p[token]; ok {
		return models.Session{UserID: uid}, nil
	}
	return models.Session{}, errors.New("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(stubParser{"good": "u1"}), func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, session.UserID)
	})

	cases := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, ""},
		{"Bearer nope", http.StatusUnauthorized, ""},
		{"Token good", http.StatusUnauthorized, ""},
		{"Bearer good", http.StatusOK, "u1"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.status, w.Code)
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Fatalf("header %q: expected body %q, got %q", tc.header, tc.body, w.Body.String())
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Now()

	if ok, _ := rl.Allow("1.2.3.4", now); !ok {
		t.Fatalf("first request denied")
	}
	if ok, _ := rl.Allow("1.2.3.4", now); !ok {
		t.Fatalf("second request denied")
	}
	if ok, remaining := rl.Allow("1.2.3.4", now); ok || remaining != 0 {
		t.Fatalf("third request allowed=%v remaining=%d", ok, remaining)
	}
	if ok, _ := rl.Allow("5.6.7.8", now); !ok {
		t.Fatalf("other client denied")
	}

	rl.Sweep(now.Add(time.Hour))
	if len(rl.limiters) != 0 {
		t.Fatalf("expected idle limiters to be swept, %d left", len(rl.limiters))
	}
}

func TestValidateJSON(t *testing.T) {
	r := gin.New()
	r.Use(ValidateJSON())
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.POST("/api/v1/contents", ok)
	r.POST("/api/v1/contents/:id/like", ok)

	send := func(path, contentType string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("/api/v1/contents", "multipart/form-data; boundary=x"); code != http.StatusNoContent {
		t.Fatalf("multipart upload rejected: %d", code)
	}
	if code := send("/api/v1/contents/p1/like", "multipart/form-data; boundary=x"); code != http.StatusBadRequest {
		t.Fatalf("multipart like accepted: %d", code)
	}
	if code := send("/api/v1/contents/p1/like", "application/json"); code != http.StatusNoContent {
		t.Fatalf("json like rejected: %d", code)
	}
}
