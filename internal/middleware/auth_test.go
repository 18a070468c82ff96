package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := AuthMiddleware(next)

	tests := []struct {
		name     string
		path     string
		cookie   string
		expected int
	}{
		{"login page is public", "/login", "", http.StatusTeapot},
		{"login endpoint is public", "/auth/login", "", http.StatusTeapot},
		{"static is public", "/static/app.js", "", http.StatusTeapot},
		{"api without cookie", "/api/sheets", "", http.StatusUnauthorized},
		{"logs without cookie", "/logs/info", "", http.StatusUnauthorized},
		{"page without cookie", "/", "", http.StatusSeeOther},
		{"wrong cookie", "/api/sheets", "false", http.StatusUnauthorized},
		{"authenticated", "/api/sheets", "true", http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "authenticated", Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}
