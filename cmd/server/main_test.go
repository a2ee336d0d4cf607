package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorsMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCode   int
	}{
		{
			name:       "no list allows any origin",
			origin:     "https://anywhere.example",
			method:     http.MethodGet,
			wantOrigin: "*",
			wantCode:   http.StatusTeapot,
		},
		{
			name:       "listed origin is echoed",
			allowed:    []string{"https://chat.example"},
			origin:     "https://chat.example",
			method:     http.MethodGet,
			wantOrigin: "https://chat.example",
			wantCode:   http.StatusTeapot,
		},
		{
			name:     "unlisted origin gets no header",
			allowed:  []string{"https://chat.example"},
			origin:   "https://evil.example",
			method:   http.MethodGet,
			wantCode: http.StatusTeapot,
		},
		{
			name:       "preflight short-circuits",
			allowed:    []string{"https://chat.example"},
			origin:     "https://chat.example",
			method:     http.MethodOptions,
			wantOrigin: "https://chat.example",
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/online", nil)
			r.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			corsMiddleware(tt.allowed, next).ServeHTTP(rec, r)

			require.Equal(t, tt.wantCode, rec.Code)
			require.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
