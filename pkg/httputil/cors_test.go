package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		config      CORSConfig
		origin      string
		wantOrigin  string
		wantCreds   bool
		wantHeaders bool
	}{
		{
			name:        "wildcard",
			config:      DefaultCORSConfig(),
			origin:      "http://a.example",
			wantOrigin:  "*",
			wantHeaders: true,
		},
		{
			name:        "explicit allowed origin",
			config:      CORSConfig{AllowedOrigins: []string{"http://a.example"}},
			origin:      "http://a.example",
			wantOrigin:  "http://a.example",
			wantHeaders: true,
		},
		{
			name:   "explicit disallowed origin",
			config: CORSConfig{AllowedOrigins: []string{"http://a.example"}},
			origin: "http://evil.example",
		},
		{
			name:        "credentials echo origin",
			config:      CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			origin:      "http://b.example",
			wantOrigin:  "http://b.example",
			wantCreds:   true,
			wantHeaders: true,
		},
		{
			name:   "credentials without origin",
			config: CORSConfig{AllowCredentials: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.config)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantHeaders, rec.Header().Get("Access-Control-Allow-Methods") != "")
			if tt.wantCreds {
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS(CORSConfig{AllowedMethods: []string{"GET", "POST"}, MaxAge: 60})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://a.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
}
