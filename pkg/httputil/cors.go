package httputil

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is a list of origins allowed to make cross-origin requests.
	// If empty or containing "*", all origins are allowed.
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST, PUT, PATCH, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Content-Type, Authorization, X-Request-ID.
	AllowedHeaders []string

	// AllowCredentials echoes the concrete origin instead of "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default: 86400.
	MaxAge int
}

// DefaultCORSConfig allows every origin, like the cors() default of most
// web frameworks.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		MaxAge:         86400,
	}
}

func (c CORSConfig) wildcard() bool {
	return len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*")
}

// allowOrigin returns the Access-Control-Allow-Origin value, or "" if the
// origin is not allowed.
func (c CORSConfig) allowOrigin(origin string) string {
	allowed := c.wildcard() || slices.Contains(c.AllowedOrigins, origin)
	if c.AllowCredentials {
		if allowed && origin != "" {
			return origin
		}
		return ""
	}
	if c.wildcard() {
		return "*"
	}
	if allowed {
		return origin
	}
	return ""
}

func (c CORSConfig) methods() string {
	if len(c.AllowedMethods) == 0 {
		return "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	return strings.Join(c.AllowedMethods, ", ")
}

func (c CORSConfig) headers() string {
	if len(c.AllowedHeaders) == 0 {
		return "Content-Type, Authorization, X-Request-ID"
	}
	return strings.Join(c.AllowedHeaders, ", ")
}

func (c CORSConfig) maxAge() string {
	if c.MaxAge <= 0 {
		return "86400"
	}
	return strconv.Itoa(c.MaxAge)
}

// CORS returns a middleware that adds CORS headers and answers preflight
// requests with 204. Disallowed origins are still served; the browser
// blocks the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := cfg.allowOrigin(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", cfg.methods())
			h.Set("Access-Control-Allow-Headers", cfg.headers())
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
			h.Set("Access-Control-Max-Age", cfg.maxAge())
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
