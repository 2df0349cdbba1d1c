package httpmetrics

import (
	"net/http"
	"strings"
)

// UnmatchedRoute is the route label for requests no handler pattern matched.
// Raw URL paths are never used as labels.
const UnmatchedRoute = "unmatched"

// RouteTemplate returns the route label for a request served by an
// http.ServeMux. It must be called after the mux has dispatched r.
func RouteTemplate(r *http.Request) string {
	return NormalizePattern(r.Pattern)
}

// NormalizePattern converts a ServeMux pattern into a route template:
//
//	"PUT /users/{id}"          -> "/users/:id"
//	"GET /files/{path...}"     -> "/files/*path"
//	"GET /{$}"                 -> "/"
//	"api.example.com/v1/items" -> "/v1/items"
//
// An empty pattern yields UnmatchedRoute.
func NormalizePattern(pattern string) string {
	if pattern == "" {
		return UnmatchedRoute
	}

	// drop "METHOD " and host
	if i := strings.IndexAny(pattern, " \t"); i >= 0 {
		pattern = strings.TrimLeft(pattern[i:], " \t")
	}
	i := strings.IndexByte(pattern, '/')
	if i < 0 {
		return UnmatchedRoute
	}
	path := pattern[i:]
	if !strings.Contains(path, "{") {
		return path
	}

	segments := strings.Split(path, "/")
	out := segments[:0]
	for _, seg := range segments {
		if len(seg) < 2 || seg[0] != '{' || seg[len(seg)-1] != '}' {
			out = append(out, seg)
			continue
		}
		name := seg[1 : len(seg)-1]
		switch {
		case name == "$":
			out = append(out, "")
		case strings.HasSuffix(name, "..."):
			out = append(out, "*"+strings.TrimSuffix(name, "..."))
		default:
			out = append(out, ":"+name)
		}
	}
	return strings.Join(out, "/")
}
