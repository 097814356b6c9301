package cache

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestKey is the normalized identity of a cached request.
// The edge serves a single origin, so the host is implied.
type RequestKey struct {
	// Method is the upper-cased HTTP method (e.g. "GET")
	Method string

	// Path is the request path; empty paths normalize to "/"
	Path string

	// Query holds the query parameters
	Query url.Values
}

// KeyFromRequest builds the cache key for an HTTP request.
func KeyFromRequest(req *http.Request) RequestKey {
	if req == nil || req.URL == nil {
		return RequestKey{Method: http.MethodGet, Path: "/"}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return RequestKey{
		Method: method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
	}
}

// KeyForPath builds a GET key for a path that may carry a query string.
func KeyForPath(path string) RequestKey {
	u, err := url.Parse(path)
	if err != nil {
		return RequestKey{Method: http.MethodGet, Path: path}
	}
	return RequestKey{Method: http.MethodGet, Path: u.Path, Query: u.Query()}
}

// String generates a deterministic key string.
// Format: METHOD path[?k1=v1&k2=v2]
//
// Example:
//
//	GET /images/hero.webp?w=1200
func (k RequestKey) String() string {
	method := strings.ToUpper(k.Method)
	if method == "" {
		method = http.MethodGet
	}

	path := k.Path
	if path == "" {
		path = "/"
	}

	var b strings.Builder
	b.Grow(len(method) + len(path) + 16)
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)

	// url.Values.Encode sorts by key
	if len(k.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(k.Query.Encode())
	}

	return b.String()
}
