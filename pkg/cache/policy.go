package cache

import (
	"net/http"
	"strings"
)

// Reasons a response is kept out of the stores.
const (
	SkipNotOK       = "not_ok"
	SkipPartial     = "partial_content"
	SkipCredentials = "credentials"
	SkipSetCookie   = "set_cookie"
	SkipNoStore     = "no_store"
	SkipVaryAll     = "vary_all"
)

const varyAll = "*"

// Stores are shared by every client of the edge, so responses shaped by
// one client's credentials or byte range never enter them.

// SkipReason reports why resp, fetched for req, must not be stored, or ""
// when it may be. A nil req stands for a bare request with no headers.
func SkipReason(req *http.Request, resp *http.Response) string {
	switch {
	case !IsOK(resp):
		return SkipNotOK
	case resp.StatusCode == http.StatusPartialContent:
		return SkipPartial
	case req != nil && req.Header.Get("Range") != "":
		return SkipPartial
	case req != nil && (req.Header.Get("Authorization") != "" || req.Header.Get("Cookie") != ""):
		return SkipCredentials
	case len(resp.Header.Values("Set-Cookie")) > 0:
		return SkipSetCookie
	case hasDirective(resp.Header, "Cache-Control", "no-store", "private"):
		return SkipNoStore
	case hasDirective(resp.Header, "Vary", varyAll):
		return SkipVaryAll
	}
	return ""
}

// VaryValues records, for every header named in the response's Vary, the
// value req sent. Accept-Encoding is left out: stored bodies are always
// decoded. Returns nil when the response does not vary.
func VaryValues(req *http.Request, respHeader http.Header) map[string]string {
	var values map[string]string
	for _, line := range respHeader.Values("Vary") {
		for _, name := range strings.Split(line, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == varyAll {
				return map[string]string{varyAll: varyAll}
			}
			name = http.CanonicalHeaderKey(name)
			if name == "Accept-Encoding" {
				continue
			}
			if values == nil {
				values = make(map[string]string)
			}
			values[name] = headerValue(req, name)
		}
	}
	return values
}

func headerValue(req *http.Request, name string) string {
	if req == nil {
		return ""
	}
	vv := req.Header.Values(name)
	trimmed := make([]string, len(vv))
	for i, v := range vv {
		trimmed[i] = strings.TrimSpace(v)
	}
	return strings.Join(trimmed, ",")
}

// hasDirective reports whether any comma-separated token of header equals
// one of the directives, ignoring case and arguments.
func hasDirective(h http.Header, header string, directives ...string) bool {
	for _, line := range h.Values(header) {
		for _, token := range strings.Split(line, ",") {
			token = strings.TrimSpace(token)
			if i := strings.IndexByte(token, '='); i >= 0 {
				token = token[:i]
			}
			for _, d := range directives {
				if strings.EqualFold(token, d) {
					return true
				}
			}
		}
	}
	return false
}
