package cache

import (
	"maps"
	"net/http"
	"time"
)

// Entry is a cached response snapshot.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Status is the full status line text (e.g. "200 OK")
	Status string `json:"status"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// Body is the complete response body
	Body []byte `json:"body"`

	// CachedAt is when the snapshot was taken
	CachedAt time.Time `json:"cached_at"`

	// Vary holds the request values of the headers the response varies on
	Vary map[string]string `json:"vary,omitempty"`
}

// OK reports whether the snapshot carries a 2xx status.
func (e *Entry) OK() bool {
	return e != nil && e.StatusCode >= 200 && e.StatusCode < 300
}

// Age returns how long ago the snapshot was taken.
func (e *Entry) Age() time.Duration {
	if e == nil || e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &Entry{
		StatusCode: e.StatusCode,
		Status:     e.Status,
		Headers:    e.Headers.Clone(),
		Body:       body,
		CachedAt:   e.CachedAt,
		Vary:       maps.Clone(e.Vary),
	}
}

// Matches reports whether the snapshot may answer req: it must carry a 2xx
// status and req must send the header values recorded in Vary.
func (e *Entry) Matches(req *http.Request) bool {
	if !e.OK() {
		return false
	}
	for name, want := range e.Vary {
		if want == varyAll {
			return false
		}
		if headerValue(req, name) != want {
			return false
		}
	}
	return true
}
