package cache

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name       string
		resp       *http.Response
		wantStatus string
		wantErr    bool
	}{
		{
			name: "valid response",
			resp: &http.Response{
				StatusCode: 200,
				Status:     "200 OK",
				Header: http.Header{
					"Content-Type": []string{"application/json"},
					"Etag":         []string{`"abc123"`},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"projects": []}`))),
			},
			wantStatus: "200 OK",
		},
		{
			name: "missing status text is derived",
			resp: &http.Response{
				StatusCode: 404,
				Header:     http.Header{},
				Body:       io.NopCloser(bytes.NewReader([]byte("not found"))),
			},
			wantStatus: "404 Not Found",
		},
		{
			name: "nil body",
			resp: &http.Response{
				StatusCode: 204,
				Header:     http.Header{},
			},
			wantStatus: "204 No Content",
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var original []byte
			if tt.resp != nil && tt.resp.Body != nil {
				original, _ = io.ReadAll(tt.resp.Body)
				tt.resp.Body = io.NopCloser(bytes.NewReader(original))
			}

			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			// Body was read and restored
			restored, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(restored, original) {
				t.Errorf("restored body = %q, want %q", restored, original)
			}
			if !bytes.Equal(entry.Body, original) {
				t.Errorf("entry body = %q, want %q", entry.Body, original)
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", entry.Status, tt.wantStatus)
			}
			if entry.CachedAt.IsZero() {
				t.Error("CachedAt was not set")
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		StatusCode: 200,
		Status:     "200 OK",
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte("<h1>portfolio</h1>"),
	}
	req := httptest.NewRequest("GET", "/", nil)

	// Two responses from one entry must read independently
	for i := 0; i < 2; i++ {
		resp := EntryToResponse(entry, req)
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != "<h1>portfolio</h1>" {
			t.Errorf("body = %q", body)
		}
		if resp.StatusCode != 200 {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
		if resp.Header.Get("Content-Type") != "text/html" {
			t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
		}
		if resp.ContentLength != int64(len(entry.Body)) {
			t.Errorf("ContentLength = %d", resp.ContentLength)
		}
		if resp.Request != req {
			t.Error("Request not attached")
		}
		resp.Header.Set("Content-Type", "mutated")
	}

	if entry.Headers.Get("Content-Type") != "text/html" {
		t.Error("EntryToResponse leaked header mutations into the entry")
	}

	if EntryToResponse(nil, req) != nil {
		t.Error("EntryToResponse(nil) should return nil")
	}
}

func TestIsOK(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		want bool
	}{
		{"nil", nil, false},
		{"200", &http.Response{StatusCode: 200}, true},
		{"299", &http.Response{StatusCode: 299}, true},
		{"301", &http.Response{StatusCode: 301}, false},
		{"500", &http.Response{StatusCode: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOK(tt.resp); got != tt.want {
				t.Errorf("IsOK() = %v, want %v", got, tt.want)
			}
		})
	}
}
