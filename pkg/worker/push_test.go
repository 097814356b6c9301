package worker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushNotification(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	n := PushNotification(now)

	assert.Equal(t, "Portfolio Update", n.Title)
	assert.Equal(t, "New project added to portfolio!", n.Body)
	assert.Equal(t, "/icons/icon-192x192.png", n.Icon)
	assert.Equal(t, "/icons/icon-72x72.png", n.Badge)
	assert.Equal(t, []int{200, 100, 200}, n.Vibrate)
	assert.Equal(t, int64(1_700_000_000_000), n.Data.DateOfArrival)
	assert.Equal(t, 1, n.Data.PrimaryKey)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"actions":[{"action":"explore","title":"View Projects"`)
	assert.Contains(t, string(data), `"dateOfArrival":1700000000000`)
}

func TestNotificationClickTarget(t *testing.T) {
	tests := []struct {
		action string
		want   string
		ok     bool
	}{
		{ActionExplore, "/projects", true},
		{ActionClose, "", false},
		{"", "/", true},
		{"something-else", "/", true},
	}

	for _, tt := range tests {
		target, ok := NotificationClickTarget(tt.action)
		assert.Equal(t, tt.want, target, tt.action)
		assert.Equal(t, tt.ok, ok, tt.action)
	}
}

func TestShareTarget(t *testing.T) {
	origin := newFakeOrigin()
	w, storage := newTestWorker(t, origin, nil)

	form := url.Values{"title": {"Look"}, "text": {"nice work"}, "url": {"https://example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/share", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.Handle(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?shared=true", resp.Header.Get("Location"))
	assert.Equal(t, 0, origin.callsFor("/share"))

	names, _ := storage.Names(req.Context())
	assert.Empty(t, names)
}

func TestShareTarget_Multipart(t *testing.T) {
	w, _ := newTestWorker(t, newFakeOrigin(), nil)

	body := "--b\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n\r\nShot\r\n" +
		"--b\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"shot.png\"\r\n" +
		"Content-Type: image/png\r\n\r\npng\r\n" +
		"--b--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/share", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

	resp, err := w.Handle(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}
