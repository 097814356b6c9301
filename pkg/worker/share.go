package worker

import (
	"errors"
	"net/http"
)

const (
	sharePath     = "/share"
	shareRedirect = "/?shared=true"

	// maxShareMemory bounds the multipart form kept in memory.
	maxShareMemory = 10 << 20
)

// handleShare accepts a share target submission and redirects the client
// back into the app.
func (w *Worker) handleShare(req *http.Request) *http.Response {
	if err := req.ParseMultipartForm(maxShareMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		w.logger.Warn().Err(err).Msg("Failed to parse shared content")
	}

	event := w.logger.Info().
		Str("title", req.FormValue("title")).
		Str("text", req.FormValue("text")).
		Str("url", req.FormValue("url"))
	if req.MultipartForm != nil {
		if files := req.MultipartForm.File["file"]; len(files) > 0 {
			event = event.Str("file", files[0].Filename).Int64("file_size", files[0].Size)
		}
	}
	event.Msg("Shared content received")

	header := http.Header{}
	header.Set("Location", shareRedirect)
	return &http.Response{
		Status:     "303 See Other",
		StatusCode: http.StatusSeeOther,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
		Body:       http.NoBody,
		Request:    req,
	}
}
