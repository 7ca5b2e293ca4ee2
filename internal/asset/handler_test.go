package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/verdant/verdant/editor-go/internal/document"
)

func uploadRequest(t *testing.T, contentType string, body []byte, scale string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if scale != "" {
		if err := mw.WriteField("scale", scale); err != nil {
			t.Fatal(err)
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="yard.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(body)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestHandler(t *testing.T) (*Handler, string) {
	dir := t.TempDir()
	return NewHandler(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func TestUploadReturnsBackdropNode(t *testing.T) {
	h, dir := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/png", pngBytes(t, 40, 30), "2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 40 || resp.Height != 30 || resp.Name != "yard.png" {
		t.Errorf("response = %+v", resp)
	}
	n := resp.Node
	if n.Kind != document.KindImage || n.Width != 80 || n.Height != 60 || n.Transform.X != 40 || n.Transform.Y != 30 {
		t.Errorf("node = %+v", n)
	}
	if n.Image == nil || n.Image.AssetID != resp.ID || n.Image.URL != resp.URL {
		t.Errorf("image data = %+v", n.Image)
	}
	if _, err := os.Stat(filepath.Join(dir, resp.ID+".png")); err != nil {
		t.Errorf("asset not stored: %v", err)
	}

	get := httptest.NewRecorder()
	h.Serve().ServeHTTP(get, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if get.Code != http.StatusOK || get.Header().Get("Cache-Control") == "" {
		t.Errorf("serve = %d, cache %q", get.Code, get.Header().Get("Cache-Control"))
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		scale       string
	}{
		{"not an image type", "text/plain", []byte("hello"), ""},
		{"corrupt image", "image/png", []byte("not a png"), ""},
		{"bad scale", "image/png", nil, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			body := tt.body
			if body == nil {
				body = pngBytes(t, 4, 4)
			}
			rec := httptest.NewRecorder()
			h.Upload(rec, uploadRequest(t, tt.contentType, body, tt.scale))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
