// Package asset stores site photos and survey images that plans trace over.
// Uploads are re-encoded as PNG and answered with a ready-to-place image node.
package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string        `json:"id"`
	URL    string        `json:"url"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Type   string        `json:"type"`
	Name   string        `json:"name"`
	Node   document.Node `json:"node"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir    string // directory to store asset files
	logger *slog.Logger
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, logger: logger}
}

// Upload handles POST /assets/upload: a multipart form with a "file" field
// and an optional "scale" field in inches per pixel (default 1).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	scale := 1.0
	if v := r.FormValue("scale"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || s <= 0 {
			http.Error(w, "scale must be a positive number", http.StatusBadRequest)
			return
		}
		scale = s
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	filePath := filepath.Join(h.dir, filename)

	out, err := os.Create(filePath)
	if err != nil {
		h.logger.Error("create asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		h.logger.Error("encode png", "error", err)
		os.Remove(filePath)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	url := fmt.Sprintf("/assets/%s", filename)
	resp := UploadResponse{
		ID:     assetID,
		URL:    url,
		Width:  width,
		Height: height,
		Type:   "png",
		Name:   header.Filename,
		Node:   BackdropNode(assetID, url, float64(width)*scale, float64(height)*scale),
	}
	h.logger.Info("asset uploaded", "id", assetID, "width", width, "height", height)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// BackdropNode returns an image node of the given world size with its top
// left corner at the origin.
func BackdropNode(assetID, url string, width, height float64) document.Node {
	return document.Node{
		ID:        document.NewNodeID(document.KindImage),
		Kind:      document.KindImage,
		Transform: document.Transform{X: width / 2, Y: height / 2},
		Width:     width,
		Height:    height,
		Image:     &document.ImageData{AssetID: assetID, URL: url},
	}
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
