package api

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gebo/internal/storage"
)

const maxImageBytes = 50 << 20 // 50 MB

// ImageHandler persists pasted images and serves the images directory.
// The save endpoint implements the image-persist contract: a base64 body
// plus an optional filename, answered with {success, filename, path}.
type ImageHandler struct {
	fs     *storage.FS
	logger *slog.Logger
}

// NewImageHandler creates a handler over the library file system.
func NewImageHandler(fs *storage.FS, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{fs: fs, logger: logger}
}

// Save handles POST /images.
func (h *ImageHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	var req ImageSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ImageSaveResponse{Success: false, Error: "invalid JSON body"})
		return
	}
	if req.Data == "" {
		writeJSON(w, http.StatusBadRequest, ImageSaveResponse{Success: false, Error: "data is required"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ImageSaveResponse{Success: false, Error: "data is not valid base64"})
		return
	}

	name := req.Filename
	if name == "" {
		ext := extensionForContent(r.Header.Get("X-Image-Type"))
		name = storage.GeneratedImageName(ext)
	} else {
		name = storage.UniqueImageName(h.fs, name)
	}

	if err := h.fs.WriteImage(name, data); err != nil {
		h.logger.Error("save image failed", slog.String("filename", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ImageSaveResponse{Success: false, Error: "failed to write image"})
		return
	}

	writeJSON(w, http.StatusCreated, ImageSaveResponse{
		Success:  true,
		Filename: name,
		Path:     path.Join("..", "data", "images", name),
	})
}

// Serve handles GET /images/{filename}.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	data, err := h.fs.ReadImage(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = w.Write(data)
}

func extensionForContent(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
