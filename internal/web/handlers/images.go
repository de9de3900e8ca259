package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/storage"
)

// ImagesHandler serves stored enrollment images from the volume.
type ImagesHandler struct {
	images *storage.ImageStore
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(images *storage.ImageStore) *ImagesHandler {
	return &ImagesHandler{images: images}
}

// Serve streams an image by its volume-relative path.
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	relPath := chi.URLParam(r, "*")
	if relPath == "" {
		respondError(w, http.StatusBadRequest, "image path is required")
		return
	}

	data, err := h.images.Read(relPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}

	contentType := "image/jpeg"
	if strings.HasSuffix(relPath, ".png") {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
