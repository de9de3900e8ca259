package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/facegate/facegate/internal/constants"
	"github.com/facegate/facegate/internal/embedder"
	"github.com/facegate/facegate/internal/facematch"
	"github.com/facegate/facegate/internal/imaging"
	"github.com/facegate/facegate/internal/token"
	"github.com/facegate/facegate/internal/web/middleware"
)

// FacesHandler handles face detection and recognition requests.
type FacesHandler struct {
	engine  FaceEngine
	matcher *facematch.Matcher
	tokens  *token.Store
}

// NewFacesHandler creates a new faces handler.
func NewFacesHandler(engine FaceEngine, matcher *facematch.Matcher, tokens *token.Store) *FacesHandler {
	return &FacesHandler{
		engine:  engine,
		matcher: matcher,
		tokens:  tokens,
	}
}

// prepareProbe reads, validates and downscales the uploaded probe image.
func prepareProbe(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	data, _, msg := readImageUpload(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return nil, false
	}

	scaled, err := imaging.Downscale(data, constants.MaxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to process image")
		return nil, false
	}
	return scaled, true
}

// Detect runs the fast has-a-face check without computing an embedding.
func (h *FacesHandler) Detect(w http.ResponseWriter, r *http.Request) {
	probe, ok := prepareProbe(w, r)
	if !ok {
		return
	}

	found, err := h.engine.Detect(r.Context(), probe)
	if err != nil {
		slog.Error("face engine request failed", "error", err)
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"face_detected": found})
}

// Compare matches the probe image against enrolled users. A match within the
// threshold returns the user and a short-lived access token; everything else
// is a 401.
func (h *FacesHandler) Compare(w http.ResponseWriter, r *http.Request) {
	probe, ok := prepareProbe(w, r)
	if !ok {
		return
	}

	embedding, err := h.engine.Represent(r.Context(), probe)
	if errors.Is(err, embedder.ErrNoFace) {
		middleware.SetAction(r.Context(), "face_rejected")
		respondError(w, http.StatusBadRequest, "no face detected in image")
		return
	}
	if err != nil {
		slog.Error("face engine request failed", "error", err)
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	user, distance, matched := h.matcher.Match(embedding)
	if !matched {
		middleware.SetAction(r.Context(), "face_rejected")
		slog.Info("face not recognized", "distance", distance)
		respondError(w, http.StatusUnauthorized, "face not recognized")
		return
	}

	code, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	middleware.SetAction(r.Context(), "face_recognized")
	slog.Info("face recognized", "user", user.ID, "distance", distance)
	respondJSON(w, http.StatusOK, map[string]any{
		"user":     toUserResponse(user),
		"distance": distance,
		"token":    code,
	})
}
