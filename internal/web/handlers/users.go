package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/constants"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/embedder"
	"github.com/facegate/facegate/internal/facematch"
	"github.com/facegate/facegate/internal/imaging"
	"github.com/facegate/facegate/internal/storage"
	"github.com/facegate/facegate/internal/web/middleware"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const maxNameLength = 100

// UsersHandler handles user enrollment and management.
type UsersHandler struct {
	users   database.UserRepository
	index   *database.UserIndex
	matcher *facematch.Matcher
	engine  FaceEngine
	images  *storage.ImageStore
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(
	users database.UserRepository,
	index *database.UserIndex,
	matcher *facematch.Matcher,
	engine FaceEngine,
	images *storage.ImageStore,
) *UsersHandler {
	return &UsersHandler{
		users:   users,
		index:   index,
		matcher: matcher,
		engine:  engine,
		images:  images,
	}
}

// validateUserFields checks names and email, returning a user-facing message
// when something is off.
func validateUserFields(firstName, lastName, email string) string {
	if firstName == "" || lastName == "" {
		return "first_name and last_name are required"
	}
	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		return fmt.Sprintf("names must be at most %d characters", maxNameLength)
	}
	if !emailRegexp.MatchString(email) {
		return "invalid email address"
	}
	return ""
}

// readImageUpload extracts and validates the image file from a multipart
// request. Only JPEG and PNG uploads are accepted.
func readImageUpload(r *http.Request) ([]byte, string, string) {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, "", "image file is required"
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		return nil, "", "failed to read image"
	}
	if len(data) > constants.MaxUploadSize {
		return nil, "", "image too large"
	}

	mimeType := embedder.DetectMIMEType(data)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, "", "only JPEG and PNG images are accepted"
	}

	return data, mimeType, ""
}

// Create enrolls a new user from a multipart form with first_name, last_name,
// email and an image containing exactly one face.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	if msg := validateUserFields(firstName, lastName, email); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	data, mimeType, msg := readImageUpload(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	// Downscale before shipping to the engine; phone uploads are huge and
	// the detector does not benefit past full HD.
	scaled, err := imaging.Downscale(data, constants.MaxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to process image")
		return
	}

	embedding, err := h.engine.Represent(r.Context(), scaled)
	if errors.Is(err, embedder.ErrNoFace) {
		respondError(w, http.StatusBadRequest, "no face detected in image")
		return
	}
	if err != nil {
		slog.Error("face engine request failed", "error", err)
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	if existing, dup := h.matcher.IsDuplicate(embedding); dup {
		slog.Info("duplicate face rejected", "existing_user", existing.ID)
		respondError(w, http.StatusConflict, "face already enrolled for another user")
		return
	}

	imagePath, err := h.images.Save(data, mimeType)
	if err != nil {
		slog.Error("failed to store enrollment image", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	created, err := h.users.Create(r.Context(), &database.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Embedding: embedding,
		ImagePath: imagePath,
	})
	if errors.Is(err, database.ErrDuplicateEmail) {
		_ = h.images.Delete(imagePath)
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		_ = h.images.Delete(imagePath)
		slog.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.index.Add(created)
	middleware.SetAction(r.Context(), "user_created")

	slog.Info("user enrolled", "id", created.ID, "email", sanitizeForLog(created.Email))
	respondJSON(w, http.StatusCreated, toUserResponse(created))
}

// List returns all users. An optional q parameter filters by name with
// diacritics-insensitive matching.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		normalized := facematch.NormalizePersonName(q)
		filtered := users[:0]
		for _, u := range users {
			if strings.Contains(facematch.NormalizePersonName(u.FullName()), normalized) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"count": len(out),
	})
}

// userID parses the id URL parameter.
func userID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Get returns a single user.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		slog.Error("failed to get user", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type updateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Update changes a user's name and email. The enrolled face stays untouched;
// re-enrollment means delete and create.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateUserFields(req.FirstName, req.LastName, req.Email); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		slog.Error("failed to get user", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("failed to update user", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	middleware.SetAction(r.Context(), "user_updated")
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// Delete removes a user, their index entry and their enrollment image.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.Delete(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete user", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	h.index.Delete(id)
	if err := h.images.Delete(user.ImagePath); err != nil {
		slog.Warn("failed to delete enrollment image", "error", err, "id", id)
	}

	middleware.SetAction(r.Context(), "user_deleted")
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
