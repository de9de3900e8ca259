package handlers

import (
	"log/slog"
	"net/http"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/token"
	"github.com/facegate/facegate/internal/web/middleware"
)

// TokensHandler issues and redeems access tokens outside the face flow.
type TokensHandler struct {
	tokens *token.Store
	users  database.UserRepository
}

// NewTokensHandler creates a new tokens handler.
func NewTokensHandler(tokens *token.Store, users database.UserRepository) *TokensHandler {
	return &TokensHandler{tokens: tokens, users: users}
}

type createTokenRequest struct {
	UserID int64 `json:"user_id"`
}

// Create issues a token for a known user without a face match. Meant for
// integration testing of downstream token consumers.
func (h *TokensHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	user, err := h.users.Get(r.Context(), req.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err, "id", req.UserID)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	code, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	middleware.SetAction(r.Context(), "token_issued")
	respondJSON(w, http.StatusCreated, map[string]any{
		"token":   code,
		"user_id": user.ID,
	})
}

type loginRequest struct {
	Token string `json:"token"`
}

// Login redeems a token issued by a face match. Tokens are single-use.
func (h *TokensHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	userID, ok := h.tokens.Redeem(req.Token)
	if !ok {
		middleware.SetAction(r.Context(), "login_rejected")
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get user", "error", err, "id", userID)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		// User deleted between issue and redeem.
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	middleware.SetAction(r.Context(), "login_succeeded")
	respondJSON(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}
