// internal/app/features/token/handler.go
package token

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	userstore "github.com/crewvoice/crewvoice/internal/app/store/users"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler issues bearer tokens for API clients that cannot hold a
// session cookie.
type Handler struct {
	Users  *userstore.Store
	Issuer *auth.TokenIssuer
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, issuer *auth.TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Issuer: issuer, Log: logger}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// HandleIssue handles POST /api/token.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("token: authenticate failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	tok, err := h.Issuer.Issue(user.ID.Hex())
	if err != nil {
		h.Log.Error("token: issue failed", zap.Error(err),
			zap.String("user_id", user.ID.Hex()))
		respond.Error(w, http.StatusInternalServerError, "unable to issue token")
		return
	}

	respond.JSON(w, http.StatusOK, tokenResponse{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(h.Issuer.TTL().Seconds()),
	})
}
