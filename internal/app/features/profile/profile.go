// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const minPasswordLen = 8

type profileResponse struct {
	ID             string                    `json:"id"`
	FullName       string                    `json:"full_name"`
	Email          string                    `json:"email"`
	Role           string                    `json:"role"`
	Designation    string                    `json:"designation,omitempty"`
	AuthMethod     string                    `json:"auth_method"`
	CompanyName    string                    `json:"company_name,omitempty"`
	Department     string                    `json:"department,omitempty"`
	ComplaintStats models.UserComplaintStats `json:"complaint_stats"`
}

// HandleView handles GET /profile.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("profile read failed", zap.Error(err), zap.String("user_id", u.ID))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	respond.JSON(w, http.StatusOK, profileResponse{
		ID:             user.ID.Hex(),
		FullName:       user.FullName,
		Email:          user.Email,
		Role:           user.Role,
		Designation:    user.Designation,
		AuthMethod:     user.AuthMethod,
		CompanyName:    u.CompanyName,
		Department:     u.Department,
		ComplaintStats: user.ComplaintStats,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /profile/password. Only available
// for password-authenticated accounts; Google accounts have no stored
// credential to change.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		respond.Error(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		respond.Error(w, http.StatusBadRequest, "new password must differ from the current one")
		return
	}

	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("profile read failed", zap.Error(err), zap.String("user_id", u.ID))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}
	if user.AuthMethod != "password" {
		respond.Error(w, http.StatusBadRequest, "password change is only available for password accounts")
		return
	}

	if _, err := h.Users.Authenticate(ctx, user.Email, req.CurrentPassword); err != nil {
		respond.Error(w, http.StatusForbidden, "current password is incorrect")
		return
	}

	if err := h.Users.SetPassword(ctx, id, req.NewPassword); err != nil {
		h.Log.Error("password update failed", zap.Error(err), zap.String("user_id", u.ID))
		respond.Error(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", u.ID))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
