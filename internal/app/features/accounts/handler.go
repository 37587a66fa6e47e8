// Package accounts is the admin surface for provisioning employee and
// admin accounts. There is no self-registration; every account is
// created here (or seeded at startup) with a generated temporary
// password or a Google-linked email.
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	userstore "github.com/crewvoice/crewvoice/internal/app/store/users"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type createRequest struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Designation  string `json:"designation"`
	DepartmentID string `json:"department_id"`
	AuthMethod   string `json:"auth_method"` // "password" (default) or "google"
}

type accountResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Designation  string `json:"designation,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	AuthMethod   string `json:"auth_method"`
	Status       string `json:"status"`

	// TempPassword is set only in the creation response; it is shown
	// once and never stored in the clear.
	TempPassword string `json:"temp_password,omitempty"`
}

func toResponse(u models.User) accountResponse {
	resp := accountResponse{
		ID:          u.ID.Hex(),
		FullName:    u.FullName,
		Email:       u.Email,
		Role:        u.Role,
		Designation: u.Designation,
		AuthMethod:  u.AuthMethod,
		Status:      u.Status,
	}
	if u.DepartmentID != nil {
		resp.DepartmentID = u.DepartmentID.Hex()
	}
	return resp
}

// HandleCreate handles POST /accounts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "full_name and email are required")
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = "employee"
	}
	switch role {
	case "employee", "admin":
	default:
		respond.Error(w, http.StatusBadRequest, "role must be employee or admin")
		return
	}

	user := models.User{
		FullName:    req.FullName,
		Email:       req.Email,
		Role:        role,
		Designation: strings.TrimSpace(req.Designation),
		AuthMethod:  req.AuthMethod,
	}

	// Accounts are always created inside the calling admin's company.
	if caller.CompanyID != "" {
		companyID, err := primitive.ObjectIDFromHex(caller.CompanyID)
		if err == nil {
			user.CompanyID = &companyID
		}
	}
	if req.DepartmentID != "" {
		deptID, err := primitive.ObjectIDFromHex(req.DepartmentID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid department_id")
			return
		}
		user.DepartmentID = &deptID
	}

	tempPassword := ""
	if user.AuthMethod != "google" {
		tempPassword = uuid.NewString()[:12]
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Users.Create(ctx, user, tempPassword)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("accounts: create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.Log.Info("account created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role),
		zap.String("created_by", caller.ID))

	resp := toResponse(created)
	resp.TempPassword = tempPassword
	respond.JSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /accounts: all users in the caller's company.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r)
	if !ok || caller.CompanyID == "" {
		respond.Error(w, http.StatusForbidden, "no company context")
		return
	}
	companyID, err := primitive.ObjectIDFromHex(caller.CompanyID)
	if err != nil {
		respond.Error(w, http.StatusForbidden, "no company context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, bson.M{"company_id": companyID})
	if err != nil {
		h.Log.Error("accounts: list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	out := make([]accountResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleUpdate handles PATCH /accounts/{userID}: profile, role,
// department, or status changes.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		FullName     string `json:"full_name"`
		Role         string `json:"role"`
		Designation  string `json:"designation"`
		Status       string `json:"status"`
		DepartmentID string `json:"department_id"`
	}
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	update := models.User{
		FullName:    strings.TrimSpace(req.FullName),
		Role:        strings.ToLower(strings.TrimSpace(req.Role)),
		Designation: strings.TrimSpace(req.Designation),
		Status:      req.Status,
	}
	if req.DepartmentID != "" {
		deptID, err := primitive.ObjectIDFromHex(req.DepartmentID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid department_id")
			return
		}
		update.DepartmentID = &deptID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.Update(ctx, id, update); err != nil {
		h.Log.Error("accounts: update failed", zap.Error(err),
			zap.String("user_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(user))
}

// HandleResetPassword handles POST /accounts/{userID}/reset-password:
// generates and returns a fresh temporary password.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}

	tempPassword := uuid.NewString()[:12]
	if err := h.Users.SetPassword(ctx, id, tempPassword); err != nil {
		h.Log.Error("accounts: password reset failed", zap.Error(err),
			zap.String("user_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.Log.Info("password reset", zap.String("user_id", id.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"temp_password": tempPassword})
}

// HandleDelete handles DELETE /accounts/{userID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Users.Delete(ctx, id)
	if err != nil {
		h.Log.Error("accounts: delete failed", zap.Error(err),
			zap.String("user_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}
	if n == 0 {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.Log.Info("account deleted", zap.String("user_id", id.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
