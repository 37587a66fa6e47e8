// Package departments is the admin surface for managing a company's
// departments, the targets of complaint category resolution.
package departments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Departments *departmentstore.Store
	Log         *zap.Logger
}

func NewHandler(departments *departmentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Departments: departments, Log: logger}
}

type departmentRequest struct {
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Status string   `json:"status"`
}

type departmentResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	SanitizedName   string   `json:"sanitized_name"`
	Roles           []string `json:"roles"`
	MemberCount     int      `json:"member_count"`
	Status          string   `json:"status"`
	TotalComplaints int64    `json:"total_complaints"`
	OpenComplaints  int64    `json:"open_complaints"`
}

func toResponse(d models.Department) departmentResponse {
	return departmentResponse{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		SanitizedName:   d.SanitizedName,
		Roles:           d.Roles,
		MemberCount:     d.MemberCount,
		Status:          d.Status,
		TotalComplaints: d.TotalComplaints,
		OpenComplaints:  d.OpenComplaints,
	}
}

// callerCompanyID resolves the signed-in admin's company.
func callerCompanyID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyID == "" {
		respond.Error(w, http.StatusForbidden, "no company context")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.CompanyID)
	if err != nil {
		respond.Error(w, http.StatusForbidden, "no company context")
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleList handles GET /departments: the caller's company's active
// departments.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompanyID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	depts, err := h.Departments.ActiveForCompany(ctx, companyID)
	if err != nil {
		h.Log.Error("departments: list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	out := make([]departmentResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, toResponse(d))
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /departments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompanyID(w, r)
	if !ok {
		return
	}

	var req departmentRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respond.Error(w, http.StatusBadRequest, "department name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Departments.Create(ctx, models.Department{
		CompanyID: companyID,
		Name:      req.Name,
		Roles:     req.Roles,
		Status:    req.Status,
	})
	if err != nil {
		if errors.Is(err, departmentstore.ErrDuplicateDepartment) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("departments: create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.Log.Info("department created",
		zap.String("department_id", created.ID.Hex()),
		zap.String("name", created.Name))
	respond.JSON(w, http.StatusCreated, toResponse(created))
}

// HandleGet handles GET /departments/{departmentID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompanyID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dept, err := h.Departments.GetByID(ctx, id)
	if err != nil || dept.CompanyID != companyID {
		respond.Error(w, http.StatusNotFound, "department not found")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(dept))
}

// HandleUpdate handles PATCH /departments/{departmentID}. Renames do
// not rewrite snapshots frozen into existing complaints.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompanyID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req departmentRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dept, err := h.Departments.GetByID(ctx, id)
	if err != nil || dept.CompanyID != companyID {
		respond.Error(w, http.StatusNotFound, "department not found")
		return
	}

	err = h.Departments.Update(ctx, id, models.Department{
		Name:   strings.TrimSpace(req.Name),
		Roles:  req.Roles,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, departmentstore.ErrDuplicateDepartment) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("departments: update failed", zap.Error(err),
			zap.String("department_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	updated, err := h.Departments.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "department not found")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(updated))
}

// HandleDelete handles DELETE /departments/{departmentID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := callerCompanyID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dept, err := h.Departments.GetByID(ctx, id)
	if err != nil || dept.CompanyID != companyID {
		respond.Error(w, http.StatusNotFound, "department not found")
		return
	}

	if _, err := h.Departments.Delete(ctx, id); err != nil {
		h.Log.Error("departments: delete failed", zap.Error(err),
			zap.String("department_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.Log.Info("department deleted", zap.String("department_id", id.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "departmentID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid department id")
		return primitive.NilObjectID, false
	}
	return id, true
}
