// Package companies is the superadmin surface for provisioning
// companies. The company key, derived from the name at creation, is
// immutable because it is baked into every complaint's hierarchical
// path.
package companies

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	companystore "github.com/crewvoice/crewvoice/internal/app/store/companies"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Companies *companystore.Store
	Log       *zap.Logger
}

func NewHandler(companies *companystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Companies: companies, Log: logger}
}

type companyRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type companyResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Key             string `json:"key"`
	Status          string `json:"status"`
	TotalComplaints int64  `json:"total_complaints"`
	OpenComplaints  int64  `json:"open_complaints"`
}

func toResponse(c models.Company) companyResponse {
	return companyResponse{
		ID:              c.ID.Hex(),
		Name:            c.Name,
		Key:             c.Key,
		Status:          c.Status,
		TotalComplaints: c.Stats.TotalComplaints,
		OpenComplaints:  c.Stats.OpenComplaints,
	}
}

// HandleList handles GET /companies.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	companies, err := h.Companies.List(ctx, bson.M{})
	if err != nil {
		h.Log.Error("companies: list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toResponse(c))
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /companies.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respond.Error(w, http.StatusBadRequest, "company name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Companies.Create(ctx, models.Company{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, companystore.ErrDuplicateCompany) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("companies: create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.Log.Info("company created",
		zap.String("company_id", created.ID.Hex()),
		zap.String("key", created.Key))
	respond.JSON(w, http.StatusCreated, toResponse(created))
}

// HandleGet handles GET /companies/{companyID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	company, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "company not found")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(company))
}

// HandleUpdate handles PATCH /companies/{companyID}. The key is never
// updated.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req companyRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Companies.Update(ctx, id, models.Company{
		Name:   strings.TrimSpace(req.Name),
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, companystore.ErrDuplicateCompany) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("companies: update failed", zap.Error(err),
			zap.String("company_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	company, err := h.Companies.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "company not found")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(company))
}

// HandleDelete handles DELETE /companies/{companyID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Companies.Delete(ctx, id)
	if err != nil {
		h.Log.Error("companies: delete failed", zap.Error(err),
			zap.String("company_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}
	if n == 0 {
		respond.Error(w, http.StatusNotFound, "company not found")
		return
	}

	h.Log.Info("company deleted", zap.String("company_id", id.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "companyID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid company id")
		return primitive.NilObjectID, false
	}
	return id, true
}
