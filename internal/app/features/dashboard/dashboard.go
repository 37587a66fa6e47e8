// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type departmentStats struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	MemberCount     int    `json:"member_count"`
	TotalComplaints int64  `json:"total_complaints"`
	OpenComplaints  int64  `json:"open_complaints"`
}

type companyDashboard struct {
	CompanyID   string              `json:"company_id"`
	CompanyName string              `json:"company_name"`
	Stats       models.CompanyStats `json:"stats"`
	Departments []departmentStats   `json:"departments"`
}

type companySummary struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Key    string              `json:"key"`
	Status string              `json:"status"`
	Stats  models.CompanyStats `json:"stats"`
}

// HandleDashboard handles GET /dashboard. Company admins get their
// company's counters with a per-department breakdown; superadmins get
// the cross-company summary.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if u.Role == "superadmin" {
		h.serveAllCompanies(ctx, w)
		return
	}

	companyID, err := primitive.ObjectIDFromHex(u.CompanyID)
	if err != nil {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}
	h.serveCompany(ctx, w, companyID)
}

func (h *Handler) serveCompany(ctx context.Context, w http.ResponseWriter, companyID primitive.ObjectID) {
	company, err := h.Companies.GetByID(ctx, companyID)
	if err != nil {
		h.Log.Error("company read failed", zap.Error(err),
			zap.String("company_id", companyID.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	depts, err := h.Departments.List(ctx, bson.M{"company_id": companyID})
	if err != nil {
		h.Log.Error("department list failed", zap.Error(err),
			zap.String("company_id", companyID.Hex()))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	out := companyDashboard{
		CompanyID:   company.ID.Hex(),
		CompanyName: company.Name,
		Stats:       company.Stats,
		Departments: make([]departmentStats, 0, len(depts)),
	}
	for _, d := range depts {
		out.Departments = append(out.Departments, departmentStats{
			ID:              d.ID.Hex(),
			Name:            d.Name,
			Status:          d.Status,
			MemberCount:     d.MemberCount,
			TotalComplaints: d.TotalComplaints,
			OpenComplaints:  d.OpenComplaints,
		})
	}

	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) serveAllCompanies(ctx context.Context, w http.ResponseWriter) {
	companies, err := h.Companies.List(ctx, bson.M{})
	if err != nil {
		h.Log.Error("company list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	out := make([]companySummary, 0, len(companies))
	for _, c := range companies {
		out = append(out, companySummary{
			ID:     c.ID.Hex(),
			Name:   c.Name,
			Key:    c.Key,
			Status: c.Status,
			Stats:  c.Stats,
		})
	}

	respond.JSON(w, http.StatusOK, out)
}
