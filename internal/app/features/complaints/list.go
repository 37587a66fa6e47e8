// internal/app/features/complaints/list.go
package complaints

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/categories"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.uber.org/zap"
)

// HandleList handles GET /complaints. Employees see company-wide
// complaints plus their own department's; admins see everything in the
// company. Optional filters: scope, status, urgency, department, limit.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}

	q := r.URL.Query()
	filter := complaintstore.ListFilter{
		CompanyKey: u.CompanyKey,
		Scope:      q.Get("scope"),
		Status:     q.Get("status"),
		Urgency:    q.Get("urgency"),
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.Limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	complaints, err := h.listVisible(ctx, u, filter, q.Get("department"))
	if err != nil {
		h.Log.Error("complaint list failed", zap.Error(err),
			zap.String("company_key", u.CompanyKey))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	respond.JSON(w, http.StatusOK, complaints)
}

// listVisible applies the role-based visibility rule on top of the
// requested filters.
func (h *Handler) listVisible(ctx context.Context, u *auth.SessionUser, filter complaintstore.ListFilter, requestedDept string) ([]models.Complaint, error) {
	if isManager(u) {
		filter.Department = requestedDept
		return h.Complaints.List(ctx, filter)
	}

	// Employees: global complaints plus their own department's.
	switch filter.Scope {
	case "global":
		return h.Complaints.List(ctx, filter)
	case "department":
		filter.Department = sanitizedDept(u)
		if filter.Department == "" {
			return []models.Complaint{}, nil
		}
		return h.Complaints.List(ctx, filter)
	default:
		// Both scopes: two reads merged, newest first.
		globalFilter := filter
		globalFilter.Scope = "global"
		global, err := h.Complaints.List(ctx, globalFilter)
		if err != nil {
			return nil, err
		}

		deptFilter := filter
		deptFilter.Scope = "department"
		deptFilter.Department = sanitizedDept(u)
		var dept []models.Complaint
		if deptFilter.Department != "" {
			dept, err = h.Complaints.List(ctx, deptFilter)
			if err != nil {
				return nil, err
			}
		}
		return mergeNewestFirst(global, dept), nil
	}
}

// HandleSearch handles GET /complaints/search?q=…
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respond.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Complaints.Search(ctx, u.CompanyKey, query, limit)
	if err != nil {
		h.Log.Error("complaint search failed", zap.Error(err),
			zap.String("company_key", u.CompanyKey))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	// Employees only see entries their role permits.
	if !isManager(u) {
		visible := entries[:0]
		ownDept := strings.ToLower(u.Department)
		for _, e := range entries {
			if e.IsGlobal || (ownDept != "" && e.DepartmentLower == ownDept) {
				visible = append(visible, e)
			}
		}
		entries = visible
	}

	respond.JSON(w, http.StatusOK, entries)
}

func isManager(u *auth.SessionUser) bool {
	return u.Role == "admin" || u.Role == "superadmin"
}

func sanitizedDept(u *auth.SessionUser) string {
	if u.Department == "" {
		return ""
	}
	return categories.Sanitize(u.Department)
}

func mergeNewestFirst(a, b []models.Complaint) []models.Complaint {
	out := make([]models.Complaint, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].CreatedAt.After(b[j].CreatedAt) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
