// internal/app/features/complaints/view.go
package complaints

import (
	"context"
	"errors"
	"net/http"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleView handles GET /complaints/{complaintID}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}
	complaintID := chi.URLParam(r, "complaintID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, complaintstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "complaint not found")
			return
		}
		h.Log.Error("complaint read failed", zap.Error(err),
			zap.String("complaint_id", complaintID))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	if !canSee(u, c) {
		// Indistinguishable from a missing complaint.
		respond.Error(w, http.StatusNotFound, "complaint not found")
		return
	}

	respond.JSON(w, http.StatusOK, c)
}

// canSee applies per-complaint visibility: same company, and for
// employees either a company-wide complaint, their own department's,
// or their own submission.
func canSee(u *auth.SessionUser, c models.Complaint) bool {
	if c.CompanyKey != u.CompanyKey {
		return false
	}
	if isManager(u) || c.IsGlobal {
		return true
	}
	if c.Submitter.ID == u.ID {
		return true
	}
	dept := sanitizedDept(u)
	return dept != "" && c.AssignedDepartment.SanitizedName == dept
}
