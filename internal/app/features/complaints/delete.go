// internal/app/features/complaints/delete.go
package complaints

import (
	"context"
	"errors"
	"net/http"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /complaints/{complaintID}. Admins can
// delete any complaint in their company; employees only their own.
// All three copies go together; attachment blobs stay behind.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}
	complaintID := chi.URLParam(r, "complaintID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Complaints.GetByID(ctx, complaintID)
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
	if existing.CompanyKey != u.CompanyKey {
		respond.Error(w, http.StatusNotFound, "complaint not found")
		return
	}
	if !isManager(u) && existing.Submitter.ID != u.ID {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	deleted, err := h.Complaints.Delete(ctx, complaintID)
	if err != nil {
		if errors.Is(err, complaintstore.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "complaint not found")
			return
		}
		h.Log.Error("complaint delete failed", zap.Error(err),
			zap.String("complaint_id", complaintID))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	// Advisory counter rollback: total always, open only if it still
	// counted as open.
	openAdj := int64(0)
	if openStatus(deleted.Status) {
		openAdj = -1
	}
	var updates []statqueue.Update
	if deptID, err := primitive.ObjectIDFromHex(deleted.AssignedDepartment.ID); err == nil {
		updates = append(updates, statqueue.DepartmentCounters(deptID, -1, openAdj))
	}
	if companyID, err := primitive.ObjectIDFromHex(u.CompanyID); err == nil {
		updates = append(updates, statqueue.CompanyCounters(companyID, -1, openAdj))
	}
	h.Stats.Enqueue(updates...)

	h.Notifier.ComplaintDeleted(ctx, deleted)

	respond.JSON(w, http.StatusOK, map[string]string{
		"status":       "deleted",
		"complaint_id": complaintID,
	})
}
