// internal/app/features/complaints/status.go
package complaints

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func validStatus(s string) bool {
	switch s {
	case models.StatusOpen, models.StatusInProgress, models.StatusResolved, models.StatusClosed:
		return true
	}
	return false
}

// openStatus reports whether a status counts toward open-complaint
// counters.
func openStatus(s string) bool {
	return s == models.StatusOpen || s == models.StatusInProgress
}

// HandleStatus handles PATCH /complaints/{complaintID}/status. Admins
// only; each change appends to the complaint's status history on every
// copy.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}
	if !isManager(u) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	complaintID := chi.URLParam(r, "complaintID")

	var req statusRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if !validStatus(req.Status) {
		respond.Error(w, http.StatusBadRequest, "status must be open, in_progress, resolved, or closed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	before, err := h.Complaints.GetByID(ctx, complaintID)
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
	if before.CompanyKey != u.CompanyKey {
		respond.Error(w, http.StatusNotFound, "complaint not found")
		return
	}

	updated, err := h.Complaints.UpdateStatus(ctx, complaintID, models.StatusChange{
		Status:    req.Status,
		ChangedAt: time.Now().UTC(),
		ChangedBy: u.ID,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		h.Log.Error("status update failed", zap.Error(err),
			zap.String("complaint_id", complaintID))
		respond.Error(w, http.StatusInternalServerError, "a server error occurred")
		return
	}

	h.enqueueOpenDelta(u, updated, openDelta(before.Status, req.Status))
	h.Notifier.StatusChanged(ctx, updated)

	h.Log.Info("complaint status changed",
		zap.String("complaint_id", complaintID),
		zap.String("from", before.Status),
		zap.String("to", req.Status),
		zap.String("changed_by", u.ID))

	respond.JSON(w, http.StatusOK, updated)
}

// openDelta is the open-complaint counter adjustment for a transition.
func openDelta(from, to string) int64 {
	switch {
	case openStatus(from) && !openStatus(to):
		return -1
	case !openStatus(from) && openStatus(to):
		return 1
	}
	return 0
}

// enqueueOpenDelta fires the advisory open-counter adjustments.
func (h *Handler) enqueueOpenDelta(u *auth.SessionUser, c models.Complaint, delta int64) {
	if delta == 0 {
		return
	}
	var updates []statqueue.Update
	if deptID, err := primitive.ObjectIDFromHex(c.AssignedDepartment.ID); err == nil {
		updates = append(updates, statqueue.DepartmentCounters(deptID, 0, delta))
	}
	if companyID, err := primitive.ObjectIDFromHex(u.CompanyID); err == nil {
		updates = append(updates, statqueue.CompanyCounters(companyID, 0, delta))
	}
	h.Stats.Enqueue(updates...)
}
