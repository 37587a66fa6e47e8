// internal/app/features/complaints/submit.go
package complaints

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
	"github.com/crewvoice/crewvoice/internal/app/system/categories"
	"github.com/crewvoice/crewvoice/internal/app/system/classify"
	"github.com/crewvoice/crewvoice/internal/app/system/limits"
	"github.com/crewvoice/crewvoice/internal/app/system/metrics"
	"github.com/crewvoice/crewvoice/internal/app/system/sanitize"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/crewvoice/crewvoice/internal/app/system/timeouts"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxTitleLen = 200

type submitResponse struct {
	Complaint models.Complaint `json:"complaint"`

	// ResolutionKind reports how the category was routed: matched,
	// fallback, or synthetic.
	ResolutionKind string `json:"resolution_kind"`

	// AttachmentError is set when a file was supplied but could not be
	// stored; the complaint is still created without it.
	AttachmentError string `json:"attachment_error,omitempty"`
}

// HandleSubmit handles POST /complaints (multipart form).
//
// The submission sequence is: validate and sanitize, resolve the
// category to a live department, upload the attachment (soft failure),
// build the three denormalized copies, commit them atomically, then
// fire the post-commit effects (counters, notification, metrics).
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSubmitFormBytes())
	if err := r.ParseMultipartForm(limits.MaxAttachmentBytes()); err != nil {
		metrics.SubmitFailed("bad_form")
		respond.Error(w, http.StatusBadRequest, "invalid or oversized form data")
		return
	}

	title := sanitize.Text(r.FormValue("title"))
	description := sanitize.Text(r.FormValue("description"))
	category := sanitize.Text(r.FormValue("category"))
	urgency := r.FormValue("urgency")
	isGlobal := r.FormValue("is_global") == "true"

	if title == "" || description == "" {
		metrics.SubmitFailed("validation")
		respond.Error(w, http.StatusBadRequest, "title and description are required")
		return
	}
	if len(title) > maxTitleLen {
		metrics.SubmitFailed("validation")
		respond.Error(w, http.StatusBadRequest, fmt.Sprintf("title exceeds %d characters", maxTitleLen))
		return
	}
	if !classify.ValidUrgency(urgency) {
		metrics.SubmitFailed("validation")
		respond.Error(w, http.StatusBadRequest, "urgency must be low, medium, high, or critical")
		return
	}

	// The size ceiling is a hard validation check, enforced before any
	// storage or database call. Upload failures later are soft; an
	// oversized file is not.
	if file, header, err := r.FormFile("attachment"); err == nil {
		file.Close()
		if header.Size > limits.MaxAttachmentBytes() {
			metrics.SubmitFailed("validation")
			respond.Error(w, http.StatusBadRequest,
				fmt.Sprintf("attachment exceeds the %d byte limit", limits.MaxAttachmentBytes()))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	resolution := h.resolveCategory(ctx, u, category)
	if resolution.Degraded() {
		h.Log.Warn("category resolution degraded",
			zap.String("category", category),
			zap.String("kind", resolution.Kind.String()),
			zap.String("resolved", resolution.CanonicalName),
			zap.String("company_key", u.CompanyKey))
	}

	complaintID := uuid.NewString()
	now := time.Now().UTC()

	attachment, attachErr := h.uploadAttachment(ctx, r, u.CompanyKey, complaintID, now)

	fanout := complaintstore.BuildFanOut(complaintstore.SubmitInput{
		Title:       title,
		Description: description,
		Category:    category,
		Urgency:     urgency,
		IsGlobal:    isGlobal,
		CompanyKey:  u.CompanyKey,
		Submitter: models.SubmitterSnapshot{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			Company:     u.CompanyName,
			Department:  u.Department,
			Role:        u.Role,
			Designation: u.Designation,
		},
		Resolution: resolution,
		Attachment: attachment,
	}, complaintID, now)

	if err := h.Complaints.Commit(ctx, fanout); err != nil {
		metrics.SubmitFailed("commit")
		h.Log.Error("complaint commit failed", zap.Error(err),
			zap.String("complaint_id", complaintID))
		respond.Error(w, http.StatusInternalServerError, "failed to save complaint")
		return
	}

	// Post-commit effects. All advisory: none can unwind the commit.
	metrics.ComplaintSubmitted(isGlobal)
	h.enqueueSubmitCounters(u, resolution)
	h.Notifier.ComplaintCreated(ctx, fanout.Canonical)

	h.Log.Info("complaint submitted",
		zap.String("complaint_id", complaintID),
		zap.String("path", fanout.Canonical.HierarchicalPath),
		zap.String("department", resolution.CanonicalName),
		zap.String("urgency", fanout.Canonical.Urgency),
		zap.Bool("is_global", isGlobal))

	resp := submitResponse{
		Complaint:      fanout.Canonical,
		ResolutionKind: resolution.Kind.String(),
	}
	if attachErr != "" {
		resp.AttachmentError = attachErr
	}
	respond.JSON(w, http.StatusCreated, resp)
}

// resolveCategory maps the free-form category onto one of the caller's
// company's live departments. Resolution never fails; with no usable
// department list it degrades to a synthetic assignment.
func (h *Handler) resolveCategory(ctx context.Context, u *auth.SessionUser, category string) categories.Resolution {
	var depts []models.Department
	if companyID, err := primitive.ObjectIDFromHex(u.CompanyID); err == nil {
		depts, err = h.Departments.ActiveForCompany(ctx, companyID)
		if err != nil {
			h.Log.Warn("department load failed, resolving synthetically",
				zap.Error(err), zap.String("company_id", u.CompanyID))
			depts = nil
		}
	}
	return categories.Resolve(category, depts)
}

// uploadAttachment stores an optional uploaded file under a key
// namespaced by company, complaint, and upload instant. Failure is
// soft: the complaint proceeds with {has_file:false} and the error
// text is surfaced to the client. The size ceiling has already been
// enforced as a validation check by the time this runs.
func (h *Handler) uploadAttachment(ctx context.Context, r *http.Request, companyKey, complaintID string, now time.Time) (models.Attachment, string) {
	file, header, err := r.FormFile("attachment")
	if err == http.ErrMissingFile {
		return models.Attachment{HasFile: false}, ""
	}
	if err != nil {
		metrics.AttachmentUploadFailed()
		h.Log.Warn("attachment read failed", zap.Error(err),
			zap.String("complaint_id", complaintID))
		return models.Attachment{HasFile: false}, "attachment could not be read"
	}
	defer file.Close()

	if h.Storage == nil {
		metrics.AttachmentUploadFailed()
		h.Log.Warn("attachment dropped, no storage backend configured",
			zap.String("complaint_id", complaintID))
		return models.Attachment{HasFile: false}, "attachment upload failed"
	}

	name := sanitizeFilename(header.Filename)
	path := fmt.Sprintf("%s/complaints/%s/%d-%s", companyKey, complaintID, now.Unix(), name)

	opts := &storage.PutOptions{ContentType: detectContentType(header)}
	if err := h.Storage.Put(ctx, path, file, opts); err != nil {
		metrics.AttachmentUploadFailed()
		h.Log.Warn("attachment upload failed", zap.Error(err),
			zap.String("complaint_id", complaintID),
			zap.String("path", path))
		return models.Attachment{HasFile: false}, "attachment upload failed"
	}

	uploaded := now
	return models.Attachment{
		HasFile:    true,
		URL:        h.StorageURL + "/" + path,
		FileName:   name,
		FileSize:   header.Size,
		UploadedAt: &uploaded,
	}, ""
}

// enqueueSubmitCounters fires the advisory counter increments for a
// successful submission: department, company, and submitter totals.
func (h *Handler) enqueueSubmitCounters(u *auth.SessionUser, resolution categories.Resolution) {
	var updates []statqueue.Update

	if deptID, err := primitive.ObjectIDFromHex(resolution.Department.ID); err == nil {
		updates = append(updates, statqueue.DepartmentCounters(deptID, 1, 1))
	}
	if companyID, err := primitive.ObjectIDFromHex(u.CompanyID); err == nil {
		updates = append(updates, statqueue.CompanyCounters(companyID, 1, 1))
	}
	if userID, err := primitive.ObjectIDFromHex(u.ID); err == nil {
		updates = append(updates, statqueue.UserSubmitted(userID))
	}

	h.Stats.Enqueue(updates...)
}

func detectContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sanitizeFilename strips path components and characters that could be
// problematic in storage keys.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
