// Package complaints is the heart of the API: complaint submission
// with category resolution and attachment upload, filtered reads,
// status transitions, deletion, and the live update stream.
package complaints

import (
	complaintstore "github.com/crewvoice/crewvoice/internal/app/store/complaints"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	"github.com/crewvoice/crewvoice/internal/app/system/hub"
	"github.com/crewvoice/crewvoice/internal/app/system/notify"
	"github.com/crewvoice/crewvoice/internal/app/system/statqueue"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

type Handler struct {
	Complaints  *complaintstore.Store
	Departments *departmentstore.Store
	Storage     storage.Store
	StorageURL  string // URL prefix for serving locally stored attachments
	Stats       *statqueue.Queue
	Notifier    *notify.Notifier
	Hub         *hub.Hub
	Log         *zap.Logger
}

func NewHandler(
	complaints *complaintstore.Store,
	departments *departmentstore.Store,
	store storage.Store,
	storageURL string,
	stats *statqueue.Queue,
	notifier *notify.Notifier,
	h *hub.Hub,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Complaints:  complaints,
		Departments: departments,
		Storage:     store,
		StorageURL:  storageURL,
		Stats:       stats,
		Notifier:    notifier,
		Hub:         h,
		Log:         logger,
	}
}
