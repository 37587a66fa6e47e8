// internal/app/features/complaints/routes.go
package complaints

import "github.com/go-chi/chi/v5"

// Routes returns the complaint subrouter. The caller mounts it behind
// RequireSignedIn; per-handler checks cover the finer role rules.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)
	r.Get("/", h.HandleList)
	r.Get("/search", h.HandleSearch)
	r.Get("/stream", h.HandleStream)
	r.Get("/{complaintID}", h.HandleView)
	r.Patch("/{complaintID}/status", h.HandleStatus)
	r.Delete("/{complaintID}", h.HandleDelete)
	return r
}
