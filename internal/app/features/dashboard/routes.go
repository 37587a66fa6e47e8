// internal/app/features/dashboard/routes.go
package dashboard

import "github.com/go-chi/chi/v5"

// Routes returns the dashboard subrouter. Mount behind the admin role
// gate; the handler splits admin vs superadmin views itself.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleDashboard)
	return r
}
