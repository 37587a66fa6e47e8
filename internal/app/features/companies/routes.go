// internal/app/features/companies/routes.go
package companies

import "github.com/go-chi/chi/v5"

// Routes returns the company management subrouter. The caller mounts
// it behind superadmin gating.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{companyID}", h.HandleGet)
	r.Patch("/{companyID}", h.HandleUpdate)
	r.Delete("/{companyID}", h.HandleDelete)
	return r
}
