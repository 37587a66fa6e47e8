// internal/app/features/departments/routes.go
package departments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the department subrouter. Listing is open to any
// signed-in user (the submit form needs the live department list);
// mutations sit behind the provided admin middleware.
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Get("/{departmentID}", h.HandleGet)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", h.HandleCreate)
		r.Patch("/{departmentID}", h.HandleUpdate)
		r.Delete("/{departmentID}", h.HandleDelete)
	})
	return r
}
