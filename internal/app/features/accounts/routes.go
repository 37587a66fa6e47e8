// internal/app/features/accounts/routes.go
package accounts

import "github.com/go-chi/chi/v5"

// Routes returns the account management subrouter. The caller mounts
// it behind admin gating.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{userID}", h.HandleUpdate)
	r.Post("/{userID}/reset-password", h.HandleResetPassword)
	r.Delete("/{userID}", h.HandleDelete)
	return r
}
