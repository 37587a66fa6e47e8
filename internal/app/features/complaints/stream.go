// internal/app/features/complaints/stream.go
package complaints

import (
	"net/http"

	"github.com/crewvoice/crewvoice/internal/app/features/respond"
	"github.com/crewvoice/crewvoice/internal/app/system/auth"
)

// HandleStream handles GET /complaints/stream: upgrades to a websocket
// subscribed to the caller's visibility scope. Admins watch the whole
// company; employees watch company-wide events plus their department's.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.CompanyKey == "" {
		respond.Error(w, http.StatusForbidden, "account has no company")
		return
	}

	department := ""
	if !isManager(u) {
		department = sanitizedDept(u)
	}

	h.Hub.ServeWS(w, r, u.CompanyKey, department)
}
