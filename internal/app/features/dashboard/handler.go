// Package dashboard reports the advisory complaint counters: per-company
// aggregates for superadmins, per-department breakdowns for company
// admins. Counters are best-effort by design, so the numbers here are
// operational signals, not an audited ledger.
package dashboard

import (
	companystore "github.com/crewvoice/crewvoice/internal/app/store/companies"
	departmentstore "github.com/crewvoice/crewvoice/internal/app/store/departments"
	"go.uber.org/zap"
)

type Handler struct {
	Companies   *companystore.Store
	Departments *departmentstore.Store
	Log         *zap.Logger
}

func NewHandler(companies *companystore.Store, departments *departmentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Companies: companies, Departments: departments, Log: logger}
}
