// Package profile serves the signed-in user's own account: viewing it
// and, for password-authenticated accounts, changing the password.
package profile

import (
	userstore "github.com/crewvoice/crewvoice/internal/app/store/users"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}
