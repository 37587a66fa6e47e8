// Package auth provides session-cookie and bearer-token authentication
// for the JSON API. Browser clients carry a gorilla session cookie;
// mobile clients carry a JWT issued by the token feature. Both paths
// resolve to the same SessionUser in the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the authenticated identity injected into r.Context().
// It is refreshed from the database on every request via UserFetcher so
// role changes and disabled accounts take effect immediately.
type SessionUser struct {
	ID           string
	Name         string
	Email        string
	Role         string // superadmin | admin | employee
	Designation  string
	CompanyID    string
	CompanyName  string
	CompanyKey   string
	DepartmentID string
	Department   string
}

// UserFetcher loads fresh user data for a user id. Returning nil means
// the user is unknown or disabled and the request proceeds anonymous.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager owns the cookie store and auth middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. In
// production (secure=true) cookies are Secure + SameSite=None; in dev
// they are Lax so plain http://localhost works.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}
	store.Options = opts

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// SetUserFetcher installs the per-request user refresh source.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SignIn records the user id in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// CurrentUser returns the authenticated user from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user directly into the request context,
// bypassing cookies and tokens. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser resolves the caller's identity (cookie first, then
// bearer token) and injects it into the context. Stale or undecodable
// cookies are treated as anonymous, not as errors.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := sm.sessionUserID(r); userID != "" {
			if u := sm.resolve(r.Context(), userID); u != nil {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// LoadBearerUser resolves a JWT from the Authorization header using the
// given verifier. Mounted alongside LoadSessionUser so API clients can
// authenticate without cookies. Invalid tokens proceed anonymous; the
// Require* middleware produces the 401.
func (sm *SessionManager) LoadBearerUser(verify func(token string) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUser(r); !ok {
				if raw := bearerToken(r); raw != "" {
					userID, err := verify(raw)
					if err != nil {
						sm.log.Debug("bearer token rejected", zap.Error(err))
					} else if u := sm.resolve(r.Context(), userID); u != nil {
						r = withUser(r, u)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn rejects anonymous requests with a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects signed-in users lacking one of the allowed roles
// with a JSON 403 (401 when anonymous).
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionUserID extracts the stored user id from the cookie, if any.
func (sm *SessionManager) sessionUserID(r *http.Request) string {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			// Stale or tampered cookie; treat as signed out.
			sm.log.Debug("undecodable session cookie", zap.Error(err))
			return ""
		}
		sm.log.Warn("session read failed", zap.Error(err))
		return ""
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return ""
	}
	id, _ := sess.Values[userIDKey].(string)
	return id
}

// resolve turns a user id into a SessionUser, preferring the fetcher
// for fresh data.
func (sm *SessionManager) resolve(ctx context.Context, userID string) *SessionUser {
	if sm.fetcher == nil {
		return &SessionUser{ID: userID}
	}
	return sm.fetcher.FetchUser(ctx, userID)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, "{\"error\":%q}\n", msg)
}
