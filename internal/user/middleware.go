package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"medicare-backend/internal/platform/httpx"
)

type contextKey struct{}

func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the user the auth middleware attached.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok && u != nil
}

// Authenticator resolves the session cookie into a user and enforces the
// role a route needs.
type Authenticator struct {
	users  Repository
	tokens *Tokens
}

func NewAuthenticator(users Repository, tokens *Tokens) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

func (a *Authenticator) RequirePatient(next http.Handler) http.Handler {
	return a.require(PatientCookie, RolePatient, "User is not authenticated!", next)
}

func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.require(AdminCookie, RoleAdmin, "Dashboard User is not authenticated!", next)
}

func (a *Authenticator) require(cookie string, role Role, missing string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookie)
		if err != nil || c.Value == "" {
			httpx.WriteError(w, httpx.BadRequest(missing))
			return
		}

		id, err := a.tokens.Parse(c.Value)
		if err != nil {
			httpx.WriteError(w, httpx.NewError(http.StatusUnauthorized, "Authentication failed!"))
			return
		}

		u, err := a.users.FindByID(r.Context(), id)
		if errors.Is(err, ErrUserNotFound) {
			httpx.WriteError(w, httpx.NotFound("User not found!"))
			return
		}
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		if u.Role != role {
			httpx.WriteError(w, httpx.NewError(http.StatusForbidden,
				fmt.Sprintf("%s not authorized for this resource!", u.Role)))
			return
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), u)))
	})
}
