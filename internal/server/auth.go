package server

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmetso/tasklist/internal/model"
)

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// basicAuth verifies HTTP basic credentials against the stored bcrypt
// hash and attaches the account to the request context.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}

		user, err := s.users.FindByUsername(r.Context(), username)
		if err != nil {
			unauthorized(w)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles guards a route group; the principal must hold at least
// one of the roles.
func (s *Server) requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := principal(r)
			if user == nil || !user.HasAnyRole(roles...) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principal returns the authenticated account, or nil outside the auth
// group.
func principal(r *http.Request) *model.UserAccount {
	user, _ := r.Context().Value(principalKey).(*model.UserAccount)
	return user
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="tasklist"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
