// Package auth is the boundary to the external identity service. The site
// does not implement login, registration, or role storage; it only needs a
// label to stamp on saved entities and an admin gate for the editor routes.
package auth

import "net/http"

// Identity answers the two questions the content pipeline asks about the
// current user.
type Identity interface {
	// UserLabel returns the label stamped into an entity's author field.
	UserLabel() string
	// IsAdmin reports whether the editor surface may be used at all.
	IsAdmin() bool
}

// StaticIdentity is a config-backed Identity used when the deployment
// terminates authentication upstream (reverse proxy or hosted auth) and the
// backend only receives pre-authorized traffic.
type StaticIdentity struct {
	Label string
	Admin bool
}

func (s StaticIdentity) UserLabel() string { return s.Label }
func (s StaticIdentity) IsAdmin() bool     { return s.Admin }

// RequireAdmin rejects requests with 403 unless the identity is an admin.
func RequireAdmin(identity Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identity.IsAdmin() {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
