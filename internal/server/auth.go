package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdminToken gates the admin surface behind ADMIN_TOKEN. When no token
// is configured the surface is disabled entirely.
func (s *Server) requireAdminToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			http.NotFound(w, r)
			return
		}
		provided := strings.TrimSpace(r.Header.Get("Authorization"))
		provided = strings.TrimPrefix(provided, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next(w, r)
	}
}
