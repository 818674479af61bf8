package auth

import (
	"crypto/subtle"
	"net/http"

	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/utils"
)

// AdminOnly gates operator endpoints behind the X-Admin-Password header.
// A single shared password: a gate against casual misuse, not an
// authentication system.
func AdminOnly(password string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Password")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(password)) != 1 {
				log.Warn("AUTH", "rejected admin request to "+r.URL.Path)
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Admin password required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
