package middleware

import (
	"net/http"

	"github.com/deenverse/deenverse/pkg/logger"
)

// RequireRole guards a route so only the listed roles may pass. Must run
// after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Log.Warnf("User %s with role %s denied access to %s", claims.UserID, claims.Role, r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}
