package middleware

import (
	"net/http"
)

// AuthMiddleware rejects requests without the 'authenticated=true' cookie.
// The login endpoint itself stays reachable.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("authenticated")
		if err != nil || cookie.Value != "true" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
