package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFMiddleware wraps gorilla/csrf for gin. The current token is exposed on
// every response via the X-CSRF-Token header so API clients can echo it back
// on mutating requests.
func CSRFMiddleware(secret string, secureCookies bool) gin.HandlerFunc {
	protect := csrf.Protect(
		[]byte(secret),
		csrf.Secure(secureCookies),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "CSRF token invalid"}`))
		})),
	)

	return func(c *gin.Context) {
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Header("X-CSRF-Token", csrf.Token(r))
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
