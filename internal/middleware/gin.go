package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// wrap runs a net/http middleware inside the gin chain. The bridge
// handler hands the (possibly re-contexted) request back to gin.
func wrap(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		reached := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// If the middleware answered on its own, stop the gin chain
		if !reached {
			c.Abort()
		}
	}
}

// GinResolve adapts SessionMiddleware.Resolve to gin.
func GinResolve(s *SessionMiddleware) gin.HandlerFunc {
	return wrap(s.Resolve)
}

// GinRequire adapts SessionMiddleware.Require to gin.
func GinRequire(s *SessionMiddleware) gin.HandlerFunc {
	return wrap(s.Require)
}
