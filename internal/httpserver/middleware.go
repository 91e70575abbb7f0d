package httpserver

import (
	"net/http"
	"strings"

	"storefront-checkout/internal/service/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionHeader = "X-Session-Token"
	sessionCtxKey = "session"
)

// sessionMiddleware resolves the session named by the X-Session-Token header.
func sessionMiddleware(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(sessionHeader))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing session token", NextAction: "open_session"})
			return
		}
		sess, err := sessions.Lookup(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or expired session", NextAction: "open_session"})
			return
		}
		c.Set(sessionCtxKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	v, _ := c.Get(sessionCtxKey)
	sess, _ := v.(*session.Session)
	return sess
}
