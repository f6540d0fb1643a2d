package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wetube/internal/session"
)

const SessionKey = "session"

// Session загружает сессию клиента и кладёт её в контекст gin
func Session(manager *session.Manager, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := manager.Start(c.Request.Context(), c.Writer, c.Request)
		if err != nil {
			log.Error("session load failed", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// CurrentSession возвращает сессию, загруженную middleware Session
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(SessionKey).(*session.Session)
}
