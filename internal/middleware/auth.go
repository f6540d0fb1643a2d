package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wetube/internal/session"
)

// RequireLogin пропускает только залогиненных клиентов
func RequireLogin(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess.LoggedIn() {
			c.Next()
			return
		}

		sess.AddFlash(session.FlashError, "Log in first.")
		redirectAbort(c, sess, log, "/login")
	}
}

// PublicOnly закрывает страницы входа и регистрации для залогиненных
func PublicOnly(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !sess.LoggedIn() {
			c.Next()
			return
		}

		sess.AddFlash(session.FlashError, "Not authorized")
		redirectAbort(c, sess, log, "/")
	}
}

func redirectAbort(c *gin.Context, sess *session.Session, log *slog.Logger, location string) {
	if err := sess.Save(c.Request.Context()); err != nil {
		log.Error("session save failed", "error", err)
	}
	c.Redirect(http.StatusFound, location)
	c.Abort()
}
