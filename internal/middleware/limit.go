package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit ограничивает размер тела запроса; чтение сверх n возвращает ошибку
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
