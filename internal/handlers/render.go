package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/wetube/internal/middleware"
	"github.com/thereayou/wetube/internal/services"
	"github.com/thereayou/wetube/internal/storage"
)

const (
	msgInvalidForm  = "Please fill in all the required fields correctly."
	msgAvatarType   = "Avatar must be a PNG, JPEG, GIF or WebP image."
	msgAvatarTooBig = "Avatar must be smaller than 5 MB."
)

// render отдаёт шаблон с flash-сообщениями и пользователем сессии.
// Сессия сохраняется до записи ответа.
func render(c *gin.Context, log *slog.Logger, status int, name string, data gin.H) {
	sess := middleware.CurrentSession(c)
	if data == nil {
		data = gin.H{}
	}
	data["messages"] = sess.Flashes()
	data["loggedIn"] = sess.LoggedIn()
	data["loggedInUser"] = sess.User()

	if err := sess.Save(c.Request.Context()); err != nil {
		log.Error("session save failed", "error", err, "path", c.Request.URL.Path)
	}
	c.HTML(status, name, data)
}

func redirect(c *gin.Context, log *slog.Logger, location string) {
	if err := middleware.CurrentSession(c).Save(c.Request.Context()); err != nil {
		log.Error("session save failed", "error", err, "path", c.Request.URL.Path)
	}
	c.Redirect(http.StatusFound, location)
}

// publicError возвращает сообщение для пользователя; неожиданные ошибки логируются
func publicError(c *gin.Context, log *slog.Logger, err error) string {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		log.Error("request failed", "error", err, "path", c.Request.URL.Path)
	} else if appErr.Cause != nil {
		log.Warn("request rejected", "code", appErr.Code, "error", appErr.Cause, "path", c.Request.URL.Path)
	}
	return services.PublicMessage(err)
}

// uploadAvatar сохраняет файл из поля "avatar"; без файла возвращает пустую строку
func uploadAvatar(c *gin.Context, avatars storage.AvatarStorage) (string, error) {
	file, err := c.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}

	url, err := avatars.Save(c.Request.Context(), file)
	switch {
	case errors.Is(err, storage.ErrAvatarType):
		return "", services.ValidationError(msgAvatarType)
	case errors.Is(err, storage.ErrAvatarTooLarge):
		return "", services.ValidationError(msgAvatarTooBig)
	}
	return url, err
}

// discardAvatar удаляет аватар, загруженный для отклонённой формы
func discardAvatar(c *gin.Context, avatars storage.AvatarStorage, log *slog.Logger, url string) {
	if url == "" {
		return
	}
	if err := avatars.Delete(c.Request.Context(), url); err != nil {
		log.Warn("discard avatar failed", "error", err, "url", url)
	}
}
