package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/wetube/internal/handlers/dto"
	"github.com/thereayou/wetube/internal/middleware"
	"github.com/thereayou/wetube/internal/services"
	"github.com/thereayou/wetube/internal/session"
	"github.com/thereayou/wetube/internal/storage"
)

type UserHandler struct {
	account *services.AccountService
	avatars storage.AvatarStorage
	log     *slog.Logger
}

func NewUserHandler(account *services.AccountService, avatars storage.AvatarStorage, log *slog.Logger) *UserHandler {
	return &UserHandler{account: account, avatars: avatars, log: log}
}

func (h *UserHandler) Home(c *gin.Context) {
	render(c, h.log, http.StatusOK, "home.tmpl", gin.H{"pageTitle": "Home"})
}

func (h *UserHandler) NotFound(c *gin.Context) {
	render(c, h.log, http.StatusNotFound, "404.tmpl", gin.H{"pageTitle": "Page not found"})
}

func (h *UserHandler) GetEdit(c *gin.Context) {
	render(c, h.log, http.StatusOK, "edit-profile.tmpl", gin.H{"pageTitle": "Edit Profile"})
}

// PostEdit обновляет профиль и копию пользователя в сессии
func (h *UserHandler) PostEdit(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	fail := func(message string) {
		render(c, h.log, http.StatusBadRequest, "edit-profile.tmpl", gin.H{
			"pageTitle":    "Edit Profile",
			"errorMessage": message,
		})
	}

	var form dto.EditProfileForm
	if err := c.ShouldBind(&form); err != nil {
		fail(msgInvalidForm)
		return
	}

	avatarURL, err := uploadAvatar(c, h.avatars)
	if err != nil {
		fail(publicError(c, h.log, err))
		return
	}

	user, err := h.account.EditProfile(c.Request.Context(), services.EditInput{
		UserID:    sess.User().ID,
		Name:      form.Name,
		Email:     form.Email,
		Username:  form.Username,
		Location:  form.Location,
		AvatarURL: avatarURL,
	})
	if err != nil {
		discardAvatar(c, h.avatars, h.log, avatarURL)
		fail(publicError(c, h.log, err))
		return
	}

	sess.SetUser(user)
	redirect(c, h.log, "/users/"+user.ID.String())
}

// refuseSocialOnly уводит GitHub-аккаунты со страницы смены пароля
func (h *UserHandler) refuseSocialOnly(c *gin.Context) bool {
	sess := middleware.CurrentSession(c)
	if !sess.User().SocialOnly {
		return false
	}
	sess.AddFlash(session.FlashError, services.MsgSocialOnly)
	redirect(c, h.log, "/")
	return true
}

func (h *UserHandler) GetChangePassword(c *gin.Context) {
	if h.refuseSocialOnly(c) {
		return
	}
	render(c, h.log, http.StatusOK, "change-password.tmpl", gin.H{"pageTitle": "Change Password"})
}

func (h *UserHandler) PostChangePassword(c *gin.Context) {
	if h.refuseSocialOnly(c) {
		return
	}
	sess := middleware.CurrentSession(c)
	fail := func(message string) {
		render(c, h.log, http.StatusBadRequest, "change-password.tmpl", gin.H{
			"pageTitle":    "Change Password",
			"errorMessage": message,
		})
	}

	var form dto.ChangePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		fail(msgInvalidForm)
		return
	}

	err := h.account.ChangePassword(c.Request.Context(), sess.User().ID,
		form.OldPassword, form.NewPassword, form.NewPasswordConfirmation)
	if err != nil {
		fail(publicError(c, h.log, err))
		return
	}

	sess.AddFlash(session.FlashInfo, "Password updated.")
	redirect(c, h.log, "/logout")
}

// See показывает профиль пользователя с его видео
func (h *UserHandler) See(c *gin.Context) {
	user, err := h.account.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if services.IsNotFound(err) {
			render(c, h.log, http.StatusNotFound, "404.tmpl", gin.H{"pageTitle": "User not found"})
			return
		}
		h.log.Error("load profile failed", "error", err, "id", c.Param("id"))
		render(c, h.log, http.StatusInternalServerError, "404.tmpl", gin.H{
			"pageTitle":    "Something went wrong",
			"errorMessage": services.PublicMessage(err),
		})
		return
	}

	render(c, h.log, http.StatusOK, "profile.tmpl", gin.H{
		"pageTitle": user.Name + "'s Profile",
		"user":      user,
	})
}
