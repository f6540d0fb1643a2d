package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/wetube/internal/handlers/dto"
	"github.com/thereayou/wetube/internal/middleware"
	"github.com/thereayou/wetube/internal/services"
	"github.com/thereayou/wetube/internal/session"
	"github.com/thereayou/wetube/internal/storage"
)

const msgGithubState = "GitHub login could not be verified. Please try again."

type AuthHandler struct {
	account *services.AccountService
	avatars storage.AvatarStorage
	log     *slog.Logger
}

func NewAuthHandler(account *services.AccountService, avatars storage.AvatarStorage, log *slog.Logger) *AuthHandler {
	return &AuthHandler{account: account, avatars: avatars, log: log}
}

func (h *AuthHandler) GetJoin(c *gin.Context) {
	render(c, h.log, http.StatusOK, "join.tmpl", gin.H{"pageTitle": "Join"})
}

// PostJoin создаёт аккаунт и отправляет на страницу входа. Сессию не открывает.
func (h *AuthHandler) PostJoin(c *gin.Context) {
	fail := func(message string) {
		render(c, h.log, http.StatusBadRequest, "join.tmpl", gin.H{
			"pageTitle":    "Join",
			"errorMessage": message,
		})
	}

	var form dto.JoinForm
	if err := c.ShouldBind(&form); err != nil {
		fail(msgInvalidForm)
		return
	}

	avatarURL, err := uploadAvatar(c, h.avatars)
	if err != nil {
		fail(publicError(c, h.log, err))
		return
	}

	_, err = h.account.Join(c.Request.Context(), services.JoinInput{
		Name:      form.Name,
		Email:     form.Email,
		Username:  form.Username,
		Password:  form.Password,
		Password2: form.Password2,
		Location:  form.Location,
		AvatarURL: avatarURL,
	})
	if err != nil {
		discardAvatar(c, h.avatars, h.log, avatarURL)
		fail(publicError(c, h.log, err))
		return
	}

	redirect(c, h.log, "/login")
}

func (h *AuthHandler) GetLogin(c *gin.Context) {
	render(c, h.log, http.StatusOK, "login.tmpl", gin.H{"pageTitle": "Login"})
}

func (h *AuthHandler) PostLogin(c *gin.Context) {
	fail := func(message string) {
		render(c, h.log, http.StatusBadRequest, "login.tmpl", gin.H{
			"pageTitle":    "Login",
			"errorMessage": message,
		})
	}

	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		fail(msgInvalidForm)
		return
	}

	user, err := h.account.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		fail(publicError(c, h.log, err))
		return
	}

	middleware.CurrentSession(c).Login(user)
	redirect(c, h.log, "/")
}

// StartGithubLogin запоминает state в сессии и уводит на GitHub
func (h *AuthHandler) StartGithubLogin(c *gin.Context) {
	state := uuid.NewString()
	middleware.CurrentSession(c).SetOAuthState(state)
	redirect(c, h.log, h.account.GithubAuthURL(state))
}

// FinishGithubLogin принимает callback GitHub. Любая ошибка ведёт на /login.
func (h *AuthHandler) FinishGithubLogin(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	fail := func(message string) {
		sess.AddFlash(session.FlashError, message)
		redirect(c, h.log, "/login")
	}

	expected := sess.TakeOAuthState()
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		h.log.Warn("github state mismatch", "ip", c.ClientIP())
		fail(msgGithubState)
		return
	}

	code := c.Query("code")
	if code == "" {
		fail(msgGithubState)
		return
	}

	user, err := h.account.GithubLogin(c.Request.Context(), code)
	if err != nil {
		fail(publicError(c, h.log, err))
		return
	}

	sess.Login(user)
	redirect(c, h.log, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.Logout()
	sess.AddFlash(session.FlashInfo, "Bye Bye")
	redirect(c, h.log, "/")
}
