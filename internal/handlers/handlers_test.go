package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/wetube/internal/middleware"
	"github.com/thereayou/wetube/internal/models"
	"github.com/thereayou/wetube/internal/services"
	"github.com/thereayou/wetube/internal/session"
	"github.com/thereayou/wetube/internal/storage"
	"github.com/thereayou/wetube/internal/testkit/userfakes"
	"github.com/thereayou/wetube/internal/views"
	"github.com/thereayou/wetube/pkg/auth"
)

type fakeAvatars struct {
	saved   []string
	deleted []string
	err     error
}

func (f *fakeAvatars) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, file.Filename)
	return "/uploads/avatars/" + file.Filename, nil
}

func (f *fakeAvatars) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type testApp struct {
	engine  *gin.Engine
	store   *userfakes.Store
	oauth   *userfakes.OAuthProvider
	avatars *fakeAvatars
	hasher  *auth.BcryptHasher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{
		store:   userfakes.NewStore(),
		oauth:   &userfakes.OAuthProvider{},
		avatars: &fakeAvatars{},
		hasher:  auth.NewBcryptHasher(bcrypt.MinCost),
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager(session.NewMemoryStore(), auth.NewJWTManager("secret", time.Hour), "sid", false)
	account := services.NewAccountService(app.store, app.hasher, app.oauth)
	authH := NewAuthHandler(account, app.avatars, log)
	userH := NewUserHandler(account, app.avatars, log)

	tmpl, err := views.Load()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.Session(manager, log))

	public := r.Group("/", middleware.PublicOnly(log))
	public.GET("/join", authH.GetJoin)
	public.POST("/join", authH.PostJoin)
	public.GET("/login", authH.GetLogin)
	public.POST("/login", authH.PostLogin)
	public.GET("/auth/github/start", authH.StartGithubLogin)
	public.GET("/auth/github/finish", authH.FinishGithubLogin)

	private := r.Group("/", middleware.RequireLogin(log))
	private.GET("/logout", authH.Logout)
	private.GET("/edit-profile", userH.GetEdit)
	private.POST("/edit-profile", userH.PostEdit)
	private.GET("/change-password", userH.GetChangePassword)
	private.POST("/change-password", userH.PostChangePassword)

	r.GET("/", userH.Home)
	r.GET("/users/:id", userH.See)
	r.NoRoute(userH.NotFound)

	app.engine = r
	return app
}

func (a *testApp) putLocal(t *testing.T, username, email, password string) models.User {
	t.Helper()
	hash, err := a.hasher.Hash(password)
	require.NoError(t, err)
	return a.store.Put(models.User{Username: username, Email: email, Name: username, Password: hash})
}

// client хранит cookie сессии между запросами
type client struct {
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.app.engine.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(t *testing.T, path string, form url.Values, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *client) loggedIn() bool {
	return c.get("/edit-profile").Code == http.StatusOK
}

func (c *client) login(t *testing.T, username, password string) {
	t.Helper()
	rec := c.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func joinForm(username, email, password, password2 string) url.Values {
	return url.Values{
		"name":      {"Ann"},
		"email":     {email},
		"username":  {username},
		"password":  {password},
		"password2": {password2},
		"location":  {"Seoul"},
	}
}

func TestJoin(t *testing.T) {
	t.Run("mismatched passwords", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.client().post("/join", joinForm("ann", "ann@example.com", "pw1", "pw2"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password confirmation does not match.")
		assert.Zero(t, app.store.Count())
	})

	t.Run("taken username or email", func(t *testing.T) {
		app := newTestApp(t)
		app.putLocal(t, "ann", "other@example.com", "pw")

		rec := app.client().post("/join", joinForm("ann", "ann@example.com", "pw", "pw"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "This username/email is already taken.")

		rec = app.client().post("/join", joinForm("bob", "other@example.com", "pw", "pw"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 1, app.store.Count())
	})

	t.Run("missing fields", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.client().post("/join", url.Values{"username": {"ann"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, app.store.Count())
	})

	t.Run("creates user without session", func(t *testing.T) {
		app := newTestApp(t)
		c := app.client()
		rec := c.post("/join", joinForm("ann", "ann@example.com", "pw", "pw"))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Equal(t, 1, app.store.Count())
		assert.False(t, c.loggedIn())
	})

	t.Run("stores uploaded avatar", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.client().postMultipart(t, "/join", joinForm("ann", "ann@example.com", "pw", "pw"), "me.png")
		require.Equal(t, http.StatusFound, rec.Code)

		require.Equal(t, []string{"me.png"}, app.avatars.saved)
		for _, u := range app.store.Users {
			assert.Equal(t, "/uploads/avatars/me.png", u.AvatarURL)
		}
	})
}

func TestJoinAvatar(t *testing.T) {
	t.Run("rejected join discards uploaded avatar", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.client().postMultipart(t, "/join", joinForm("ann", "ann@example.com", "pw1", "pw2"), "me.png")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, app.store.Count())
		assert.Equal(t, []string{"me.png"}, app.avatars.saved)
		assert.Equal(t, []string{"/uploads/avatars/me.png"}, app.avatars.deleted)
	})

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "not an image", err: storage.ErrAvatarType, wantMsg: "Avatar must be a PNG, JPEG, GIF or WebP image."},
		{name: "too large", err: storage.ErrAvatarTooLarge, wantMsg: "Avatar must be smaller than 5 MB."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.avatars.err = tt.err

			rec := app.client().postMultipart(t, "/join", joinForm("ann", "ann@example.com", "pw", "pw"), "avatar.html")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Zero(t, app.store.Count())
		})
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.putLocal(t, "ann", "ann@example.com", "secret")
	app.store.Put(models.User{Username: "octo", Email: "octo@example.com", SocialOnly: true})

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{name: "unknown username", username: "nobody", password: "secret", wantMsg: "An account with this username does not exist."},
		{name: "social only account", username: "octo", password: "anything", wantMsg: "An account with this username does not exist."},
		{name: "wrong password", username: "ann", password: "nope", wantMsg: "Wrong password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := app.client()
			rec := c.post("/login", url.Values{"username": {tt.username}, "password": {tt.password}})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.False(t, c.loggedIn())
		})
	}

	t.Run("success", func(t *testing.T) {
		c := app.client()
		c.login(t, "ann", "secret")
		assert.True(t, c.loggedIn())

		// залогиненного не пускает на страницу входа
		rec := c.get("/login")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})
}

func TestLoginRotatesSessionCookie(t *testing.T) {
	app := newTestApp(t)
	app.putLocal(t, "ann", "ann@example.com", "secret")

	// чужая cookie, подброшенная жертве до входа
	attacker := app.client()
	attacker.get("/auth/github/start")
	require.NotNil(t, attacker.cookie)

	victim := app.client()
	victim.cookie = attacker.cookie
	rec := victim.post("/login", url.Values{"username": {"ann"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.NotEmpty(t, rec.Header().Values("Set-Cookie"))
	assert.NotEqual(t, attacker.cookie.Value, victim.cookie.Value)

	assert.True(t, victim.loggedIn())
	rec = attacker.get("/edit-profile")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

// startGithub проходит первый шаг и возвращает state из ссылки на GitHub
func startGithub(t *testing.T, c *client) string {
	t.Helper()
	rec := c.get("/auth/github/start")
	require.Equal(t, http.StatusFound, rec.Code)

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "false", u.Query().Get("allow_signup"))
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func githubIdentity(emails ...services.OAuthEmail) *services.OAuthIdentity {
	return &services.OAuthIdentity{
		Profile: services.OAuthProfile{Login: "octo", Name: "Octo Cat", Location: "SF", AvatarURL: "https://avatars/octo"},
		Emails:  emails,
	}
}

func TestGithubLogin(t *testing.T) {
	finish := func(c *client, state string) *httptest.ResponseRecorder {
		return c.get("/auth/github/finish?code=abc&state=" + url.QueryEscape(state))
	}

	t.Run("state mismatch", func(t *testing.T) {
		app := newTestApp(t)
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(services.OAuthEmail{Email: "octo@example.com", Primary: true, Verified: true})

		c := app.client()
		startGithub(t, c)
		rec := finish(c, "forged")

		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Zero(t, app.oauth.ExchangeCalls)
		assert.Zero(t, app.store.Count())
	})

	t.Run("no access token", func(t *testing.T) {
		app := newTestApp(t)
		c := app.client()
		rec := finish(c, startGithub(t, c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Zero(t, app.oauth.IdentityCalls)
		assert.Zero(t, app.store.Count())
		assert.False(t, c.loggedIn())
	})

	t.Run("no primary verified email", func(t *testing.T) {
		app := newTestApp(t)
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(
			services.OAuthEmail{Email: "a@example.com", Primary: true, Verified: false},
			services.OAuthEmail{Email: "b@example.com", Primary: false, Verified: true},
		)
		c := app.client()
		rec := finish(c, startGithub(t, c))

		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Zero(t, app.store.Count())
		assert.Contains(t, c.get("/login").Body.String(), "no verified primary email")
		assert.False(t, c.loggedIn())
	})

	t.Run("creates social only user", func(t *testing.T) {
		app := newTestApp(t)
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(services.OAuthEmail{Email: "octo@example.com", Primary: true, Verified: true})
		c := app.client()
		rec := finish(c, startGithub(t, c))

		assert.Equal(t, "/", rec.Header().Get("Location"))
		require.Equal(t, 1, app.store.Count())
		for _, u := range app.store.Users {
			assert.True(t, u.SocialOnly)
			assert.Empty(t, u.Password)
			assert.Equal(t, "octo", u.Username)
			assert.Equal(t, "octo@example.com", u.Email)
		}
		assert.True(t, c.loggedIn())
	})

	t.Run("state is single use", func(t *testing.T) {
		app := newTestApp(t)
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(services.OAuthEmail{Email: "octo@example.com", Primary: true, Verified: true})
		c := app.client()
		state := startGithub(t, c)
		finish(c, state)
		c.get("/logout")

		rec := finish(c, state)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Equal(t, 1, app.oauth.ExchangeCalls)
	})

	t.Run("logs into existing account by email", func(t *testing.T) {
		app := newTestApp(t)
		existing := app.putLocal(t, "ann", "octo@example.com", "secret")
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(services.OAuthEmail{Email: "octo@example.com", Primary: true, Verified: true})
		c := app.client()
		finish(c, startGithub(t, c))

		assert.Equal(t, 1, app.store.Count())
		assert.True(t, c.loggedIn())
		assert.Contains(t, c.get("/").Body.String(), "/users/"+existing.ID.String())
	})
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.putLocal(t, "ann", "ann@example.com", "secret")
	c := app.client()
	c.login(t, "ann", "secret")

	rec := c.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	home := c.get("/").Body.String()
	assert.Contains(t, home, "Bye Bye")
	assert.False(t, c.loggedIn())
	assert.Equal(t, 1, app.store.Count())
}

func TestEditProfile(t *testing.T) {
	editForm := func(username, email string) url.Values {
		return url.Values{"name": {"Ann Lee"}, "email": {email}, "username": {username}, "location": {"Busan"}}
	}

	t.Run("guards anonymous", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.client().get("/edit-profile")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("taken username leaves user untouched", func(t *testing.T) {
		app := newTestApp(t)
		ann := app.putLocal(t, "ann", "ann@example.com", "secret")
		app.putLocal(t, "bob", "bob@example.com", "secret")
		c := app.client()
		c.login(t, "ann", "secret")

		rec := c.post("/edit-profile", editForm("bob", "ann@example.com"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "This username is already taken.")

		rec = c.post("/edit-profile", editForm("ann", "bob@example.com"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "This email is already taken.")

		stored, _ := app.store.Get(ann.ID)
		assert.Equal(t, ann, stored)

		rec = c.postMultipart(t, "/edit-profile", editForm("bob", "ann@example.com"), "new.png")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"/uploads/avatars/new.png"}, app.avatars.deleted)
	})

	t.Run("updates store and session", func(t *testing.T) {
		app := newTestApp(t)
		ann := app.putLocal(t, "ann", "ann@example.com", "secret")
		c := app.client()
		c.login(t, "ann", "secret")

		rec := c.postMultipart(t, "/edit-profile", editForm("annie", "annie@example.com"), "new.png")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/users/"+ann.ID.String(), rec.Header().Get("Location"))

		stored, _ := app.store.Get(ann.ID)
		assert.Equal(t, "annie", stored.Username)
		assert.Equal(t, "Busan", stored.Location)
		assert.Equal(t, "/uploads/avatars/new.png", stored.AvatarURL)

		body := c.get("/edit-profile").Body.String()
		assert.Contains(t, body, `value="annie@example.com"`)
	})
}

func TestChangePassword(t *testing.T) {
	form := func(old, pw, confirm string) url.Values {
		return url.Values{"oldPassword": {old}, "newPassword": {pw}, "newPasswordConfirmation": {confirm}}
	}

	t.Run("refuses social only account", func(t *testing.T) {
		app := newTestApp(t)
		app.oauth.Token = "gho_1"
		app.oauth.Identity = githubIdentity(services.OAuthEmail{Email: "octo@example.com", Primary: true, Verified: true})
		c := app.client()
		c.get("/auth/github/finish?code=abc&state=" + url.QueryEscape(startGithub(t, c)))
		require.True(t, c.loggedIn())

		rec := c.get("/change-password")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		rec = c.post("/change-password", form("", "new", "new"))
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Contains(t, c.get("/").Body.String(), "You cannot change the password of a social login account.")

		for _, u := range app.store.Users {
			assert.Empty(t, u.Password)
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		app := newTestApp(t)
		app.putLocal(t, "ann", "ann@example.com", "secret")
		c := app.client()
		c.login(t, "ann", "secret")

		rec := c.post("/change-password", form("nope", "new", "new"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "The current password is incorrect")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		app := newTestApp(t)
		app.putLocal(t, "ann", "ann@example.com", "secret")
		c := app.client()
		c.login(t, "ann", "secret")

		rec := c.post("/change-password", form("secret", "new", "other"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "The password does not match the confirmation")
	})

	t.Run("success logs out", func(t *testing.T) {
		app := newTestApp(t)
		app.putLocal(t, "ann", "ann@example.com", "secret")
		c := app.client()
		c.login(t, "ann", "secret")

		rec := c.post("/change-password", form("secret", "fresh", "fresh"))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/logout", rec.Header().Get("Location"))

		c.get("/logout")
		home := c.get("/").Body.String()
		assert.Contains(t, home, "Password updated.")
		assert.Contains(t, home, "Bye Bye")

		c.login(t, "ann", "fresh")
	})
}

func TestProfile(t *testing.T) {
	app := newTestApp(t)
	ann := app.putLocal(t, "ann", "ann@example.com", "secret")
	app.store.Videos[ann.ID] = []models.Video{{Title: "First video", OwnerID: ann.ID}}
	c := app.client()

	rec := c.get("/users/" + ann.ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ann&#39;s Profile")
	assert.Contains(t, body, "First video")

	for _, id := range []string{"not-a-uuid", "00000000-0000-0000-0000-000000000001"} {
		rec := c.get("/users/" + id)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Contains(t, rec.Body.String(), "User not found")
	}

	assert.Equal(t, http.StatusNotFound, c.get("/no/such/page").Code)
}
