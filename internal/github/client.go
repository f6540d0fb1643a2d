package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	"golang.org/x/sync/errgroup"

	"github.com/thereayou/wetube/internal/services"
)

const (
	defaultAPIURL = "https://api.github.com"
	maxBodySize   = 1 << 20
)

var scopes = []string{"read:user", "user:email"}

type Config struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Переопределяются в тестах
	AuthURL  string
	TokenURL string
	APIURL   string
}

// Client реализует services.OAuthProvider поверх GitHub REST API
type Client struct {
	oauth      *oauth2.Config
	apiURL     string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	endpoint := oauthgithub.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	apiURL := defaultAPIURL
	if cfg.APIURL != "" {
		apiURL = strings.TrimRight(cfg.APIURL, "/")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: acceptJSON{base: http.DefaultTransport},
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		apiURL:     apiURL,
		httpClient: httpClient,
	}
}

// acceptJSON просит у GitHub JSON вместо form-encoded ответа на обмен кода
type acceptJSON struct {
	base http.RoundTripper
}

func (t acceptJSON) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(req)
}

// AuthCodeURL строит ссылку авторизации; регистрация через GitHub запрещена
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "false"))
}

// Exchange меняет code на access token.
// Ответ без access_token oauth2 возвращает как ошибку.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("github token exchange: %w", err)
	}
	return token.AccessToken, nil
}

type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchIdentity параллельно читает /user и /user/emails
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*services.OAuthIdentity, error) {
	var (
		user   githubUser
		emails []githubEmail
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(ctx, accessToken, "/user", &user)
	})
	g.Go(func() error {
		return c.get(ctx, accessToken, "/user/emails", &emails)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	identity := &services.OAuthIdentity{
		Profile: services.OAuthProfile{
			Login:     user.Login,
			Name:      user.Name,
			Location:  user.Location,
			AvatarURL: user.AvatarURL,
		},
		Emails: make([]services.OAuthEmail, 0, len(emails)),
	}
	for _, e := range emails {
		identity.Emails = append(identity.Emails, services.OAuthEmail{
			Email:    e.Email,
			Primary:  e.Primary,
			Verified: e.Verified,
		})
	}
	return identity, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("github %s: decode: %w", path, err)
	}
	return nil
}
