package userfakes

import (
	"context"
	"errors"
	"net/url"

	"github.com/thereayou/wetube/internal/services"
)

// OAuthProvider services.OAuthProvider с заранее заданными ответами.
// Пустой Token ведёт себя как ответ GitHub без access_token.
type OAuthProvider struct {
	Token       string
	ExchangeErr error
	Identity    *services.OAuthIdentity
	IdentityErr error

	ExchangeCalls int
	IdentityCalls int
}

func (p *OAuthProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", "test-client")
	q.Set("allow_signup", "false")
	q.Set("scope", "read:user user:email")
	q.Set("state", state)
	return "https://github.com/login/oauth/authorize?" + q.Encode()
}

func (p *OAuthProvider) Exchange(_ context.Context, _ string) (string, error) {
	p.ExchangeCalls++
	if p.ExchangeErr != nil {
		return "", p.ExchangeErr
	}
	if p.Token == "" {
		return "", errors.New("server response missing access_token")
	}
	return p.Token, nil
}

func (p *OAuthProvider) FetchIdentity(_ context.Context, _ string) (*services.OAuthIdentity, error) {
	p.IdentityCalls++
	if p.IdentityErr != nil {
		return nil, p.IdentityErr
	}
	return p.Identity, nil
}
