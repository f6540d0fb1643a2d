package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/pkg/auth"
)

// Manager связывает cookie клиента с данными в Store.
// В cookie лежит JWT, subject которого id сессии.
type Manager struct {
	store      Store
	tokens     *auth.JWTManager
	cookieName string
	secure     bool
}

func NewManager(store Store, tokens *auth.JWTManager, cookieName string, secure bool) *Manager {
	return &Manager{store: store, tokens: tokens, cookieName: cookieName, secure: secure}
}

// Start загружает сессию по cookie или заводит новую.
// Cookie новой сессии выставляется при первом Save,
// после входа cookie перевыпускается с новым id.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if id, err := m.tokens.Subject(cookie.Value); err == nil {
			data, err := m.store.Load(ctx, id)
			switch {
			case err == nil:
				return m.session(id, *data, w, false), nil
			case !errors.Is(err, ErrNotFound):
				return nil, err
			}
		}
	}

	return m.session(uuid.NewString(), Data{}, w, true), nil
}

func (m *Manager) session(id string, data Data, w http.ResponseWriter, isNew bool) *Session {
	s := &Session{id: id, data: data, newID: uuid.NewString}
	s.commit = func(ctx context.Context, s *Session) error {
		if err := m.store.Save(ctx, s.id, &s.data, m.tokens.Duration()); err != nil {
			return err
		}

		issueCookie := isNew
		if s.previous != "" {
			if err := m.store.Delete(ctx, s.previous); err != nil {
				return err
			}
			s.previous = ""
			issueCookie = true
		}
		if !issueCookie {
			return nil
		}

		token, err := m.tokens.Generate(s.id)
		if err != nil {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(m.tokens.Duration().Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		isNew = false
		return nil
	}
	return s
}
