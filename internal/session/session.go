package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/internal/models"
)

const (
	FlashInfo  = "info"
	FlashError = "error"
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// User денормализованная копия пользователя, хранимая в сессии
type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	AvatarURL  string    `json:"avatar_url"`
	SocialOnly bool      `json:"social_only"`
}

type Data struct {
	LoggedIn   bool    `json:"logged_in"`
	User       *User   `json:"user,omitempty"`
	Flashes    []Flash `json:"flashes,omitempty"`
	OAuthState string  `json:"oauth_state,omitempty"`
}

// Session состояние одного клиента на время запроса.
// Изменения сохраняются явным вызовом Save.
type Session struct {
	id    string
	data  Data
	dirty bool

	// previous id до смены при входе; удаляется из Store при Save
	previous string
	newID    func() string
	commit   func(ctx context.Context, s *Session) error
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) LoggedIn() bool {
	return s.data.LoggedIn && s.data.User != nil
}

// User возвращает копию пользователя сессии или nil
func (s *Session) User() *User {
	if s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// Login помечает сессию как вошедшую и выдаёт ей новый id,
// чтобы cookie, полученная до входа, не давала доступа.
func (s *Session) Login(u *models.User) {
	s.data.LoggedIn = true
	s.SetUser(u)
	s.regenerate()
}

func (s *Session) regenerate() {
	if s.newID == nil {
		return
	}
	if s.previous == "" {
		s.previous = s.id
	}
	s.id = s.newID()
	s.dirty = true
}

func (s *Session) SetUser(u *models.User) {
	s.data.User = &User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Name:       u.Name,
		Location:   u.Location,
		AvatarURL:  u.AvatarURL,
		SocialOnly: u.SocialOnly,
	}
	s.dirty = true
}

// Logout очищает сессию, не уничтожая её: flash-сообщения переживают выход
func (s *Session) Logout() {
	s.data.LoggedIn = false
	s.data.User = nil
	s.dirty = true
}

func (s *Session) AddFlash(kind, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Kind: kind, Message: message})
	s.dirty = true
}

// Flashes возвращает и удаляет накопленные сообщения
func (s *Session) Flashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	flashes := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return flashes
}

func (s *Session) SetOAuthState(state string) {
	s.data.OAuthState = state
	s.dirty = true
}

// TakeOAuthState возвращает ожидаемый state и сбрасывает его
func (s *Session) TakeOAuthState() string {
	state := s.data.OAuthState
	if state != "" {
		s.data.OAuthState = ""
		s.dirty = true
	}
	return state
}

func (s *Session) Save(ctx context.Context) error {
	if !s.dirty || s.commit == nil {
		return nil
	}
	if err := s.commit(ctx, s); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
