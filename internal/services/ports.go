package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/internal/models"
)

// UserStore реализуется database.Database.
// Поиск возвращает database.ErrNotFound, запись при нарушении уникальности database.ErrConflict.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserWithVideos(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindLocalUser(ctx context.Context, username string) (*models.User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	UsernameTakenByOther(ctx context.Context, username string, self uuid.UUID) (bool, error)
	EmailTakenByOther(ctx context.Context, email string, self uuid.UUID) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// OAuthProvider реализуется github.Client
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	FetchIdentity(ctx context.Context, accessToken string) (*OAuthIdentity, error)
}

type OAuthProfile struct {
	Login     string
	Name      string
	Location  string
	AvatarURL string
}

type OAuthEmail struct {
	Email    string
	Primary  bool
	Verified bool
}

type OAuthIdentity struct {
	Profile OAuthProfile
	Emails  []OAuthEmail
}

// PrimaryVerifiedEmail возвращает email, помеченный одновременно primary и verified
func (i *OAuthIdentity) PrimaryVerifiedEmail() (string, bool) {
	for _, e := range i.Emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	return "", false
}
