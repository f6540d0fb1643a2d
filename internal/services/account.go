package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/internal/database"
	"github.com/thereayou/wetube/internal/models"
)

const (
	msgPasswordConfirm   = "Password confirmation does not match."
	msgUsernameEmailUsed = "This username/email is already taken."
	msgUsernameUsed      = "This username is already taken."
	msgEmailUsed         = "This email is already taken."
	msgUnknownUsername   = "An account with this username does not exist."
	msgWrongPassword     = "Wrong password."
	msgUserNotFound      = "User not found."
	msgCurrentPassword   = "The current password is incorrect"
	msgNewPasswordMatch  = "The password does not match the confirmation"
	msgGithubToken       = "GitHub did not return an access token."
	msgGithubProfile     = "Could not read your GitHub profile."
	msgGithubEmail       = "Your GitHub account has no verified primary email."
)

// MsgSocialOnly показывается при попытке сменить пароль GitHub-аккаунта
const MsgSocialOnly = "You cannot change the password of a social login account."

type AccountService struct {
	users  UserStore
	hasher PasswordHasher
	oauth  OAuthProvider
}

func NewAccountService(users UserStore, hasher PasswordHasher, oauth OAuthProvider) *AccountService {
	return &AccountService{users: users, hasher: hasher, oauth: oauth}
}

type JoinInput struct {
	Name      string
	Email     string
	Username  string
	Password  string
	Password2 string
	Location  string
	AvatarURL string
}

// Join создаёт локальный аккаунт. Сессию не открывает.
func (s *AccountService) Join(ctx context.Context, in JoinInput) (*models.User, error) {
	if in.Password != in.Password2 {
		return nil, ValidationError(msgPasswordConfirm)
	}

	taken, err := s.users.UsernameOrEmailTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check username/email: %w", err)
	}
	if taken {
		return nil, ConflictError(msgUsernameEmailUsed, nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Username:  in.Username,
		Password:  hash,
		Location:  in.Location,
		AvatarURL: in.AvatarURL,
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		// гонка между проверкой и записью ловится уникальным индексом
		if errors.Is(err, database.ErrConflict) {
			return nil, ConflictError(msgUsernameEmailUsed, err)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindLocalUser(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError(msgUnknownUsername, err)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Compare(user.Password, password) {
		return nil, AuthError(msgWrongPassword)
	}
	return user, nil
}

func (s *AccountService) GithubAuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// GithubLogin обменивает code на токен, читает профиль и email,
// находит или создаёт socialOnly-пользователя.
func (s *AccountService) GithubLogin(ctx context.Context, code string) (*models.User, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, UpstreamError(msgGithubToken, err)
	}

	identity, err := s.oauth.FetchIdentity(ctx, token)
	if err != nil {
		return nil, UpstreamError(msgGithubProfile, err)
	}

	email, ok := identity.PrimaryVerifiedEmail()
	if !ok {
		return nil, AuthError(msgGithubEmail)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	name := identity.Profile.Name
	if strings.TrimSpace(name) == "" {
		name = identity.Profile.Login
	}
	user = &models.User{
		AvatarURL:  identity.Profile.AvatarURL,
		Name:       name,
		Username:   identity.Profile.Login,
		Email:      email,
		Password:   "",
		SocialOnly: true,
		Location:   identity.Profile.Location,
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ConflictError(msgUsernameUsed, err)
		}
		return nil, fmt.Errorf("save github user: %w", err)
	}
	return user, nil
}

type EditInput struct {
	UserID   uuid.UUID
	Name     string
	Email    string
	Username string
	Location string
	// AvatarURL пустой, если новый файл не загружен
	AvatarURL string
}

func (s *AccountService) EditProfile(ctx context.Context, in EditInput) (*models.User, error) {
	current, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError(msgUserNotFound, err)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if current.Username != in.Username {
		taken, err := s.users.UsernameTakenByOther(ctx, in.Username, current.ID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, ConflictError(msgUsernameUsed, nil)
		}
	}
	if current.Email != in.Email {
		taken, err := s.users.EmailTakenByOther(ctx, in.Email, current.ID)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, ConflictError(msgEmailUsed, nil)
		}
	}

	updated := *current
	updated.Name = in.Name
	updated.Email = in.Email
	updated.Username = in.Username
	updated.Location = in.Location
	if in.AvatarURL != "" {
		updated.AvatarURL = in.AvatarURL
	}

	if err := s.users.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ConflictError(msgUsernameEmailUsed, err)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &updated, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword, confirmation string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFoundError(msgUserNotFound, err)
		}
		return fmt.Errorf("get user: %w", err)
	}

	if user.SocialOnly {
		return AuthError(MsgSocialOnly)
	}
	if !s.hasher.Compare(user.Password, oldPassword) {
		return AuthError(msgCurrentPassword)
	}
	if newPassword != confirmation {
		return ValidationError(msgNewPasswordMatch)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Profile загружает пользователя с его видео
func (s *AccountService) Profile(ctx context.Context, id string) (*models.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, NotFoundError(msgUserNotFound, err)
	}

	user, err := s.users.GetUserWithVideos(ctx, uid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError(msgUserNotFound, err)
		}
		return nil, fmt.Errorf("get user with videos: %w", err)
	}
	return user, nil
}
