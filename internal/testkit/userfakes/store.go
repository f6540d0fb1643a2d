package userfakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/internal/database"
	"github.com/thereayou/wetube/internal/models"
)

// Store services.UserStore в памяти с той же уникальностью
// username/email, что и индексы в базе.
type Store struct {
	mu     sync.Mutex
	Users  map[uuid.UUID]models.User
	Videos map[uuid.UUID][]models.Video

	// Err возвращается из каждого вызова
	Err error

	// SaveErr возвращается только из SaveUser, после проверок
	SaveErr error
}

func NewStore() *Store {
	return &Store{
		Users:  make(map[uuid.UUID]models.User),
		Videos: make(map[uuid.UUID][]models.Video),
	}
}

// Put кладёт пользователя как есть, ID назначается при отсутствии
func (s *Store) Put(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.Users[u.ID] = u
	return u
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Users)
}

func (s *Store) Get(id uuid.UUID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	return u, ok
}

func (s *Store) conflicts(u *models.User) bool {
	for id, other := range s.Users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return true
		}
	}
	return false
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.conflicts(user) {
		return database.ErrConflict
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.Users[user.ID] = *user
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	current, ok := s.Users[user.ID]
	if !ok {
		return database.ErrNotFound
	}
	if s.conflicts(user) {
		return database.ErrConflict
	}
	current.Name = user.Name
	current.Email = user.Email
	current.Username = user.Username
	current.Location = user.Location
	current.AvatarURL = user.AvatarURL
	current.UpdatedAt = time.Now()
	s.Users[user.ID] = current
	*user = current
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.Users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Password = hash
	s.Users[id] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.Users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserWithVideos(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.Videos[id] {
		v.Owner = *u
		u.Videos = append(u.Videos, v)
	}
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Store) FindLocalUser(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username && !u.SocialOnly })
}

func (s *Store) UsernameOrEmailTaken(_ context.Context, username, email string) (bool, error) {
	return s.exists(func(u models.User) bool { return u.Username == username || u.Email == email })
}

func (s *Store) UsernameTakenByOther(_ context.Context, username string, self uuid.UUID) (bool, error) {
	return s.exists(func(u models.User) bool { return u.Username == username && u.ID != self })
}

func (s *Store) EmailTakenByOther(_ context.Context, email string, self uuid.UUID) (bool, error) {
	return s.exists(func(u models.User) bool { return u.Email == email && u.ID != self })
}

func (s *Store) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.Users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) exists(match func(models.User) bool) (bool, error) {
	_, err := s.find(match)
	if err == database.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}
