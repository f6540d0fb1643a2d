package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/wetube/internal/models"
	"gorm.io/gorm"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return translate(d.db.WithContext(ctx).Create(user).Error)
}

// UpdateProfile обновляет изменяемые поля профиля и возвращает свежую запись
func (d *Database) UpdateProfile(ctx context.Context, user *models.User) error {
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":       user.Name,
			"email":      user.Email,
			"username":   user.Username,
			"location":   user.Location,
			"avatar_url": user.AvatarURL,
		}).Error
	if err != nil {
		return translate(err)
	}
	return translate(d.db.WithContext(ctx).First(user, "id = ?", user.ID).Error)
}

func (d *Database) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserWithVideos загружает пользователя вместе с его видео и их владельцами
func (d *Database) GetUserWithVideos(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	err := d.db.WithContext(ctx).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Videos.Owner").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindLocalUser ищет пользователя с паролем (не socialOnly) по username
func (d *Database) FindLocalUser(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	err := d.db.WithContext(ctx).
		Where("username = ? AND social_only = ?", username, false).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (d *Database) UsernameTakenByOther(ctx context.Context, username string, self uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ? AND id <> ?", username, self).
		Count(&count).Error
	return count > 0, err
}

func (d *Database) EmailTakenByOther(ctx context.Context, email string, self uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", email, self).
		Count(&count).Error
	return count > 0, err
}
