package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MaxAvatarSize предельный размер файла аватара
const MaxAvatarSize = 5 << 20

var (
	ErrAvatarTooLarge = errors.New("avatar is too large")
	ErrAvatarType     = errors.New("avatar is not a supported image")
)

// тип определяется по содержимому, расширение клиента игнорируется
var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStorage сохраняет загруженный аватар и возвращает ссылку на него.
// Delete удаляет ранее сохранённый аватар по этой ссылке.
type AvatarStorage interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// sniffAvatar проверяет размер и тип файла по первым 512 байтам
func sniffAvatar(file *multipart.FileHeader) (contentType, ext string, err error) {
	if file.Size > MaxAvatarSize {
		return "", "", ErrAvatarTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read upload: %w", err)
	}

	contentType = http.DetectContentType(head[:n])
	ext, ok := avatarTypes[contentType]
	if !ok {
		return "", "", ErrAvatarType
	}
	return contentType, ext, nil
}

// avatarKey: avatars/<y>/<m>/<d>/<uuid><ext>
func avatarKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
