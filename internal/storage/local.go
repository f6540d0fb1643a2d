package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage пишет файлы в папку, раздаваемую по URLPrefix
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) *LocalStorage {
	return &LocalStorage{dir: dir, urlPrefix: urlPrefix}
}

func (s *LocalStorage) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	_, ext, err := sniffAvatar(file)
	if err != nil {
		return "", err
	}

	key := avatarKey(ext)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	if err := writeFile(file, dst); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return path.Join(s.urlPrefix, key), nil
}

func writeFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, strings.TrimRight(s.urlPrefix, "/")+"/")
	if !ok || !strings.HasPrefix(key, "avatars/") || strings.Contains(key, "..") {
		return fmt.Errorf("not a local avatar: %s", url)
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}
