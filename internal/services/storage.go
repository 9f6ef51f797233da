package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService keeps uploaded transcript files on local disk. Stored names are
// opaque keys; callers persist them as the transcript's file reference.
type StorageService interface {
	SaveFile(originalName string, data []byte) (string, error)
	GetFilePath(storedName string) string
	DeleteFile(storedName string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *storageService) SaveFile(originalName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := fmt.Sprintf("transcript_%s%s", uuid.New().String(), ext)

	if err := os.WriteFile(s.GetFilePath(storedName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return storedName, nil
}

func (s *storageService) GetFilePath(storedName string) string {
	return filepath.Join(s.uploadPath, filepath.Base(storedName))
}

// DeleteFile is idempotent: a file that is already gone is not an error.
func (s *storageService) DeleteFile(storedName string) error {
	if err := os.Remove(s.GetFilePath(storedName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
