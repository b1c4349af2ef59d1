package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage keeps opaque blobs and hands back a path to find them again.
type Storage interface {
	// StoreFromBytes writes data to a new file whose name ends in ext
	StoreFromBytes(ctx context.Context, data []byte, ext string) (string, error)

	Read(ctx context.Context, path string) ([]byte, error)

	Delete(ctx context.Context, path string) error
}

// LocalStorage implements Storage on the local filesystem under one root
// directory.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

func (s *LocalStorage) StoreFromBytes(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(s.root, "img-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return f.Name(), nil
}

func (s *LocalStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := s.contains(path); err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *LocalStorage) contains(path string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("invalid file path: must be within storage directory")
	}
	return nil
}
