// Package images stores uploaded images on disk and their metadata in Redis,
// keyed by an opaque user id.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
	"github.com/illegalcall/mentor-tracker/internal/models"
	"github.com/illegalcall/mentor-tracker/internal/storage"
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func imageKey(id string) string { return "image:" + id }
func userImagesKey(uid string) string { return "user:" + uid + ":images" }

type Service struct {
	redis   *redis.Client
	storage storage.Storage
	maxSize int64
}

func NewService(rdb *redis.Client, st storage.Storage, maxSize int64) *Service {
	return &Service{redis: rdb, storage: st, maxSize: maxSize}
}

// Upload stores data as a new image. The declared content type is checked
// against the sniffed one and both must be an image type.
func (s *Service) Upload(ctx context.Context, userID, filename, contentType string, data []byte) (models.Image, error) {
	const op = "images.upload"

	if len(data) == 0 {
		return models.Image{}, apperr.Invalid(op, "file is empty", nil)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return models.Image{}, apperr.Invalid(op, fmt.Sprintf("file exceeds %d bytes", s.maxSize), nil)
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") || (contentType != "" && !strings.HasPrefix(contentType, "image/")) {
		return models.Image{}, apperr.Invalid(op, "File must be an image", nil)
	}

	path, err := s.storage.StoreFromBytes(ctx, data, extensions[sniffed])
	if err != nil {
		return models.Image{}, apperr.Store(op, err)
	}

	img := models.Image{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: sniffed,
		UserID:      userID,
		Length:      int64(len(data)),
		Path:        path,
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, imageKey(img.ID), img)
		if userID != "" {
			pipe.SAdd(ctx, userImagesKey(userID), img.ID)
		}
		return nil
	})
	if err != nil {
		if rmErr := s.storage.Delete(context.WithoutCancel(ctx), path); rmErr != nil {
			slog.Error("Failed to remove orphaned image file", "path", path, "error", rmErr)
		}
		return models.Image{}, apperr.Store(op, err)
	}

	slog.Info("Image stored", "id", img.ID, "user", userID, "bytes", img.Length)
	return img, nil
}

// UploadEncoded stores a base64 image, given either bare or as a data URL.
func (s *Service) UploadEncoded(ctx context.Context, userID, encoded string) (models.Image, error) {
	const op = "images.upload_encoded"

	encoded = strings.TrimSpace(encoded)
	contentType := ""
	if strings.HasPrefix(encoded, "data:") {
		header, payload, ok := strings.Cut(encoded, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return models.Image{}, apperr.Invalid(op, "Invalid data URL", nil)
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		encoded = payload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return models.Image{}, apperr.Invalid(op, "Invalid base64 image", err)
	}
	return s.Upload(ctx, userID, "profile_pic", contentType, data)
}

// Get returns the metadata and bytes of an image.
func (s *Service) Get(ctx context.Context, id string) (models.Image, []byte, error) {
	const op = "images.get"

	img, err := s.meta(ctx, op, id)
	if err != nil {
		return models.Image{}, nil, err
	}

	data, err := s.storage.Read(ctx, img.Path)
	if err != nil {
		return models.Image{}, nil, apperr.Store(op, err)
	}
	return img, data, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	const op = "images.list"

	ids, err := s.redis.SMembers(ctx, userImagesKey(userID)).Result()
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	sort.Strings(ids)

	out := make([]models.Image, 0, len(ids))
	for _, id := range ids {
		img, err := s.meta(ctx, op, id)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "images.delete"

	img, err := s.meta(ctx, op, id)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, imageKey(id))
		if img.UserID != "" {
			pipe.SRem(ctx, userImagesKey(img.UserID), id)
		}
		return nil
	})
	if err != nil {
		return apperr.Store(op, err)
	}

	if err := s.storage.Delete(ctx, img.Path); err != nil {
		slog.Error("Failed to remove image file", "id", id, "path", img.Path, "error", err)
	}
	return nil
}

func (s *Service) meta(ctx context.Context, op, id string) (models.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Image{}, apperr.NotFound(op, "Image not found")
	}

	res := s.redis.HGetAll(ctx, imageKey(id))
	fields, err := res.Result()
	if err != nil {
		return models.Image{}, apperr.Store(op, err)
	}
	if len(fields) == 0 {
		return models.Image{}, apperr.NotFound(op, "Image not found")
	}

	var img models.Image
	if err := res.Scan(&img); err != nil {
		return models.Image{}, apperr.Store(op, errors.Join(errors.New("corrupt image metadata"), err))
	}
	return img, nil
}
