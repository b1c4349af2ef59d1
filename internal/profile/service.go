// Package profile reads and partially updates profile records.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
	"github.com/illegalcall/mentor-tracker/internal/events"
	"github.com/illegalcall/mentor-tracker/internal/metrics"
	"github.com/illegalcall/mentor-tracker/internal/models"
	"github.com/illegalcall/mentor-tracker/internal/store"
)

type Service struct {
	store     store.Accessor
	publisher events.Publisher
}

func NewService(accessor store.Accessor, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: accessor, publisher: publisher}
}

func (s *Service) GetProfile(ctx context.Context, email string) (models.Profile, error) {
	const op = "profile.get"

	email = models.NormalizeEmail(email)
	if email == "" {
		return models.Profile{}, apperr.Invalid(op, "email is required", nil)
	}

	p, err := s.store.FindOne(ctx, store.Where(models.FieldEmail, email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Profile{}, apperr.NotFound(op, "User not found")
		}
		return models.Profile{}, apperr.Store(op, err)
	}
	return p, nil
}

// UpdateProfile applies the supplied fields to the profile keyed by email and
// returns the record as it is after the write.
func (s *Service) UpdateProfile(ctx context.Context, email string, upd models.UpdateProfile) (models.Profile, error) {
	const op = "profile.update"

	email = models.NormalizeEmail(email)
	if email == "" {
		return models.Profile{}, apperr.Invalid(op, "email is required", nil)
	}

	set, err := upd.BuildUpdateSet()
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues("invalid").Inc()
		return models.Profile{}, apperr.Invalid(op, err.Error(), err)
	}

	p, err := s.store.UpdateOneReturningNew(ctx, store.Where(models.FieldEmail, email), set)
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, store.ErrNotFound):
			return models.Profile{}, apperr.NotFound(op, "User not found")
		case errors.Is(err, store.ErrDuplicate):
			return models.Profile{}, apperr.Conflict(op, "email already in use", err)
		default:
			return models.Profile{}, apperr.Store(op, err)
		}
	}
	metrics.ProfileUpdates.WithLabelValues("ok").Inc()

	s.publish(ctx, models.Event{
		Type:   models.EventProfileUpdated,
		Email:  p.Email,
		Fields: models.Names(set),
	})
	return p, nil
}

// ListByRole returns every profile whose account type matches accountType
// exactly. Any tag may be queried; an empty result is reported as NotFound.
func (s *Service) ListByRole(ctx context.Context, accountType string) ([]models.Profile, error) {
	const op = "profile.list_by_role"

	var out []models.Profile
	for p, err := range s.store.FindMany(ctx, store.Where(models.FieldAccountType, accountType)) {
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, apperr.NotFound(op, fmt.Sprintf("No users found with role %s", accountType))
	}
	return out, nil
}

// SetProfilePicture points the profile at a stored image reference.
func (s *Service) SetProfilePicture(ctx context.Context, email, ref string) (models.Profile, error) {
	const op = "profile.set_picture"

	email = models.NormalizeEmail(email)
	if email == "" {
		return models.Profile{}, apperr.Invalid(op, "email is required", nil)
	}
	if ref == "" {
		return models.Profile{}, apperr.Invalid(op, "image reference is required", nil)
	}

	set := []models.Assignment{{Field: models.FieldProfilePic, Value: ref}}
	p, err := s.store.UpdateOneReturningNew(ctx, store.Where(models.FieldEmail, email), set)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Profile{}, apperr.NotFound(op, "User not found")
		}
		return models.Profile{}, apperr.Store(op, err)
	}

	s.publish(ctx, models.Event{
		Type:   models.EventProfileUpdated,
		Email:  p.Email,
		Fields: models.Names(set),
	})
	return p, nil
}

// publish runs after the write has committed, so it ignores the caller's
// cancellation and only logs failures.
func (s *Service) publish(ctx context.Context, event models.Event) {
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("Failed to publish event", "type", event.Type, "email", event.Email, "error", err)
	}
}
