// Package group lists mentor cohorts and awards points to every member.
package group

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

var ErrZeroDelta = errors.New("points_added must be non-zero")

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

// ListGroupMembers returns the profiles assigned to mentorName. An unknown
// mentor is reported as NotFound.
func (s *Service) ListGroupMembers(ctx context.Context, mentorName string) ([]models.Profile, error) {
	const op = "group.list"

	if mentorName == "" {
		return nil, apperr.Invalid(op, "mentor name is required", nil)
	}

	var members []models.Profile
	for p, err := range s.store.FindMany(ctx, store.Where(models.FieldMentorName, mentorName)) {
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		members = append(members, p)
	}

	if len(members) == 0 {
		return nil, apperr.NotFound(op, fmt.Sprintf("No members found for mentor %s", mentorName))
	}
	return members, nil
}

// AddPointsToGroup increments the points of every member of the group by
// delta. Each increment is independent: a member whose increment fails is
// skipped and earlier increments are kept. Cancellation stops the loop.
func (s *Service) AddPointsToGroup(ctx context.Context, mentorName string, delta int) (models.GroupUpdateResult, error) {
	const op = "group.add_points"

	if mentorName == "" {
		return models.GroupUpdateResult{}, apperr.Invalid(op, "mentor name is required", nil)
	}
	if delta == 0 {
		return models.GroupUpdateResult{}, apperr.Invalid(op, ErrZeroDelta.Error(), ErrZeroDelta)
	}

	updated := 0
	for member, err := range s.store.FindMany(ctx, store.Where(models.FieldMentorName, mentorName)) {
		if err != nil {
			slog.Error("Group enumeration failed", "mentor", mentorName, "updated", updated, "error", err)
			return models.GroupUpdateResult{UpdatedCount: updated}, apperr.Store(op, err)
		}
		if err := ctx.Err(); err != nil {
			return models.GroupUpdateResult{UpdatedCount: updated}, apperr.Store(op, err)
		}

		n, err := s.store.IncrementField(ctx, store.Where(models.FieldID, member.ID), models.FieldPoints, delta)
		if err != nil {
			if ctx.Err() != nil {
				return models.GroupUpdateResult{UpdatedCount: updated}, apperr.Store(op, err)
			}
			metrics.GroupMemberUpdateFailures.Inc()
			slog.Warn("Skipping member after failed increment", "mentor", mentorName, "id", member.ID, "error", err)
			continue
		}
		if n > 0 {
			updated++
		}
	}

	if updated == 0 {
		return models.GroupUpdateResult{}, apperr.NotFound(op, fmt.Sprintf("No members updated for mentor %s", mentorName))
	}

	metrics.GroupPointAwards.Inc()
	metrics.GroupMembersUpdated.Add(float64(updated))
	slog.Info("Points added to group", "mentor", mentorName, "points", delta, "updated", updated)

	event := models.Event{
		Type:         models.EventGroupPointsAdded,
		MentorName:   mentorName,
		PointsAdded:  delta,
		UpdatedCount: updated,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("Failed to publish event", "type", event.Type, "mentor", mentorName, "error", err)
	}

	return models.GroupUpdateResult{UpdatedCount: updated}, nil
}
