// Package store provides exact-match access to the profile collection.
// Every write is a single atomic operation of the underlying engine.
package store

import (
	"context"
	"errors"
	"iter"

	"github.com/illegalcall/mentor-tracker/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate key")
	ErrUnsupportedField = errors.New("unsupported field")
	ErrEmptyFilter      = errors.New("filter must name at least one field")
)

// Cond is an exact-match predicate on one field.
type Cond struct {
	Field models.Field
	Value any
}

// Filter is a conjunction of exact-match predicates.
type Filter []Cond

func Where(field models.Field, value any) Filter {
	return Filter{{Field: field, Value: value}}
}

func (f Filter) And(field models.Field, value any) Filter {
	out := make(Filter, 0, len(f)+1)
	out = append(out, f...)
	return append(out, Cond{Field: field, Value: value})
}

// Accessor is the document store contract the services are built on.
type Accessor interface {
	FindOne(ctx context.Context, filter Filter) (models.Profile, error)
	// FindMany is lazy. Each range over the returned sequence runs the
	// query again.
	FindMany(ctx context.Context, filter Filter) iter.Seq2[models.Profile, error]
	// UpdateOneReturningNew matches, applies set and returns the post-update
	// record as one indivisible operation.
	UpdateOneReturningNew(ctx context.Context, filter Filter, set []models.Assignment) (models.Profile, error)
	IncrementField(ctx context.Context, filter Filter, field models.Field, delta int) (int64, error)
	InsertOne(ctx context.Context, profile models.Profile) (models.Profile, error)
	Ping(ctx context.Context) error
}

func failed(err error) iter.Seq2[models.Profile, error] {
	return func(yield func(models.Profile, error) bool) {
		yield(models.Profile{}, err)
	}
}
