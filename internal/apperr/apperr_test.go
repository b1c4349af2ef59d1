package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreClassifiesContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"canceled", context.Canceled, KindCancelled},
		{"deadline", fmt.Errorf("find: %w", context.DeadlineExceeded), KindCancelled},
		{"connection refused", errors.New("connection refused"), KindStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Store("profile.get", tt.err)
			assert.Equal(t, tt.want, err.Kind)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("profile.get", "User not found"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "User not found", MessageOf(err))
	assert.Equal(t, KindStoreFailure, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindStoreFailure))

	forbidden := Forbidden("auth.profile_owner", "You can only modify your own profile")
	assert.Equal(t, KindForbidden, KindOf(forbidden))
	assert.Equal(t, "forbidden", KindForbidden.String())
}

func TestErrorString(t *testing.T) {
	err := Invalid("profile.update", "no fields to update", nil)
	assert.Equal(t, "profile.update: no fields to update", err.Error())

	wrapped := Store("group.add_points", errors.New("socket closed"))
	assert.Equal(t, "group.add_points: store failure: socket closed", wrapped.Error())
}
