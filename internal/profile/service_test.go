package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
	"github.com/illegalcall/mentor-tracker/internal/models"
	"github.com/illegalcall/mentor-tracker/internal/store/storetest"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func seed() *storetest.Memory {
	return storetest.NewMemory(
		models.Profile{Email: "a@x.com", FullName: "Ada", AccountType: models.AccountMentee, MentorName: "M", Points: 5},
		models.Profile{Email: "b@x.com", FullName: "Bo", AccountType: models.AccountMentee, MentorName: "M", Points: 1},
		models.Profile{Email: "m@x.com", FullName: "M", AccountType: models.AccountMentor},
	)
}

func TestGetProfile(t *testing.T) {
	svc := NewService(seed(), nil)
	ctx := context.Background()

	t.Run("normalizes the email", func(t *testing.T) {
		p, err := svc.GetProfile(ctx, "  A@X.com ")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", p.Email)
		assert.NotEmpty(t, p.ID)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := svc.GetProfile(ctx, "a@x.com")
		require.NoError(t, err)
		second, err := svc.GetProfile(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, "ghost@x.com")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, "  ")
		assert.True(t, apperr.Is(err, apperr.KindInvalidRequest))
	})

	t.Run("store failure", func(t *testing.T) {
		mem := seed()
		mem.FailOn("FindOne", errors.New("connection refused"))
		_, err := NewService(mem, nil).GetProfile(ctx, "a@x.com")
		assert.True(t, apperr.Is(err, apperr.KindStoreFailure))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.GetProfile(cctx, "a@x.com")
		assert.True(t, apperr.Is(err, apperr.KindCancelled))
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("changes only supplied fields", func(t *testing.T) {
		mem := seed()
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
			return e.Type == models.EventProfileUpdated && e.Email == "a@x.com" &&
				assert.ObjectsAreEqual([]string{"funFacts"}, e.Fields)
		})).Return(nil).Once()

		before, _ := mem.Snapshot("a@x.com")
		p, err := NewService(mem, pub).UpdateProfile(ctx, "a@x.com", models.UpdateProfile{FunFacts: strPtr("loves hiking")})
		require.NoError(t, err)

		assert.Equal(t, "loves hiking", p.FunFacts)
		assert.Equal(t, before.Email, p.Email)
		assert.Equal(t, before.Points, p.Points)
		assert.Equal(t, before.FullName, p.FullName)
		assert.Equal(t, before.ID, p.ID)

		after, err := NewService(mem, nil).GetProfile(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, p, after)
		pub.AssertExpectations(t)
	})

	t.Run("role alias sets account type", func(t *testing.T) {
		p, err := NewService(seed(), nil).UpdateProfile(ctx, "a@x.com", models.UpdateProfile{Role: strPtr("mentor")})
		require.NoError(t, err)
		assert.Equal(t, models.AccountMentor, p.AccountType)
	})

	t.Run("empty update is rejected without a write", func(t *testing.T) {
		pub := new(MockPublisher)
		_, err := NewService(seed(), pub).UpdateProfile(ctx, "a@x.com", models.UpdateProfile{})
		assert.True(t, apperr.Is(err, apperr.KindInvalidRequest))
		assert.Equal(t, "no fields to update", apperr.MessageOf(err))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := NewService(seed(), nil).UpdateProfile(ctx, "ghost@x.com", models.UpdateProfile{FunFacts: strPtr("x")})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("email collision", func(t *testing.T) {
		_, err := NewService(seed(), nil).UpdateProfile(ctx, "a@x.com", models.UpdateProfile{Email: strPtr("B@x.com")})
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("publish failure does not fail the update", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		p, err := NewService(seed(), pub).UpdateProfile(ctx, "a@x.com", models.UpdateProfile{FullName: strPtr("Ada L")})
		require.NoError(t, err)
		assert.Equal(t, "Ada L", p.FullName)
	})
}

func TestListByRole(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seed(), nil)

	mentees, err := svc.ListByRole(ctx, models.AccountMentee)
	require.NoError(t, err)
	assert.Len(t, mentees, 2)

	_, err = NewService(storetest.NewMemory(), nil).ListByRole(ctx, models.AccountMentor)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.ListByRole(ctx, "admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	legacy := storetest.NewMemory(models.Profile{Email: "old@x.com", FullName: "Old", AccountType: "Mentor"})
	found, err := NewService(legacy, nil).ListByRole(ctx, "Mentor")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "old@x.com", found[0].Email)

	mem := seed()
	mem.FailOn("FindMany", errors.New("cursor died"))
	_, err = NewService(mem, nil).ListByRole(ctx, models.AccountMentee)
	assert.True(t, apperr.Is(err, apperr.KindStoreFailure))
}

func TestSetProfilePicture(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seed(), nil)

	p, err := svc.SetProfilePicture(ctx, "a@x.com", "/images/abc")
	require.NoError(t, err)
	assert.Equal(t, "/images/abc", p.ProfilePic)

	_, err = svc.SetProfilePicture(ctx, "ghost@x.com", "/images/abc")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.SetProfilePicture(ctx, "a@x.com", "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest))
}
