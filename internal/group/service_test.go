package group

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

func cohort(n int) *storetest.Memory {
	profiles := []models.Profile{{Email: "mentor@x.com", FullName: "M", AccountType: models.AccountMentor}}
	for i := 0; i < n; i++ {
		profiles = append(profiles, models.Profile{
			Email:       fmt.Sprintf("mentee%d@x.com", i),
			FullName:    fmt.Sprintf("Mentee %d", i),
			AccountType: models.AccountMentee,
			MentorName:  "M",
			Points:      i,
		})
	}
	return storetest.NewMemory(profiles...)
}

func TestListGroupMembers(t *testing.T) {
	ctx := context.Background()
	svc := NewService(cohort(3), nil)

	members, err := svc.ListGroupMembers(ctx, "M")
	require.NoError(t, err)
	assert.Len(t, members, 3)
	for _, m := range members {
		assert.Equal(t, "M", m.MentorName)
	}

	_, err = svc.ListGroupMembers(ctx, "m")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "mentor names match exactly")

	mem := cohort(1)
	mem.FailOn("FindMany", errors.New("socket closed"))
	_, err = NewService(mem, nil).ListGroupMembers(ctx, "M")
	assert.True(t, apperr.Is(err, apperr.KindStoreFailure))
}

func TestAddPointsToGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("increments every member", func(t *testing.T) {
		mem := cohort(4)
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
			return e.Type == models.EventGroupPointsAdded && e.MentorName == "M" &&
				e.PointsAdded == 10 && e.UpdatedCount == 4
		})).Return(nil).Once()

		res, err := NewService(mem, pub).AddPointsToGroup(ctx, "M", 10)
		require.NoError(t, err)
		assert.Equal(t, 4, res.UpdatedCount)

		for i := 0; i < 4; i++ {
			p, _ := mem.Snapshot(fmt.Sprintf("mentee%d@x.com", i))
			assert.Equal(t, i+10, p.Points)
		}
		mentor, _ := mem.Snapshot("mentor@x.com")
		assert.Equal(t, 0, mentor.Points)
		pub.AssertExpectations(t)
	})

	t.Run("single member scenario", func(t *testing.T) {
		mem := storetest.NewMemory(models.Profile{Email: "a@x.com", MentorName: "M", Points: 5})

		res, err := NewService(mem, nil).AddPointsToGroup(ctx, "M", 3)
		require.NoError(t, err)
		assert.Equal(t, 1, res.UpdatedCount)

		p, _ := mem.Snapshot("a@x.com")
		assert.Equal(t, 8, p.Points)
	})

	t.Run("negative delta", func(t *testing.T) {
		mem := storetest.NewMemory(models.Profile{Email: "a@x.com", MentorName: "M", Points: 5})

		_, err := NewService(mem, nil).AddPointsToGroup(ctx, "M", -2)
		require.NoError(t, err)
		p, _ := mem.Snapshot("a@x.com")
		assert.Equal(t, 3, p.Points)
	})

	t.Run("unknown group writes nothing", func(t *testing.T) {
		mem := cohort(2)
		pub := new(MockPublisher)

		_, err := NewService(mem, pub).AddPointsToGroup(ctx, "Nobody", 5)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, 0, mem.Increments())
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		mem := cohort(2)
		_, err := NewService(mem, nil).AddPointsToGroup(ctx, "M", 0)
		assert.True(t, apperr.Is(err, apperr.KindInvalidRequest))
		assert.Equal(t, 0, mem.Increments())
	})

	t.Run("failed member is skipped", func(t *testing.T) {
		mem := cohort(3)
		victim, _ := mem.Snapshot("mentee1@x.com")
		mem.FailIncrement(victim.ID, errors.New("write conflict"))

		res, err := NewService(mem, nil).AddPointsToGroup(ctx, "M", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, res.UpdatedCount)

		after, _ := mem.Snapshot("mentee1@x.com")
		assert.Equal(t, victim.Points, after.Points)
		last, _ := mem.Snapshot("mentee2@x.com")
		assert.Equal(t, 4, last.Points)
	})

	t.Run("every member failing is not found", func(t *testing.T) {
		mem := cohort(1)
		only, _ := mem.Snapshot("mentee0@x.com")
		mem.FailIncrement(only.ID, errors.New("write conflict"))

		_, err := NewService(mem, nil).AddPointsToGroup(ctx, "M", 2)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("cancelled before start", func(t *testing.T) {
		mem := cohort(3)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewService(mem, nil).AddPointsToGroup(cctx, "M", 2)
		assert.True(t, apperr.Is(err, apperr.KindCancelled))
		assert.Equal(t, 0, mem.Increments())
	})

	t.Run("cancelled mid loop keeps earlier increments", func(t *testing.T) {
		mem := cohort(3)
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		mem.AfterIncrement(func(string) { cancel() })

		_, err := NewService(mem, nil).AddPointsToGroup(cctx, "M", 2)
		assert.True(t, apperr.Is(err, apperr.KindCancelled))
		assert.Equal(t, 1, mem.Increments())

		first, _ := mem.Snapshot("mentee0@x.com")
		assert.Equal(t, 2, first.Points)
		second, _ := mem.Snapshot("mentee1@x.com")
		assert.Equal(t, 1, second.Points)
	})
}

// Concurrent awards to the same group interleave but never lose an increment.
func TestAddPointsToGroupConcurrent(t *testing.T) {
	mem := cohort(5)
	svc := NewService(mem, nil)

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddPointsToGroup(context.Background(), "M", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		p, _ := mem.Snapshot(fmt.Sprintf("mentee%d@x.com", i))
		assert.Equal(t, i+callers, p.Points)
	}
}

func BenchmarkAddPointsToGroup(b *testing.B) {
	b.ReportAllocs()

	mem := cohort(100)
	svc := NewService(mem, nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.AddPointsToGroup(ctx, "M", 1); err != nil {
			b.Fatal(err)
		}
	}
}
