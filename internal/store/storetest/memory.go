// Package storetest provides an in-memory store.Accessor for tests.
package storetest

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"sync"

	"github.com/illegalcall/mentor-tracker/internal/models"
	"github.com/illegalcall/mentor-tracker/internal/store"
)

// Memory keeps profiles in a slice guarded by a mutex. Every method honours
// context cancellation before touching state.
type Memory struct {
	mu       sync.Mutex
	profiles []models.Profile
	nextID   int

	opErrs        map[string]error
	incrementErrs map[string]error
	increments    int
	afterIncr     func(id string)
}

func NewMemory(profiles ...models.Profile) *Memory {
	m := &Memory{
		opErrs:        map[string]error{},
		incrementErrs: map[string]error{},
	}
	for _, p := range profiles {
		if p.ID == "" {
			p.ID = m.newID()
		}
		m.profiles = append(m.profiles, p)
	}
	return m
}

// FailOn makes every call of the named method return err.
func (m *Memory) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opErrs[method] = err
}

// FailIncrement makes IncrementField fail for the profile with the given id.
func (m *Memory) FailIncrement(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementErrs[id] = err
}

// AfterIncrement registers fn to run, outside the lock, after each applied
// increment.
func (m *Memory) AfterIncrement(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterIncr = fn
}

// Increments reports how many increments were applied.
func (m *Memory) Increments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.increments
}

// Snapshot returns a copy of the profile with the given email.
func (m *Memory) Snapshot(email string) (models.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, true
		}
	}
	return models.Profile{}, false
}

func (m *Memory) FindOne(ctx context.Context, filter store.Filter) (models.Profile, error) {
	if err := m.check(ctx, "FindOne"); err != nil {
		return models.Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if matches(p, filter) {
			return p, nil
		}
	}
	return models.Profile{}, store.ErrNotFound
}

func (m *Memory) FindMany(ctx context.Context, filter store.Filter) iter.Seq2[models.Profile, error] {
	return func(yield func(models.Profile, error) bool) {
		if err := m.check(ctx, "FindMany"); err != nil {
			yield(models.Profile{}, err)
			return
		}

		m.mu.Lock()
		var found []models.Profile
		for _, p := range m.profiles {
			if matches(p, filter) {
				found = append(found, p)
			}
		}
		m.mu.Unlock()

		for _, p := range found {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (m *Memory) UpdateOneReturningNew(ctx context.Context, filter store.Filter, set []models.Assignment) (models.Profile, error) {
	if err := m.check(ctx, "UpdateOneReturningNew"); err != nil {
		return models.Profile{}, err
	}
	if len(filter) == 0 {
		return models.Profile{}, store.ErrEmptyFilter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.profiles {
		if !matches(p, filter) {
			continue
		}
		updated := p
		for _, a := range set {
			if err := assign(&updated, a); err != nil {
				return models.Profile{}, err
			}
		}
		for j, other := range m.profiles {
			if j != i && other.Email == updated.Email {
				return models.Profile{}, store.ErrDuplicate
			}
		}
		m.profiles[i] = updated
		return updated, nil
	}
	return models.Profile{}, store.ErrNotFound
}

func (m *Memory) IncrementField(ctx context.Context, filter store.Filter, field models.Field, delta int) (int64, error) {
	if err := m.check(ctx, "IncrementField"); err != nil {
		return 0, err
	}
	if field != models.FieldPoints {
		return 0, fmt.Errorf("%w: %s is not a counter", store.ErrUnsupportedField, field)
	}

	m.mu.Lock()
	var (
		n       int64
		applied []string
	)
	for i, p := range m.profiles {
		if !matches(p, filter) {
			continue
		}
		if err := m.incrementErrs[p.ID]; err != nil {
			m.mu.Unlock()
			return 0, err
		}
		if delta != 0 {
			m.profiles[i].Points += delta
			m.increments++
			n++
			applied = append(applied, p.ID)
		}
	}
	hook := m.afterIncr
	m.mu.Unlock()

	if hook != nil {
		for _, id := range applied {
			hook(id)
		}
	}
	return n, nil
}

func (m *Memory) InsertOne(ctx context.Context, p models.Profile) (models.Profile, error) {
	if err := m.check(ctx, "InsertOne"); err != nil {
		return models.Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.profiles {
		if other.Email == p.Email {
			return models.Profile{}, store.ErrDuplicate
		}
	}
	p.ID = m.newID()
	m.profiles = append(m.profiles, p)
	return p, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.check(ctx, "Ping")
}

func (m *Memory) check(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opErrs[method]
}

func (m *Memory) newID() string {
	m.nextID++
	return "id-" + strconv.Itoa(m.nextID)
}

func matches(p models.Profile, filter store.Filter) bool {
	for _, c := range filter {
		if value(p, c.Field) != c.Value {
			return false
		}
	}
	return true
}

func value(p models.Profile, f models.Field) any {
	switch f {
	case models.FieldID:
		return p.ID
	case models.FieldEmail:
		return p.Email
	case models.FieldFullName:
		return p.FullName
	case models.FieldAccountType:
		return p.AccountType
	case models.FieldMentorName:
		return p.MentorName
	case models.FieldFunFacts:
		return p.FunFacts
	case models.FieldPoints:
		return p.Points
	case models.FieldProfilePic:
		return p.ProfilePic
	case models.FieldPasswordHash:
		return p.PasswordHash
	}
	return nil
}

func assign(p *models.Profile, a models.Assignment) error {
	s, ok := a.Value.(string)
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrUnsupportedField, a.Field)
	}
	switch a.Field {
	case models.FieldEmail:
		p.Email = s
	case models.FieldFullName:
		p.FullName = s
	case models.FieldAccountType:
		p.AccountType = s
	case models.FieldMentorName:
		p.MentorName = s
	case models.FieldFunFacts:
		p.FunFacts = s
	case models.FieldProfilePic:
		p.ProfilePic = s
	case models.FieldPasswordHash:
		p.PasswordHash = s
	default:
		return fmt.Errorf("%w: %s", store.ErrUnsupportedField, a.Field)
	}
	return nil
}
