package auth_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samrat-2024tm93628/user-service/internal/user"
)

// memStore is an in-memory UserStore. The mutex plays the role of the
// database unique constraint: concurrent registrations of the same email
// are serialized and all but one fail with ErrDuplicateEmail.
type memStore struct {
	mu    sync.Mutex
	order []string
	users map[string]*user.User
	creds map[string]*user.Credential

	getByIDCalls int
	// failCredential simulates a credential insert failing inside the
	// registration transaction; the user row must not survive either.
	failCredential bool
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*user.User),
		creds: make(map[string]*user.Credential),
	}
}

func (s *memStore) CreateUserWithCredential(ctx context.Context, name, email, phone, passwordHash, role string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	if s.failCredential {
		return nil, errors.New("credential insert failed")
	}

	u := &user.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
	s.users[email] = u
	s.order = append(s.order, email)
	s.creds[email] = &user.Credential{
		ID:           uuid.New(),
		UserID:       u.ID,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	return u, nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getByIDCalls++
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) List(ctx context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]user.User, 0, len(s.order))
	for _, email := range s.order {
		users = append(users, *s.users[email])
	}
	return users, nil
}

func (s *memStore) GetCredentialByUserEmail(ctx context.Context, email string) (*user.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.creds[email]; ok {
		return c, nil
	}
	return nil, user.ErrCredentialNotFound
}

// dropCredential removes a stored credential, violating the 1:1 invariant.
func (s *memStore) dropCredential(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, email)
}

// memCache is an in-memory ProfileCache.
type memCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*user.User
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[uuid.UUID]*user.User)}
}

func (c *memCache) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.entries[id]; ok {
		return u, nil
	}
	return nil, user.ErrCacheMiss
}

func (c *memCache) Set(ctx context.Context, u *user.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[u.ID] = u
	return nil
}
