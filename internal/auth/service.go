package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"

	"github.com/samrat-2024tm93628/user-service/internal/logging"
	"github.com/samrat-2024tm93628/user-service/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Service orchestrates registration, login and profile lookups. All durable
// state lives in the UserStore; the service itself holds no mutable state and
// supports any number of concurrent invocations.
type Service struct {
	store  UserStore
	cache  ProfileCache
	hasher PasswordHasher
	tokens TokenService
	logger *logging.Logger
}

func NewService(
	store UserStore,
	cache ProfileCache,
	hasher PasswordHasher,
	tokens TokenService,
	logger *logging.Logger,
) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new user together with its credential.
//
// The password is hashed before the store transaction opens, so the slow
// argon2id derivation never holds a database transaction. User and credential
// rows are then written atomically; the unique constraint on email decides
// the winner when two registrations race on the same address.
//
// The returned user carries no password material.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.CreateUserWithCredential(ctx, name, email, phone, passwordHash, user.DefaultRole)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies the credentials for email and returns a fresh session token
// with the email as subject.
//
// Unknown email, missing credential and wrong password all surface as
// ErrInvalidCredentials so responses cannot be used to enumerate registered
// addresses. The missing-credential case violates the one-credential-per-user
// invariant and is additionally logged as an integrity anomaly.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}
	if password == "" {
		return "", ErrPasswordRequired
	}

	existingUser, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	cred, err := s.store.GetCredentialByUserEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrCredentialNotFound) {
			s.logger.Error("integrity anomaly: user exists without credential", "user_id", existingUser.ID)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get credential: %w", err)
	}

	if !s.hasher.Verify(password, cred.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(existingUser.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// GetUser retrieves a user profile by id, consulting the profile cache first.
// Cache failures are logged and fall through to the store.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, user.ErrCacheMiss) {
		s.logger.Warn("profile cache read failed", "user_id", id, "error", err.Error())
	}

	found, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.cache.Set(ctx, found); err != nil {
		s.logger.Warn("profile cache write failed", "user_id", id, "error", err.Error())
	}

	return found, nil
}

// GetUserByEmail retrieves a user profile by exact email match.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	found, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return found, nil
}

// ListUsers returns all registered users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
