package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/samrat-2024tm93628/user-service/internal/user"
)

// UserStore defines the persistence operations the auth service depends on.
// The production implementation is user.Repository; tests substitute an
// in-memory store.
type UserStore interface {
	CreateUserWithCredential(ctx context.Context, name, email, phone, passwordHash, role string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	GetCredentialByUserEmail(ctx context.Context, email string) (*user.Credential, error)
}

// ProfileCache caches profile lookups by id. A failed cache never fails the
// request; lookups fall through to the store.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	Set(ctx context.Context, u *user.User) error
}

// PasswordHasher produces and verifies one-way password hashes.
// Implementations must be safe for concurrent use.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// TokenService issues and verifies self-contained session tokens.
type TokenService interface {
	Issue(subject string) (string, error)
	Verify(tokenStr string) (*TokenClaims, error)
}
