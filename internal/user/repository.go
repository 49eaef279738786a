package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/samrat-2024tm93628/user-service/internal/database"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialOrphaned = errors.New("credential references a missing user")
)

// DefaultRole is assigned to every credential created through registration.
const DefaultRole = "USER"

// Repository handles user and credential persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user. The database UNIQUE constraint on email is
// the uniqueness check; a violation is translated to ErrDuplicateEmail.
func (r *Repository) CreateUser(ctx context.Context, name, email, phone string) (*User, error) {
	return createUser(ctx, r.db, name, email, phone)
}

// CreateCredential inserts the credential for an existing user. A foreign key
// violation (the user does not exist) is translated to ErrCredentialOrphaned.
func (r *Repository) CreateCredential(ctx context.Context, userID uuid.UUID, passwordHash, role string) (*Credential, error) {
	return createCredential(ctx, r.db, userID, passwordHash, role)
}

// CreateUserWithCredential inserts a user and its credential in a single
// transaction. Either both rows are committed or neither is, so a user can
// never be observed without its credential.
func (r *Repository) CreateUserWithCredential(ctx context.Context, name, email, phone, passwordHash, role string) (*User, error) {
	var created *User

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		newUser, err := createUser(ctx, tx, name, email, phone)
		if err != nil {
			return err
		}

		if _, err := createCredential(ctx, tx, newUser.ID, passwordHash, role); err != nil {
			return err
		}

		created = newUser
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByEmail retrieves a user by exact email match
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List returns all users in insertion order
func (r *Repository) List(ctx context.Context) ([]User, error) {
	var dbUsers []database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, *mapDBUserToModel(&dbUsers[i]))
	}

	return users, nil
}

// GetCredentialByUserEmail retrieves the credential belonging to the user
// with the given email, joining credentials to users on the user id.
func (r *Repository) GetCredentialByUserEmail(ctx context.Context, email string) (*Credential, error) {
	dbCred := new(database.Credential)
	err := r.db.NewSelect().
		Model(dbCred).
		Join("JOIN users AS u ON u.id = c.user_id").
		Where("u.email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential by user email: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

func createUser(ctx context.Context, idb bun.IDB, name, email, phone string) (*User, error) {
	dbUser := &database.User{
		Name:  name,
		Email: email,
		Phone: phone,
	}

	_, err := idb.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

func createCredential(ctx context.Context, idb bun.IDB, userID uuid.UUID, passwordHash, role string) (*Credential, error) {
	dbCred := &database.Credential{
		UserID:       userID,
		PasswordHash: passwordHash,
		Role:         role,
	}

	_, err := idb.NewInsert().
		Model(dbCred).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return nil, ErrCredentialOrphaned
		}
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return mapDBCredentialToModel(dbCred), nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:        dbu.ID,
		Name:      dbu.Name,
		Email:     dbu.Email,
		Phone:     dbu.Phone,
		CreatedAt: dbu.CreatedAt,
	}
}

func mapDBCredentialToModel(dbc *database.Credential) *Credential {
	return &Credential{
		ID:           dbc.ID,
		UserID:       dbc.UserID,
		PasswordHash: dbc.PasswordHash,
		Role:         dbc.Role,
		CreatedAt:    dbc.CreatedAt,
	}
}
