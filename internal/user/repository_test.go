package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samrat-2024tm93628/user-service/internal/database"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(database.NewBunDB(db)), mock
}

func userRows(id uuid.UUID, name, email, phone string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "name", "email", "phone", "created_at"}).
		AddRow(id.String(), name, email, phone, createdAt)
}

func credentialRows(id, userID uuid.UUID, hash, role string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "user_id", "password_hash", "role", "created_at"}).
		AddRow(id.String(), userID.String(), hash, role, createdAt)
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(userRows(id, "Ann", "ann@x.com", "555-0001", now))

	created, err := repo.CreateUser(context.Background(), "Ann", "ann@x.com", "555-0001")
	require.NoError(t, err)

	assert.Equal(t, id, created.ID)
	assert.Equal(t, "ann@x.com", created.Email)
	assert.WithinDuration(t, now, created.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

	_, err := repo.CreateUser(context.Background(), "Ann", "ann@x.com", "")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateUser_UnexpectedError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.CreateUser(context.Background(), "Ann", "ann@x.com", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateCredential_OrphanRejected(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`INSERT INTO "credentials"`).
		WillReturnError(errors.New(`pq: insert or update on table "credentials" violates foreign key constraint "credentials_user_id_fkey"`))

	_, err := repo.CreateCredential(context.Background(), uuid.New(), "hash", DefaultRole)
	assert.ErrorIs(t, err, ErrCredentialOrphaned)
}

func TestCreateUserWithCredential_Commits(t *testing.T) {
	repo, mock := newTestRepo(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(userRows(userID, "Ann", "ann@x.com", "", now))
	mock.ExpectQuery(`INSERT INTO "credentials"`).
		WillReturnRows(credentialRows(uuid.New(), userID, "hash", DefaultRole, now))
	mock.ExpectCommit()

	created, err := repo.CreateUserWithCredential(context.Background(), "Ann", "ann@x.com", "", "hash", DefaultRole)
	require.NoError(t, err)

	assert.Equal(t, userID, created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserWithCredential_RollsBackOnCredentialFailure(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(userRows(uuid.New(), "Ann", "ann@x.com", "", time.Now()))
	mock.ExpectQuery(`INSERT INTO "credentials"`).
		WillReturnError(errors.New(`pq: insert or update on table "credentials" violates foreign key constraint "credentials_user_id_fkey"`))
	mock.ExpectRollback()

	_, err := repo.CreateUserWithCredential(context.Background(), "Ann", "ann@x.com", "", "hash", DefaultRole)
	assert.ErrorIs(t, err, ErrCredentialOrphaned)
	assert.NoError(t, mock.ExpectationsWereMet(), "the user insert must be rolled back")
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "created_at"}))

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(id, "Ann", "ann@x.com", "", time.Now()))

	found, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
}

func TestList_ReturnsAll(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.
		NewRows([]string{"id", "name", "email", "phone", "created_at"}).
		AddRow(uuid.NewString(), "Ann", "ann@x.com", "", time.Now()).
		AddRow(uuid.NewString(), "Bob", "bob@x.com", "", time.Now())
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ann@x.com", users[0].Email)
}

func TestGetCredentialByUserEmail_JoinsOnUser(t *testing.T) {
	repo, mock := newTestRepo(t)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "credentials" AS "c" JOIN users AS u ON u\.id = c\.user_id`).
		WillReturnRows(credentialRows(uuid.New(), userID, "hash", DefaultRole, time.Now()))

	cred, err := repo.GetCredentialByUserEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, userID, cred.UserID)
	assert.Equal(t, DefaultRole, cred.Role)
}

func TestGetCredentialByUserEmail_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "credentials"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "password_hash", "role", "created_at"}))

	_, err := repo.GetCredentialByUserEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}
