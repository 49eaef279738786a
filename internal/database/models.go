package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database representation of a registered identity.
// Email is a case-sensitive unique key; the UNIQUE constraint on the
// column is what serializes concurrent registrations of the same address.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Name      string    `bun:"name"`
	Email     string    `bun:"email,notnull,unique"`
	Phone     string    `bun:"phone"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:now()"`
}

// Credential is the database representation of a user's secret material,
// kept in its own table so profile reads never touch the password hash.
// UserID carries a NOT NULL foreign key to users plus a UNIQUE constraint,
// giving the strict 1:1 user/credential shape.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	UserID       uuid.UUID `bun:"user_id,notnull,type:uuid,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:now()"`
}
