package model

import "time"

// User roles.  CUSTOMER accounts buy tickets; ORGANIZER accounts can
// additionally validate tickets at the venue.
const (
	RoleCustomer  = "CUSTOMER"
	RoleOrganizer = "ORGANIZER"
)

// User represents an application user as stored in the `users` table.
// Name, Email and DNI together form the payer identification the payment
// provider requires for online payments; accounts missing any of them
// cannot start a payment.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – full name of the user.
//  Email        – unique email address.
//  DNI          – national identity document number (payer identification).
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or ORGANIZER.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	DNI          string    // users.dni
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is persisted.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
