package model

import "time"

// User represents an application user record as stored in the `users`
// table. Accounts are created and managed by administrators; there is no
// self-service registration. The PasswordHash field is never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name of the person.
//  Username     – unique login name (login also accepts the email).
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  Role         – the resolved role row, populated by repository lookups.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       uint64    `json:"role_id"`
	Role         *Role     `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role represents a row in the `roles` table. Roles are reference data
// seeded at startup (Admin, Mechanic, Customer) and looked up by id or name.
type Role struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user; only the SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
