// Package models holds the server-side persisted entities.
package models

import "time"

// Account is a registered identity. PasswordDigest is opaque outside
// cryptox; it is never serialized to clients.
type Account struct {
	ID             string     `db:"id"`
	FullName       string     `db:"full_name"`
	Email          string     `db:"email"`
	PasswordDigest string     `db:"password_digest"`
	IsActive       bool       `db:"is_active"`
	Role           string     `db:"role"`
	LastLoginAt    *time.Time `db:"last_login_at"`
	CreatedAt      time.Time  `db:"created_at"`
	LastUpdatedAt  time.Time  `db:"last_updated_at"`
}
