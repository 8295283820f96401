// Package models holds the persistent entities shared by repositories and
// services.
package models

import "time"

// User is a storefront account. ActiveSessionID points at the desktop
// device session currently allowed to use the account, if any.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	IsVerified        bool
	VerificationToken *string
	Token             *string
	ActiveSessionID   *string
	CreatedAt         time.Time
}
