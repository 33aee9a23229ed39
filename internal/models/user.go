package models

import "time"

// User is an account known to the identity provider.
type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	Salt          []byte
	Anonymous     bool
	Federated     bool
	EmailVerified bool
	CreatedAt     time.Time
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	UserID        string
	Email         string
	Anonymous     bool
	EmailVerified bool
	AccessToken   string
}
