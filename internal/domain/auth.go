package domain

import "time"

// Identity is the authenticated caller threaded into protected operations.
// It never carries the password hash.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// Token describes an issued access token.
type Token struct {
	Value     string
	SubjectID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
