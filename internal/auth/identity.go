package auth

import "github.com/google/uuid"

// Identity is a caller whose token has been verified. Its fields are
// unexported so outside this package it can only come from Verify; the zero
// value means unauthenticated.
type Identity struct {
	userID uuid.UUID
	email  string
}

func (i Identity) UserID() uuid.UUID {
	return i.userID
}

func (i Identity) Email() string {
	return i.email
}

func (i Identity) IsZero() bool {
	return i.userID == uuid.Nil
}
