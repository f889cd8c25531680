package pkg

import "github.com/google/uuid"

// NewID - generates an identity for matches, byes and sessions.
func NewID() string {
	return uuid.NewString()
}
