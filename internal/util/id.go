package util

import "github.com/google/uuid"

// NewID returns an opaque unique identifier for users, datasets, and requests.
func NewID() string {
	return uuid.NewString()
}
