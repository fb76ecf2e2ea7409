package store

import (
	"errors"

	"astrofusion/internal/domain"
)

// ErrDuplicateEmail is returned by SaveUser when the email is already taken
// by another account. Backed by the unique index on the email column.
var ErrDuplicateEmail = errors.New("email already taken")

// Store defines persistence operations for users and dataset metadata.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// datasets
	SaveDataset(domain.Dataset) error
	GetDataset(id string) (domain.Dataset, bool, error)
	ListDatasetsByOwner(userID string) ([]domain.Dataset, error)
	DeleteDataset(id string) error
}

// SessionStore issues and validates bearer tokens. Tokens are stateless:
// validity is a function of signature and expiry only, with no server-side
// session record and no revocation before expiry.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
}
