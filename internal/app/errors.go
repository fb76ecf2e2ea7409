package app

import "errors"

var (
	// ErrUserNotFound is returned at login when no account matches the email.
	ErrUserNotFound = errors.New("User not found")

	// ErrInvalidPassword is returned at login when the hash comparison fails.
	ErrInvalidPassword = errors.New("Invalid password")

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrFieldsRequired     = errors.New("email, username and password required")

	// ErrFileRequired is returned when an upload carries no file payload.
	ErrFileRequired = errors.New("No file uploaded")

	// ErrStorageWrite wraps object-store failures; no metadata record is
	// created when it is returned.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrPersistence wraps metadata-write failures after a successful blob
	// write. The blob is left in place (see DESIGN.md on the consistency gap).
	ErrPersistence = errors.New("metadata write failed")

	ErrDatasetNotFound = errors.New("dataset not found")
)
