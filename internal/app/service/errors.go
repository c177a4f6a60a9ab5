package service

import "errors"

// Validation errors surfaced directly to callers; never retried.
var (
	// ErrTokenInvalid covers both unknown and revoked tokens. Public
	// callers must not be able to tell the two apart.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrDuplicateProofType rejects a second proof of the same type for an
	// order.
	ErrDuplicateProofType = errors.New("duplicate proof type")

	// ErrInvalidFileType rejects uploads outside the image allow-list.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrFileTooLarge rejects uploads over the configured ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrProofNotUploaded blocks a manual resend before any proof exists.
	ErrProofNotUploaded = errors.New("proof not uploaded")
)
