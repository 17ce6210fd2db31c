package addon

import "errors"

var (
	// ErrConfigNotFound is returned when the configuration listing does not exist.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrParse is returned for malformed metadata, listings or archives.
	ErrParse = errors.New("parse error")
	// ErrRemoteResolution is returned when a repository, release or asset cannot be resolved.
	ErrRemoteResolution = errors.New("remote resolution failed")
	// ErrAlreadyRegistered marks the idempotent no-op of registration. It is not a failure.
	ErrAlreadyRegistered = errors.New("addon already registered")
	// ErrWrite is returned when an output or the listing cannot be written.
	ErrWrite = errors.New("write failed")
)
