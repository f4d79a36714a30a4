package constants

import "errors"

// Configuration errors
var (
	ErrNoBaseURL     = errors.New("base url not set")
	ErrInvalidURL    = errors.New("invalid base url")
	ErrNoMarshaler   = errors.New("marshaler is not set")
	ErrNoUnmarshaler = errors.New("unmarshaler is not set")
	ErrInvalidAuth   = errors.New("auth must be \"user:password\" or a (user, password) pair")
	ErrClosed        = errors.New("transport is closed")
)

// Usage errors, reported before any request is sent
var (
	ErrNoQuery          = errors.New("query is empty")
	ErrQueryWithParams  = errors.New("params cannot be combined with a raw request mapping")
	ErrMissingStatement = errors.New("statement mapping has no \"statement\" key")
	ErrInvalidStatement = errors.New("statement must be a string, a mapping or a Statement")
)
