package locket

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrKeyInvalid indicates key material of the wrong length or encoding.
	ErrKeyInvalid = errors.New("key invalid")

	// ErrKeyAlreadyBound indicates a field already has a key. Unset it first.
	ErrKeyAlreadyBound = errors.New("key already bound")

	// ErrKeyUndefined indicates an encode or decode on a field with no key.
	ErrKeyUndefined = errors.New("key undefined")

	// ErrTokenMalformed indicates a token with a bad version marker or a
	// truncated layout.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenInvalid indicates a token that failed authentication. Tampered
	// tokens and tokens signed with another key both report this error.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired indicates a token older than the configured TTL.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// KeyError represents a key registry failure for a single binding.
type KeyError struct {
	Err   error  // Underlying sentinel error (ErrKeyInvalid, ErrKeyAlreadyBound)
	Owner string // Owner the binding belongs to
	Field string // Field identity within the owner
}

func (e *KeyError) Error() string {
	if e.Owner == "" && e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (field %s)", e.Err.Error(), qualify(e.Owner, e.Field))
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// TransformError represents an encode or decode failure at the storage boundary.
type TransformError struct {
	Err       error  // Underlying sentinel error (ErrKeyUndefined, ErrTokenInvalid, etc.)
	Operation string // encode or decode
	Owner     string
	Field     string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s field %s: %v", e.Operation, qualify(e.Owner, e.Field), e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newKeyError(sentinel error, owner, field string) error {
	return &KeyError{Err: sentinel, Owner: owner, Field: field}
}

func newTransformError(sentinel error, operation, owner, field string) error {
	return &TransformError{Err: sentinel, Operation: operation, Owner: owner, Field: field}
}

func newCodecError(sentinel error, cause error) error {
	return &CodecError{Err: sentinel, Cause: cause}
}

// qualify renders an owner/field pair as "owner.field".
func qualify(owner, field string) string {
	if owner == "" {
		return field
	}
	return owner + "." + field
}
