package locket

import (
	"context"
	"io"
	"time"
)

// Cipher is the boundary the persistence layer calls: it looks up the key
// bound to a field and runs the token codec with it.
//
// A Cipher never caches keys; every call consults its KeyRegistry, so Unset
// takes effect immediately.
type Cipher struct {
	keys  *KeyRegistry
	codec *TokenCodec
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithTTL rejects tokens older than ttl on decode. Zero, the default, accepts
// tokens of any age.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cipher) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now for token timestamps and TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cipher) {
		c.now = now
	}
}

// WithRand replaces crypto/rand as the IV source.
func WithRand(r io.Reader) Option {
	return func(c *Cipher) {
		c.codec = NewTokenCodec(WithRandSource(r))
	}
}

// NewCipher returns a Cipher reading keys from keys.
func NewCipher(keys *KeyRegistry, opts ...Option) *Cipher {
	c := &Cipher{
		keys:  keys,
		codec: NewTokenCodec(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keys returns the registry the cipher reads from.
func (c *Cipher) Keys() *KeyRegistry {
	return c.keys
}

// TTL returns the configured decode TTL; zero means disabled.
func (c *Cipher) TTL() time.Duration {
	return c.ttl
}

// EncodeForStorage encrypts plaintext with the key bound to (owner, field).
// Fails with ErrKeyUndefined, without touching the codec, when no key is bound.
func (c *Cipher) EncodeForStorage(ctx context.Context, plaintext []byte, owner, field string) (string, error) {
	start := time.Now()

	var token string
	var retErr error
	defer func() {
		emitEncodeComplete(ctx, owner, field, len(token), time.Since(start), retErr)
	}()

	key, ok := c.keys.Get(owner, field)
	if !ok {
		retErr = newTransformError(ErrKeyUndefined, "encode", owner, field)
		return "", retErr
	}

	token, err := c.codec.Encode(plaintext, key, c.now())
	if err != nil {
		retErr = &TransformError{Err: err, Operation: "encode", Owner: owner, Field: field}
		return "", retErr
	}
	return token, nil
}

// DecodeFromStorage verifies and decrypts token with the key bound to (owner, field).
// Token failures keep their kind: errors.Is reports ErrTokenInvalid,
// ErrTokenMalformed or ErrTokenExpired through the returned *TransformError.
func (c *Cipher) DecodeFromStorage(ctx context.Context, token, owner, field string) ([]byte, error) {
	start := time.Now()

	var plaintext []byte
	var retErr error
	defer func() {
		emitDecodeComplete(ctx, owner, field, len(plaintext), time.Since(start), retErr)
	}()

	key, ok := c.keys.Get(owner, field)
	if !ok {
		retErr = newTransformError(ErrKeyUndefined, "decode", owner, field)
		return nil, retErr
	}

	plaintext, err := c.codec.Decode(token, key, c.ttl, c.now())
	if err != nil {
		retErr = &TransformError{Err: err, Operation: "decode", Owner: owner, Field: field}
		return nil, retErr
	}
	return plaintext, nil
}

// Field returns a handle for one encrypted field.
func (c *Cipher) Field(owner, name string) *Field {
	return &Field{cipher: c, owner: owner, name: name}
}

// Field is a reference to an encrypted field. It holds only the field's
// identity; the key lives in the cipher's registry.
type Field struct {
	cipher *Cipher
	owner  string
	name   string
}

// Owner returns the owner the field is declared on.
func (f *Field) Owner() string { return f.owner }

// Name returns the field identity within its owner.
func (f *Field) Name() string { return f.name }

// SetKey binds key material to the field. See KeyRegistry.Set.
func (f *Field) SetKey(material []byte) error {
	return f.cipher.keys.Set(f.owner, f.name, material)
}

// UnsetKey removes the field's key.
func (f *Field) UnsetKey() {
	f.cipher.keys.Unset(f.owner, f.name)
}

// HasKey reports whether the field has a key.
func (f *Field) HasKey() bool {
	return f.cipher.keys.IsBound(f.owner, f.name)
}

// Encode encrypts a value for storage.
func (f *Field) Encode(ctx context.Context, plaintext []byte) (string, error) {
	return f.cipher.EncodeForStorage(ctx, plaintext, f.owner, f.name)
}

// Decode decrypts a stored token.
func (f *Field) Decode(ctx context.Context, token string) ([]byte, error) {
	return f.cipher.DecodeFromStorage(ctx, token, f.owner, f.name)
}
